package config

import (
	"strings"

	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

// EchoServer holds the HTTP shell settings.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
}

// Logger holds the zerolog settings.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

// LocalSigner holds the seed-derived backend configuration. The mnemonic is
// deliberately marked unsecure: it lives in an environment variable and is
// meant for development and testing setups only.
type LocalSigner struct {
	Mnemonic string
}

// Configured reports whether the local backend can be constructed. It never
// panics; missing or malformed configuration yields false.
func (c LocalSigner) Configured() bool {
	return strings.TrimSpace(c.Mnemonic) != ""
}

// TurnkeySigner holds the Turnkey-style custodial backend configuration.
type TurnkeySigner struct {
	BaseURL        string
	APIPublicKey   string
	APIPrivateKey  string
	OrganizationID string
	WalletID       string
}

// Configured reports whether the Turnkey backend can be constructed.
func (c TurnkeySigner) Configured() bool {
	return c.BaseURL != "" && c.APIPublicKey != "" && c.APIPrivateKey != "" &&
		c.OrganizationID != "" && c.WalletID != ""
}

// DfnsSigner holds the Dfns-style custodial backend configuration.
type DfnsSigner struct {
	BaseURL           string
	AppID             string
	CredentialID      string
	AuthToken         string
	CredentialPrivPEM string
}

// Configured reports whether the Dfns backend can be constructed.
func (c DfnsSigner) Configured() bool {
	return c.BaseURL != "" && c.AppID != "" && c.CredentialID != "" && c.AuthToken != ""
}

// SodotVertexCount is the fixed number of cosigning vertices. A policy
// choice, not discovered at runtime.
const SodotVertexCount = 3

// SodotSigner holds the threshold-MPC backend configuration.
type SodotSigner struct {
	VertexURLs    []string
	VertexAPIKeys []string
	// Pre-provisioned key identifiers, one per vertex. When set, the keygen
	// ceremony is skipped entirely.
	ExistingECDSAKeyIDs   []string
	ExistingEd25519KeyIDs []string
}

// Configured reports whether the Sodot backend can be constructed: one URL
// and one API key per vertex.
func (c SodotSigner) Configured() bool {
	if len(c.VertexURLs) != SodotVertexCount || len(c.VertexAPIKeys) != SodotVertexCount {
		return false
	}
	for i := 0; i < SodotVertexCount; i++ {
		if c.VertexURLs[i] == "" || c.VertexAPIKeys[i] == "" {
			return false
		}
	}
	return true
}

// Server is the central configuration struct, assembled once from the
// environment at startup and passed to the components that need it.
type Server struct {
	Echo    EchoServer
	Logger  Logger
	Local   LocalSigner
	Turnkey TurnkeySigner
	Dfns    DfnsSigner
	Sodot   SodotSigner
}

// DefaultServiceConfigFromEnv returns the server config as parsed from the
// process environment, with development-friendly defaults.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
		},
		Logger: Logger{
			Level:              util.GetEnv("SERVER_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Local: LocalSigner{
			Mnemonic: util.GetEnv("UNSECURE_LOCAL_SEED", ""),
		},
		Turnkey: TurnkeySigner{
			BaseURL:        util.GetEnv("TURNKEY_BASE_URL", "https://api.turnkey.com"),
			APIPublicKey:   util.GetEnv("TURNKEY_API_PUBLIC_KEY", ""),
			APIPrivateKey:  util.GetEnv("TURNKEY_API_PRIVATE_KEY", ""),
			OrganizationID: util.GetEnv("TURNKEY_ORGANIZATION_ID", ""),
			WalletID:       util.GetEnv("TURNKEY_WALLET_ID", ""),
		},
		Dfns: DfnsSigner{
			BaseURL:           util.GetEnv("DFNS_API_URL", "https://api.dfns.io"),
			AppID:             util.GetEnv("DFNS_APP_ID", ""),
			CredentialID:      util.GetEnv("DFNS_CRED_ID", ""),
			AuthToken:         util.GetEnv("DFNS_AUTH_TOKEN", ""),
			CredentialPrivPEM: util.GetEnv("DFNS_PRIVATE_KEY", ""),
		},
		Sodot: SodotSigner{
			VertexURLs: []string{
				util.GetEnv("SODOT_VERTEX_URL_0", ""),
				util.GetEnv("SODOT_VERTEX_URL_1", ""),
				util.GetEnv("SODOT_VERTEX_URL_2", ""),
			},
			VertexAPIKeys: []string{
				util.GetEnv("SODOT_VERTEX_API_KEY_0", ""),
				util.GetEnv("SODOT_VERTEX_API_KEY_1", ""),
				util.GetEnv("SODOT_VERTEX_API_KEY_2", ""),
			},
			ExistingECDSAKeyIDs:   util.GetEnvAsStringArr("SODOT_EXISTING_ECDSA_KEY_IDS", nil),
			ExistingEd25519KeyIDs: util.GetEnvAsStringArr("SODOT_EXISTING_ED25519_KEY_IDS", nil),
		},
	}
}
