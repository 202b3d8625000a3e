package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
)

func TestLocalSignerConfigured(t *testing.T) {
	assert.False(t, config.LocalSigner{}.Configured())
	assert.False(t, config.LocalSigner{Mnemonic: "   "}.Configured())
	assert.True(t, config.LocalSigner{Mnemonic: "abandon abandon about"}.Configured())
}

func TestTurnkeySignerConfigured(t *testing.T) {
	full := config.TurnkeySigner{
		BaseURL:        "https://api.example.test",
		APIPublicKey:   "pub",
		APIPrivateKey:  "priv",
		OrganizationID: "org",
		WalletID:       "wallet",
	}
	assert.True(t, full.Configured())

	missingWallet := full
	missingWallet.WalletID = ""
	assert.False(t, missingWallet.Configured())

	assert.False(t, config.TurnkeySigner{}.Configured())
}

func TestDfnsSignerConfigured(t *testing.T) {
	full := config.DfnsSigner{
		BaseURL:      "https://api.example.test",
		AppID:        "app",
		CredentialID: "cred",
		AuthToken:    "token",
	}
	assert.True(t, full.Configured())

	missingToken := full
	missingToken.AuthToken = ""
	assert.False(t, missingToken.Configured())
}

func TestSodotSignerConfigured(t *testing.T) {
	full := config.SodotSigner{
		VertexURLs:    []string{"http://v0", "http://v1", "http://v2"},
		VertexAPIKeys: []string{"k0", "k1", "k2"},
	}
	assert.True(t, full.Configured())

	partial := full
	partial.VertexAPIKeys = []string{"k0", "", "k2"}
	assert.False(t, partial.Configured(), "every vertex needs an API key")

	short := full
	short.VertexURLs = full.VertexURLs[:2]
	assert.False(t, short.Configured())
}

func TestDefaultServiceConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_ECHO_LISTEN_ADDRESS", ":9090")
	t.Setenv("SERVER_LOGGER_LEVEL", "warn")
	t.Setenv("UNSECURE_LOCAL_SEED", "abandon abandon about")
	t.Setenv("SODOT_VERTEX_URL_1", "http://vertex-1")
	t.Setenv("SODOT_EXISTING_ECDSA_KEY_IDS", "id-0,id-1,id-2")

	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, ":9090", cfg.Echo.ListenAddress)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "abandon abandon about", cfg.Local.Mnemonic)

	// Defaults apply for anything unset.
	assert.Equal(t, "https://api.turnkey.com", cfg.Turnkey.BaseURL)
	assert.Equal(t, "https://api.dfns.io", cfg.Dfns.BaseURL)
	assert.False(t, cfg.Turnkey.Configured())
	assert.False(t, cfg.Dfns.Configured())

	require.Len(t, cfg.Sodot.VertexURLs, config.SodotVertexCount)
	assert.Equal(t, "http://vertex-1", cfg.Sodot.VertexURLs[1])
	assert.False(t, cfg.Sodot.Configured())
	assert.Equal(t, []string{"id-0", "id-1", "id-2"}, cfg.Sodot.ExistingECDSAKeyIDs)
}
