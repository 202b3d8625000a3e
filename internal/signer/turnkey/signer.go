package turnkey

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

// BackendName is the backend-kind selector for this signer.
const BackendName = "turnkey"

const (
	activitySignRawPayload      = "ACTIVITY_TYPE_SIGN_RAW_PAYLOAD_V2"
	activityCreateWalletAccount = "ACTIVITY_TYPE_CREATE_WALLET_ACCOUNTS"
	activityStatusCompleted     = "ACTIVITY_STATUS_COMPLETED"

	addressFormatCompressed = "ADDRESS_FORMAT_COMPRESSED"
	pathFormatBIP32         = "PATH_FORMAT_BIP32"
	payloadEncodingHex      = "PAYLOAD_ENCODING_HEXADECIMAL"

	accountPageSize = 100
)

// Signer routes every operation to the custody API. Resolved account
// addresses are cached per (curve, coinType) for the backend's lifetime.
type Signer struct {
	cfg    config.TurnkeySigner
	client *client

	mu       sync.Mutex
	accounts map[signer.CacheKey]string
}

// New constructs the Turnkey backend or fails with a configuration error.
func New(cfg config.TurnkeySigner) (*Signer, error) {
	if !cfg.Configured() {
		return nil, signer.NewConfigurationError(BackendName, "missing TURNKEY_* configuration")
	}
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Signer{cfg: cfg, client: c, accounts: make(map[signer.CacheKey]string)}, nil
}

// curveName maps the requested curve into the provider's curve enumeration.
func curveName(curve signer.Curve) (string, error) {
	switch curve {
	case signer.CurveSecp256k1:
		return "CURVE_SECP256K1", nil
	case signer.CurveEd25519:
		return "CURVE_ED25519", nil
	default:
		return "", signer.NewUnsupportedCurveError(BackendName, curve)
	}
}

// hashFunctionName maps the requested hash function into the provider's
// enumeration. ed25519 always maps to NOT_APPLICABLE: the service hashes
// internally or not at all depending on curve.
func hashFunctionName(hash signer.HashFunction, curve signer.Curve) (string, error) {
	if curve == signer.CurveEd25519 {
		return "HASH_FUNCTION_NOT_APPLICABLE", nil
	}
	switch hash {
	case signer.HashSHA256:
		return "HASH_FUNCTION_SHA256", nil
	case signer.HashKeccak256:
		return "HASH_FUNCTION_KECCAK256", nil
	case signer.HashNone:
		return "HASH_FUNCTION_NO_OP", nil
	default:
		return "", signer.NewUnsupportedHashError(BackendName, hash, curve)
	}
}

// PublicKey resolves (creating when needed) the remote account for the spec
// and returns its compressed public key bytes.
func (s *Signer) PublicKey(ctx context.Context, spec signer.SigningSpec) ([]byte, error) {
	address, err := s.accountFor(ctx, spec)
	if err != nil {
		return nil, err
	}
	return util.DecodeHex(address)
}

// Sign submits the raw hex payload to the remote signing activity and returns
// the (r, s, v?) triple. Each call may trigger a new remote ceremony.
func (s *Signer) Sign(ctx context.Context, payload []byte, spec signer.SigningSpec) (signer.RawSignature, error) {
	hashName, err := hashFunctionName(spec.HashFunction, spec.Curve)
	if err != nil {
		return signer.RawSignature{}, err
	}

	address, err := s.accountFor(ctx, spec)
	if err != nil {
		return signer.RawSignature{}, err
	}

	var resp signActivityResponse
	req := map[string]any{
		"type":           activitySignRawPayload,
		"timestampMs":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		"organizationId": s.cfg.OrganizationID,
		"parameters": map[string]any{
			"signWith":     address,
			"payload":      "0x" + util.StripHexPrefix(hexEncode(payload)),
			"encoding":     payloadEncodingHex,
			"hashFunction": hashName,
		},
	}
	if err := s.client.post(ctx, "/public/v1/submit/sign_raw_payload", req, &resp); err != nil {
		return signer.RawSignature{}, err
	}

	if resp.Activity.Status != activityStatusCompleted {
		reason := resp.Activity.Failure.Message
		if reason == "" {
			reason = resp.Activity.Status
		}
		return signer.RawSignature{}, signer.NewRemoteSigningError(BackendName, reason)
	}

	result := resp.Activity.Result.SignRawPayloadResult
	return signer.RawSignature{
		R: util.StripHexPrefix(result.R),
		S: util.StripHexPrefix(result.S),
		V: util.StripHexPrefix(result.V),
	}, nil
}

// accountFor returns the cached account address for (curve, coinType),
// scanning the paginated remote account list on first use and creating the
// account when no match exists.
func (s *Signer) accountFor(ctx context.Context, spec signer.SigningSpec) (string, error) {
	key := spec.Key()

	s.mu.Lock()
	address, ok := s.accounts[key]
	s.mu.Unlock()
	if ok {
		return address, nil
	}

	coinType, err := spec.CoinTypeUint32()
	if err != nil {
		return "", err
	}

	address, err = s.findAccount(ctx, spec.Curve, coinType)
	if err != nil {
		return "", err
	}
	if address == "" {
		address, err = s.createAccount(ctx, spec.Curve, coinType)
		if err != nil {
			return "", err
		}
		log.Info().
			Str("curve", string(spec.Curve)).
			Uint32("coin_type", coinType).
			Msg("Created new custody account")
	}

	s.mu.Lock()
	s.accounts[key] = address
	s.mu.Unlock()
	return address, nil
}

// findAccount scans the wallet's account pages for one whose derivation path
// embeds the coin type and whose address is in the expected compressed form.
func (s *Signer) findAccount(ctx context.Context, curve signer.Curve, coinType uint32) (string, error) {
	providerCurve, err := curveName(curve)
	if err != nil {
		return "", err
	}

	before := ""
	for {
		req := map[string]any{
			"organizationId": s.cfg.OrganizationID,
			"walletId":       s.cfg.WalletID,
			"paginationOptions": map[string]any{
				"limit": strconv.Itoa(accountPageSize),
			},
		}
		if before != "" {
			req["paginationOptions"].(map[string]any)["before"] = before
		}

		var resp listAccountsResponse
		if err := s.client.post(ctx, "/public/v1/query/list_wallet_accounts", req, &resp); err != nil {
			return "", err
		}

		for _, account := range resp.Accounts {
			if account.Curve != providerCurve || account.AddressFormat != addressFormatCompressed {
				continue
			}
			pathCoin, err := signer.CoinTypeFromPath(account.Path)
			if err != nil {
				continue
			}
			if pathCoin == coinType {
				return account.Address, nil
			}
		}

		if len(resp.Accounts) < accountPageSize {
			return "", nil
		}
		before = resp.Accounts[len(resp.Accounts)-1].WalletAccountID
	}
}

// createAccount provisions a new account at m/44'/{coinType}'/0'/0/0.
func (s *Signer) createAccount(ctx context.Context, curve signer.Curve, coinType uint32) (string, error) {
	providerCurve, err := curveName(curve)
	if err != nil {
		return "", err
	}

	req := map[string]any{
		"type":           activityCreateWalletAccount,
		"timestampMs":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		"organizationId": s.cfg.OrganizationID,
		"parameters": map[string]any{
			"walletId": s.cfg.WalletID,
			"accounts": []map[string]any{{
				"curve":         providerCurve,
				"pathFormat":    pathFormatBIP32,
				"path":          signer.DefaultAccountPath(coinType),
				"addressFormat": addressFormatCompressed,
			}},
		},
	}

	var resp createAccountsResponse
	if err := s.client.post(ctx, "/public/v1/submit/create_wallet_accounts", req, &resp); err != nil {
		return "", err
	}
	if resp.Activity.Status != activityStatusCompleted {
		reason := resp.Activity.Failure.Message
		if reason == "" {
			reason = resp.Activity.Status
		}
		return "", signer.NewRemoteSigningError(BackendName, reason)
	}

	addresses := resp.Activity.Result.CreateWalletAccountsResult.Addresses
	if len(addresses) == 0 {
		return "", signer.NewRemoteServiceError(BackendName, errors.New("account creation returned no address"))
	}
	return addresses[0], nil
}
