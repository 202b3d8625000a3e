package dfns

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"sync"

	starkcurve "github.com/NethermindEth/starknet.go/curve"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/util"
)

// BackendName is the backend-kind selector for this signer.
const BackendName = "dfns"

const (
	signatureKindHash    = "Hash"
	signatureKindMessage = "Message"
	statusSigned         = "Signed"

	walletPageSize = 100
)

// walletHandle is the cached remote wallet for one (curve, coinType).
type walletHandle struct {
	id string
	// publicKey is canonical minimal-width hex without "0x".
	publicKey string
}

// Signer routes every operation to the custody API. Resolved wallet ids are
// cached per (curve, coinType) for the backend's lifetime.
type Signer struct {
	cfg    config.DfnsSigner
	client *client

	mu      sync.Mutex
	wallets map[signer.CacheKey]walletHandle
}

// New constructs the Dfns backend or fails with a configuration error.
func New(cfg config.DfnsSigner) (*Signer, error) {
	if !cfg.Configured() {
		return nil, signer.NewConfigurationError(BackendName, "missing DFNS_* configuration")
	}
	return &Signer{cfg: cfg, client: newClient(cfg), wallets: make(map[signer.CacheKey]walletHandle)}, nil
}

// schemeAndCurve maps the requested curve into the provider's (scheme, curve)
// vocabulary. This backend additionally supports the stark curve.
func schemeAndCurve(curve signer.Curve) (string, string, error) {
	switch curve {
	case signer.CurveSecp256k1:
		return "ECDSA", "secp256k1", nil
	case signer.CurveEd25519:
		return "EdDSA", "ed25519", nil
	case signer.CurveStark:
		return "ECDSA", "stark", nil
	default:
		return "", "", signer.NewUnsupportedCurveError(BackendName, curve)
	}
}

// PublicKey resolves (creating when needed) the remote wallet for the spec
// and returns its public key bytes.
func (s *Signer) PublicKey(ctx context.Context, spec signer.SigningSpec) ([]byte, error) {
	wallet, err := s.walletFor(ctx, spec)
	if err != nil {
		return nil, err
	}
	return util.DecodeHex(wallet.publicKey)
}

// Sign submits a hash (ecdsa-class) or message (eddsa-class) signature
// request and returns the raw (r, s, v?) triple.
func (s *Signer) Sign(ctx context.Context, payload []byte, spec signer.SigningSpec) (signer.RawSignature, error) {
	wallet, err := s.walletFor(ctx, spec)
	if err != nil {
		return signer.RawSignature{}, err
	}

	req, err := signatureRequestBody(payload, spec)
	if err != nil {
		return signer.RawSignature{}, err
	}

	var resp signatureResponse
	path := fmt.Sprintf("/wallets/%s/signatures", url.PathEscape(wallet.id))
	if err := s.client.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return signer.RawSignature{}, err
	}

	if resp.Status != statusSigned {
		reason := resp.Reason
		if reason == "" {
			reason = resp.Status
		}
		return signer.RawSignature{}, signer.NewRemoteSigningError(BackendName, reason)
	}

	raw := signer.RawSignature{
		R: util.StripHexPrefix(resp.Signature.R),
		S: util.StripHexPrefix(resp.Signature.S),
	}
	if resp.Signature.Recid != nil {
		raw.V = fmt.Sprintf("%02x", *resp.Signature.Recid+27)
	}
	return raw, nil
}

// signatureRequestBody converts the spec's hash policy into the provider's
// request vocabulary. eddsa-class wallets sign the raw message; ecdsa-class
// wallets sign a locally computed digest.
func signatureRequestBody(payload []byte, spec signer.SigningSpec) (map[string]any, error) {
	switch spec.Curve {
	case signer.CurveEd25519:
		return map[string]any{
			"kind":    signatureKindMessage,
			"message": "0x" + hex.EncodeToString(payload),
		}, nil

	case signer.CurveSecp256k1:
		var digest []byte
		switch spec.HashFunction {
		case signer.HashSHA256:
			sum := sha256.Sum256(payload)
			digest = sum[:]
		case signer.HashKeccak256:
			digest = ethcrypto.Keccak256(payload)
		case signer.HashNone:
			digest = payload
		default:
			return nil, signer.NewUnsupportedHashError(BackendName, spec.HashFunction, spec.Curve)
		}
		return map[string]any{
			"kind": signatureKindHash,
			"hash": "0x" + hex.EncodeToString(digest),
		}, nil

	case signer.CurveStark:
		if spec.HashFunction == signer.HashSHA512256 {
			return nil, signer.NewUnsupportedHashError(BackendName, spec.HashFunction, spec.Curve)
		}
		digest, err := starkcurve.Curve.PedersenHash([]*big.Int{
			new(big.Int).SetBytes(payload),
			big.NewInt(0),
		})
		if err != nil {
			return nil, errors.Wrap(err, "pedersen hashing failed")
		}
		return map[string]any{
			"kind": signatureKindHash,
			"hash": fmt.Sprintf("0x%064x", digest),
		}, nil

	default:
		return nil, signer.NewUnsupportedCurveError(BackendName, spec.Curve)
	}
}

// walletFor returns the cached wallet for (curve, coinType), scanning the
// paginated wallet list on first use and creating one when no match exists.
func (s *Signer) walletFor(ctx context.Context, spec signer.SigningSpec) (walletHandle, error) {
	key := spec.Key()

	s.mu.Lock()
	wallet, ok := s.wallets[key]
	s.mu.Unlock()
	if ok {
		return wallet, nil
	}

	coinType, err := spec.CoinTypeUint32()
	if err != nil {
		return walletHandle{}, err
	}

	wallet, found, err := s.findWallet(ctx, spec.Curve, coinType)
	if err != nil {
		return walletHandle{}, err
	}
	if !found {
		wallet, err = s.createWallet(ctx, spec.Curve, coinType)
		if err != nil {
			return walletHandle{}, err
		}
		log.Info().
			Str("curve", string(spec.Curve)).
			Uint32("coin_type", coinType).
			Str("wallet_id", wallet.id).
			Msg("Created new custody wallet")
	}

	s.mu.Lock()
	s.wallets[key] = wallet
	s.mu.Unlock()
	return wallet, nil
}

// findWallet scans wallet pages for one whose derivation path embeds the coin
// type and whose signing curve matches.
func (s *Signer) findWallet(ctx context.Context, curve signer.Curve, coinType uint32) (walletHandle, bool, error) {
	_, providerCurve, err := schemeAndCurve(curve)
	if err != nil {
		return walletHandle{}, false, err
	}

	pageToken := ""
	for {
		path := fmt.Sprintf("/wallets?limit=%d", walletPageSize)
		if pageToken != "" {
			path += "&paginationToken=" + url.QueryEscape(pageToken)
		}

		var resp listWalletsResponse
		if err := s.client.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			return walletHandle{}, false, err
		}

		for _, item := range resp.Items {
			if item.SigningKey.Curve != providerCurve {
				continue
			}
			pathCoin, err := signer.CoinTypeFromPath(item.DerivationPath)
			if err != nil {
				continue
			}
			if pathCoin == coinType {
				return s.toHandle(curve, item), true, nil
			}
		}

		if resp.NextPageToken == "" {
			return walletHandle{}, false, nil
		}
		pageToken = resp.NextPageToken
	}
}

// createWallet provisions a wallet at m/44'/{coinType}'/0'/0/0.
func (s *Signer) createWallet(ctx context.Context, curve signer.Curve, coinType uint32) (walletHandle, error) {
	scheme, providerCurve, err := schemeAndCurve(curve)
	if err != nil {
		return walletHandle{}, err
	}

	req := map[string]any{
		"scheme":         scheme,
		"curve":          providerCurve,
		"derivationPath": signer.DefaultAccountPath(coinType),
	}

	var resp walletItem
	if err := s.client.do(ctx, http.MethodPost, "/wallets", req, &resp); err != nil {
		return walletHandle{}, err
	}
	if resp.ID == "" {
		return walletHandle{}, signer.NewRemoteServiceError(BackendName, errors.New("wallet creation returned no id"))
	}
	return s.toHandle(curve, resp), nil
}

// toHandle normalizes the provider's public key representation. Stark keys
// come back non-canonically zero-padded and must be reduced to minimal-width
// hex before use.
func (s *Signer) toHandle(curve signer.Curve, item walletItem) walletHandle {
	publicKey := item.SigningKey.PublicKey
	if curve == signer.CurveStark {
		publicKey = util.MinimalHex(publicKey)
	}
	return walletHandle{
		id:        item.ID,
		publicKey: util.StripHexPrefix(publicKey),
	}
}
