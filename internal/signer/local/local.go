// Package local implements the seed-derived signing backend. Keys are
// derived directly from a caller-supplied mnemonic; no remote service is
// ever contacted.
package local

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tyler-smith/go-bip39"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// BackendName is the backend-kind selector for this signer.
const BackendName = "local"

// Signer derives and holds key material for the process lifetime. Derived
// keys are memoized by (curve, coinType) and never evicted; the set of
// distinct pairs per session is small and caller-controlled.
type Signer struct {
	mnemonic string
	seed     []byte

	mu   sync.Mutex
	keys map[signer.CacheKey]*keyHandle
}

// New constructs the local backend. The mnemonic must be a valid BIP39
// phrase; a missing or malformed one is a fatal configuration error.
func New(cfg config.LocalSigner) (*Signer, error) {
	if !cfg.Configured() {
		return nil, signer.NewConfigurationError(BackendName, "missing seed phrase (UNSECURE_LOCAL_SEED)")
	}
	if !bip39.IsMnemonicValid(cfg.Mnemonic) {
		return nil, signer.NewConfigurationError(BackendName, "seed phrase is not a valid BIP39 mnemonic")
	}

	return &Signer{
		mnemonic: cfg.Mnemonic,
		seed:     bip39.NewSeed(cfg.Mnemonic, ""),
		keys:     make(map[signer.CacheKey]*keyHandle),
	}, nil
}

// PublicKey returns the derived public key for the given spec.
// secp256k1 keys are returned in 33-byte compressed form, ed25519 keys as
// the 32-byte encoded point, stark keys as the minimal big-endian x
// coordinate.
func (s *Signer) PublicKey(ctx context.Context, spec signer.SigningSpec) ([]byte, error) {
	handle, err := s.keyFor(spec)
	if err != nil {
		return nil, err
	}
	return handle.publicKey()
}

// Sign hashes payload according to the spec's hash policy and signs it with
// the derived key. Deterministic where the underlying algorithm is (RFC6979
// nonces for secp256k1 and stark, ed25519 by construction).
func (s *Signer) Sign(ctx context.Context, payload []byte, spec signer.SigningSpec) (signer.RawSignature, error) {
	handle, err := s.keyFor(spec)
	if err != nil {
		return signer.RawSignature{}, err
	}

	sig, err := handle.sign(payload, spec.HashFunction)
	if err != nil {
		return signer.RawSignature{}, err
	}

	log.Debug().
		Str("curve", string(spec.Curve)).
		Str("coin_type", spec.CoinType).
		Msg("Payload signed locally")
	return sig, nil
}

// keyFor returns the memoized key handle for (curve, coinType), deriving it
// on first use. Derivation runs outside the lock; a concurrent duplicate
// derivation is benign (identical result, wasted work at worst).
func (s *Signer) keyFor(spec signer.SigningSpec) (*keyHandle, error) {
	key := spec.Key()

	s.mu.Lock()
	handle, ok := s.keys[key]
	s.mu.Unlock()
	if ok {
		return handle, nil
	}

	coinType, err := spec.CoinTypeUint32()
	if err != nil {
		return nil, err
	}

	handle, err = s.derive(spec.Curve, coinType)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.keys[key]; ok {
		handle = existing
	} else {
		s.keys[key] = handle
	}
	s.mu.Unlock()

	log.Debug().
		Str("curve", string(spec.Curve)).
		Uint32("coin_type", coinType).
		Msg("Derived new local key")
	return handle, nil
}
