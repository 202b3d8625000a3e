package signer

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
)

// Curve is the elliptic-curve family used for key generation and signing.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
	CurveEd25519   Curve = "ed25519"
	CurveStark     Curve = "stark"
)

// HashFunction is the digest applied to a payload before signing.
type HashFunction string

const (
	HashSHA256    HashFunction = "sha256"
	HashKeccak256 HashFunction = "keccak256"
	HashSHA512256 HashFunction = "sha512_256"
	HashPedersen  HashFunction = "pedersen"
	HashNone      HashFunction = "none"
)

// SignatureFormat is the caller-facing serialization of a raw signature.
type SignatureFormat string

const (
	FormatRS  SignatureFormat = "rs"
	FormatRSV SignatureFormat = "rsv"
)

// SigningSpec describes what to sign with. It is constructed per call and
// validated at sign time, not at construction.
type SigningSpec struct {
	Curve           Curve
	HashFunction    HashFunction
	SignatureFormat SignatureFormat
	// CoinType is the string-encoded BIP44 coin type (e.g. "60").
	CoinType string
}

// CoinTypeUint32 parses the string-encoded BIP44 coin type.
func (s SigningSpec) CoinTypeUint32() (uint32, error) {
	n, err := strconv.ParseUint(s.CoinType, 10, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid coin type %q", s.CoinType)
	}
	return uint32(n), nil
}

// CacheKey identifies a derived key/account handle within a backend.
type CacheKey struct {
	Curve    Curve
	CoinType string
}

// Key returns the memoization key for this spec.
func (s SigningSpec) Key() CacheKey {
	return CacheKey{Curve: s.Curve, CoinType: s.CoinType}
}

// RawSignature is the canonical interchange shape between every backend and
// the extraction utility. All fields are hex without a "0x" prefix.
type RawSignature struct {
	R string
	S string
	V string
}

// Signer is the capability contract every backend implements.
type Signer interface {
	// PublicKey returns the public key bytes for the given spec. Idempotent,
	// memoized by (curve, coinType).
	PublicKey(ctx context.Context, spec SigningSpec) ([]byte, error)

	// Sign signs payload according to spec and returns the raw signature.
	// Custodial and MPC backends may trigger a new remote ceremony per call.
	Sign(ctx context.Context, payload []byte, spec SigningSpec) (RawSignature, error)
}
