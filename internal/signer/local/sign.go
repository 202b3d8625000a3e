package local

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	starkcurve "github.com/NethermindEth/starknet.go/curve"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

// publicKey serializes the handle's public key in its canonical form.
func (h *keyHandle) publicKey() ([]byte, error) {
	switch h.curve {
	case signer.CurveSecp256k1:
		return h.secp.PubKey().SerializeCompressed(), nil
	case signer.CurveEd25519:
		return h.ed.Public().(ed25519.PublicKey), nil
	case signer.CurveStark:
		x, _, err := starkcurve.Curve.PrivateToPoint(h.stark)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compute stark public key")
		}
		return x.Bytes(), nil
	default:
		return nil, signer.NewUnsupportedCurveError(BackendName, h.curve)
	}
}

// sign applies the hash policy and signs the resulting digest.
func (h *keyHandle) sign(payload []byte, hash signer.HashFunction) (signer.RawSignature, error) {
	switch h.curve {
	case signer.CurveEd25519:
		// ed25519 signs the payload directly; the requested hash function is
		// ignored by design.
		sig := ed25519.Sign(h.ed, payload)
		return signer.RawSignature{
			R: hex.EncodeToString(sig[:32]),
			S: hex.EncodeToString(sig[32:]),
		}, nil

	case signer.CurveSecp256k1:
		digest, err := secpDigest(payload, hash)
		if err != nil {
			return signer.RawSignature{}, err
		}
		sig, err := ethcrypto.Sign(digest, h.secp.ToECDSA())
		if err != nil {
			return signer.RawSignature{}, errors.Wrap(err, "secp256k1 signing failed")
		}
		// go-ethereum returns [R || S || recovery id]; v is exposed as the
		// conventional 27/28 byte.
		return signer.RawSignature{
			R: hex.EncodeToString(sig[:32]),
			S: hex.EncodeToString(sig[32:64]),
			V: fmt.Sprintf("%02x", sig[64]+27),
		}, nil

	case signer.CurveStark:
		if hash == signer.HashSHA512256 {
			return signer.RawSignature{}, signer.NewUnsupportedHashError(BackendName, hash, h.curve)
		}
		// The stark curve always signs a pedersen-class digest, computed over
		// the payload and a fixed zero second input.
		digest, err := starkcurve.Curve.PedersenHash([]*big.Int{
			new(big.Int).SetBytes(payload),
			big.NewInt(0),
		})
		if err != nil {
			return signer.RawSignature{}, errors.Wrap(err, "pedersen hashing failed")
		}
		r, s, err := starkcurve.Curve.Sign(digest, h.stark)
		if err != nil {
			return signer.RawSignature{}, errors.Wrap(err, "stark signing failed")
		}
		return signer.RawSignature{
			R: fmt.Sprintf("%064x", r),
			S: fmt.Sprintf("%064x", s),
		}, nil

	default:
		return signer.RawSignature{}, signer.NewUnsupportedCurveError(BackendName, h.curve)
	}
}

// secpDigest applies the secp256k1 hash policy: sha256 and keccak256 digest
// the payload, none passes it through unhashed (it must then already be a
// 32-byte digest), pedersen is stark-only, and sha512_256 is unimplemented.
func secpDigest(payload []byte, hash signer.HashFunction) ([]byte, error) {
	switch hash {
	case signer.HashSHA256:
		sum := sha256.Sum256(payload)
		return sum[:], nil
	case signer.HashKeccak256:
		return ethcrypto.Keccak256(payload), nil
	case signer.HashNone:
		if len(payload) != 32 {
			return nil, errors.Errorf("unhashed secp256k1 payload must be 32 bytes, got %d", len(payload))
		}
		return payload, nil
	case signer.HashPedersen, signer.HashSHA512256:
		return nil, signer.NewUnsupportedHashError(BackendName, hash, signer.CurveSecp256k1)
	default:
		return nil, signer.NewUnsupportedHashError(BackendName, hash, signer.CurveSecp256k1)
	}
}
