package local

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/btcec/v2"
	starkcurve "github.com/NethermindEth/starknet.go/curve"
	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
)

const (
	// slip10Ed25519Key is the HMAC key for the SLIP-0010 ed25519 master node.
	slip10Ed25519Key = "ed25519 seed"

	// tonCoinType selects the TON key schedule instead of SLIP-0010. TON-class
	// chains define their own non-SLIP10 KDF; this split is policy, not an
	// oversight.
	tonCoinType = 607
	tonSeedSalt = "TON default seed"
	tonPBKDF2Iterations = 100000
)

// keyHandle owns one derived key. Exactly one of the key fields is set,
// matching the curve.
type keyHandle struct {
	curve signer.Curve

	secp  *btcec.PrivateKey
	ed    ed25519.PrivateKey
	stark *big.Int
}

// derive produces the key handle for (curve, coinType) from the backend seed.
func (s *Signer) derive(curve signer.Curve, coinType uint32) (*keyHandle, error) {
	switch curve {
	case signer.CurveSecp256k1:
		priv, err := s.deriveSecp256k1(coinType)
		if err != nil {
			return nil, err
		}
		return &keyHandle{curve: curve, secp: priv}, nil

	case signer.CurveEd25519:
		priv, err := s.deriveEd25519(coinType)
		if err != nil {
			return nil, err
		}
		return &keyHandle{curve: curve, ed: priv}, nil

	case signer.CurveStark:
		priv, err := s.deriveStark(coinType)
		if err != nil {
			return nil, err
		}
		return &keyHandle{curve: curve, stark: priv}, nil

	default:
		return nil, signer.NewUnsupportedCurveError(BackendName, curve)
	}
}

// deriveSecp256k1 walks the standard BIP32 path m/44'/{coinType}'/0'/0/0.
func (s *Signer) deriveSecp256k1(coinType uint32) (*btcec.PrivateKey, error) {
	master, err := hdkeychain.NewMaster(s.seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build BIP32 master key")
	}

	indices := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		0,
	}

	node := master
	for _, idx := range indices {
		node, err = node.Derive(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to derive child %d", idx)
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to extract secp256k1 private key")
	}
	return priv, nil
}

// deriveEd25519 produces an ed25519 key. Coin type 607 uses the TON key
// schedule (chain-specific KDF, no path derivation); every other coin type
// uses SLIP-0010 hardened derivation over m/44'/{coinType}'/0'/0'/0'.
func (s *Signer) deriveEd25519(coinType uint32) (ed25519.PrivateKey, error) {
	if coinType == tonCoinType {
		return s.deriveTON(), nil
	}

	key, chainCode := slip10MasterKey(s.seed)
	indices := []uint32{44, coinType, 0, 0, 0}
	for _, idx := range indices {
		key, chainCode = slip10ChildKey(key, chainCode, signer.HardenedKeyStart+idx)
	}
	return ed25519.NewKeyFromSeed(key), nil
}

// deriveTON feeds the mnemonic through the TON KDF: HMAC-SHA512 over the
// phrase, then PBKDF2-SHA512 with the TON salt, of which the first 32 bytes
// become the ed25519 seed directly.
func (s *Signer) deriveTON() ed25519.PrivateKey {
	mac := hmac.New(sha512.New, []byte(s.mnemonic))
	mac.Write([]byte(""))
	entropy := mac.Sum(nil)

	seed := pbkdf2.Key(entropy, []byte(tonSeedSalt), tonPBKDF2Iterations, 64, sha512.New)
	return ed25519.NewKeyFromSeed(seed[:32])
}

// deriveStark derives a secp256k1 key at m/44'/{coinType}'/0'/0/0, hashes the
// private scalar with SHA-256 and reduces the digest into the valid stark
// private-key range [1, order-1] via x mod (order-1) + 1. The modulus and
// offset must not change: they decide every derived key.
func (s *Signer) deriveStark(coinType uint32) (*big.Int, error) {
	secp, err := s.deriveSecp256k1(coinType)
	if err != nil {
		return nil, err
	}
	return starkKeyFromSecp(secp.Serialize()), nil
}

// starkKeyFromSecp performs the SHA-256 + modular reduction step on a 32-byte
// secp256k1 private scalar.
func starkKeyFromSecp(secpPriv []byte) *big.Int {
	digest := sha256.Sum256(secpPriv)

	orderMinusOne := new(big.Int).Sub(starkcurve.Curve.N, big.NewInt(1))
	key := new(big.Int).SetBytes(digest[:])
	key.Mod(key, orderMinusOne)
	key.Add(key, big.NewInt(1))
	return key
}

// slip10MasterKey computes the SLIP-0010 ed25519 master node from a seed.
func slip10MasterKey(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, []byte(slip10Ed25519Key))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// slip10ChildKey computes a hardened SLIP-0010 ed25519 child. Non-hardened
// derivation is undefined for ed25519 under SLIP-0010, so callers always set
// the hardened bit.
func slip10ChildKey(key, chainCode []byte, index uint32) (childKey, childChainCode []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)

	var ser [4]byte
	binary.BigEndian.PutUint32(ser[:], index)
	data = append(data, ser[:]...)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
