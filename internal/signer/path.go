package signer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// HardenedKeyStart marks the first hardened child index per BIP32.
const HardenedKeyStart uint32 = 0x80000000

// ParseDerivationPath parses a BIP32 path such as "m/44'/60'/0'/0/0" into
// child indices. Hardened segments may be marked with ' or h. A path is valid
// iff it starts with "m/", has at least two segments after m, and every
// segment (hardened marker stripped) parses as a non-negative integer.
func ParseDerivationPath(path string) ([]uint32, error) {
	if !strings.HasPrefix(path, "m/") {
		return nil, errors.Errorf("derivation path must start with m/: %q", path)
	}

	parts := strings.Split(path, "/")[1:]
	if len(parts) < 2 {
		return nil, errors.Errorf("derivation path too short: %q", path)
	}

	indices := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := false
		if strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h") {
			hardened = true
			part = part[:len(part)-1]
		}
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil || n >= uint64(HardenedKeyStart) {
			return nil, errors.Errorf("invalid derivation path segment %q in %q", part, path)
		}
		idx := uint32(n)
		if hardened {
			idx |= HardenedKeyStart
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// CoinTypeFromPath extracts the BIP44 coin type (second segment, hardened
// marker stripped) from a derivation path.
func CoinTypeFromPath(path string) (uint32, error) {
	indices, err := ParseDerivationPath(path)
	if err != nil {
		return 0, err
	}
	return indices[1] &^ HardenedKeyStart, nil
}

// DefaultAccountPath is the shared BIP44 path used for the given coin type:
// m/44'/{coinType}'/0'/0/0.
func DefaultAccountPath(coinType uint32) string {
	return fmt.Sprintf("m/44'/%d'/0'/0/0", coinType)
}

// DefaultAccountIndices is DefaultAccountPath as raw path components
// [44, coinType, 0, 0, 0], the form the MPC vertices consume.
func DefaultAccountIndices(coinType uint32) []uint32 {
	return []uint32{44, coinType, 0, 0, 0}
}
