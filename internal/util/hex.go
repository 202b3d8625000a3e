package util

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// StripHexPrefix removes a leading "0x" or "0X" from s if present.
func StripHexPrefix(s string) string {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// DecodeHex decodes a hex string that may carry a "0x" prefix. An odd-length
// string is left-padded with a single zero nibble before decoding.
func DecodeHex(s string) ([]byte, error) {
	s = StripHexPrefix(s)
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex payload")
	}
	return b, nil
}

// MinimalHex strips the "0x" prefix and any leading zero bytes, returning the
// shortest even-length lowercase hex representation re-prefixed with "0x".
// Remote services sometimes return zero-padded keys; this produces the
// canonical minimal-width form.
func MinimalHex(s string) string {
	h := strings.ToLower(StripHexPrefix(s))
	if len(h)%2 == 1 {
		h = "0" + h
	}
	for len(h) > 2 && h[:2] == "00" {
		h = h[2:]
	}
	if h == "" {
		h = "00"
	}
	return "0x" + h
}
