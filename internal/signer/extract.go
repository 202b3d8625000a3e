package signer

import "github.com/AdamikHQ/go-signer-gateway/internal/util"

// Extract serializes a raw (r, s, v?) triple into the requested encoding.
// Any "0x" prefixes are stripped first. Shared by every backend so callers
// see identical serialization regardless of signing origin.
func Extract(format SignatureFormat, sig RawSignature) (string, error) {
	r := util.StripHexPrefix(sig.R)
	s := util.StripHexPrefix(sig.S)
	v := util.StripHexPrefix(sig.V)

	switch format {
	case FormatRS:
		return r + s, nil
	case FormatRSV:
		return r + s + v, nil
	default:
		return "", NewUnsupportedFormatError(format)
	}
}
