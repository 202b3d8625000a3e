package signer

import (
	"fmt"
	"strings"
)

// ErrorKind classifies signer failures so callers can distinguish caller
// mistakes from remote/protocol failures.
type ErrorKind int

const (
	ErrKindUnknown ErrorKind = iota
	// ErrKindConfiguration is fatal at construction; a backend must not
	// exist in a half-configured state.
	ErrKindConfiguration
	ErrKindUnsupportedCurve
	ErrKindUnsupportedHash
	ErrKindUnsupportedFormat
	ErrKindRemoteService
	ErrKindRemoteSigning
	ErrKindMpcTransport
	ErrKindMpcKeygen
	ErrKindMpcSigning
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindConfiguration:
		return "CONFIGURATION"
	case ErrKindUnsupportedCurve:
		return "UNSUPPORTED_CURVE"
	case ErrKindUnsupportedHash:
		return "UNSUPPORTED_HASH"
	case ErrKindUnsupportedFormat:
		return "UNSUPPORTED_FORMAT"
	case ErrKindRemoteService:
		return "REMOTE_SERVICE"
	case ErrKindRemoteSigning:
		return "REMOTE_SIGNING_FAILED"
	case ErrKindMpcTransport:
		return "MPC_TRANSPORT"
	case ErrKindMpcKeygen:
		return "MPC_KEYGEN_FAILED"
	case ErrKindMpcSigning:
		return "MPC_SIGNING_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Error is the typed error every backend surfaces. Reason carries the
// remote-supplied failure string where one exists.
type Error struct {
	Kind     ErrorKind
	Backend  string
	Message  string
	Reason   string
	Original error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s]", e.Kind.String()))
	if e.Backend != "" {
		sb.WriteString(fmt.Sprintf(" %s:", e.Backend))
	}
	sb.WriteString(" " + e.Message)
	if e.Reason != "" {
		sb.WriteString(fmt.Sprintf(" (reason: %s)", e.Reason))
	}
	if e.Original != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Original))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Original
}

// IsKind reports whether err is a signer *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if se, ok := err.(*Error); ok {
			return se.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewConfigurationError reports missing or malformed backend configuration.
func NewConfigurationError(backend, msg string) *Error {
	return &Error{Kind: ErrKindConfiguration, Backend: backend, Message: msg}
}

// NewUnsupportedCurveError reports a curve the backend cannot serve.
func NewUnsupportedCurveError(backend string, curve Curve) *Error {
	return &Error{Kind: ErrKindUnsupportedCurve, Backend: backend, Message: fmt.Sprintf("unsupported curve %q", curve)}
}

// NewUnsupportedHashError reports a (hash, curve) pair the backend cannot serve.
func NewUnsupportedHashError(backend string, hash HashFunction, curve Curve) *Error {
	return &Error{Kind: ErrKindUnsupportedHash, Backend: backend, Message: fmt.Sprintf("unsupported hash function %q for curve %q", hash, curve)}
}

// NewUnsupportedFormatError reports an unrecognized signature format.
func NewUnsupportedFormatError(format SignatureFormat) *Error {
	return &Error{Kind: ErrKindUnsupportedFormat, Message: fmt.Sprintf("unsupported signature format %q", format)}
}

// NewRemoteServiceError wraps a network or API failure from a custody service.
func NewRemoteServiceError(backend string, err error) *Error {
	return &Error{Kind: ErrKindRemoteService, Backend: backend, Message: "remote service call failed", Original: err}
}

// NewRemoteSigningError reports an explicit "not signed" outcome from a
// custody service, carrying the service-provided reason.
func NewRemoteSigningError(backend, reason string) *Error {
	return &Error{Kind: ErrKindRemoteSigning, Backend: backend, Message: "remote service refused to sign", Reason: reason}
}

// NewMpcTransportError reports an unreachable vertex or a non-success status
// during room creation or keygen initialization.
func NewMpcTransportError(backend string, err error) *Error {
	return &Error{Kind: ErrKindMpcTransport, Backend: backend, Message: "vertex call failed", Original: err}
}

// NewMpcKeygenError reports a keygen ceremony that did not complete across
// all vertices. Keygen requires unanimous success.
func NewMpcKeygenError(backend, msg string, err error) *Error {
	return &Error{Kind: ErrKindMpcKeygen, Backend: backend, Message: msg, Original: err}
}

// NewMpcSigningError reports a signing ceremony whose designated result is
// missing.
func NewMpcSigningError(backend, msg string) *Error {
	return &Error{Kind: ErrKindMpcSigning, Backend: backend, Message: msg}
}
