package signer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Kind identifies one of the closed set of signing backends.
type Kind string

const (
	KindLocal   Kind = "local"
	KindTurnkey Kind = "turnkey"
	KindDfns    Kind = "dfns"
	KindSodot   Kind = "sodot"
)

// Kinds is the closed backend set in presentation order.
func Kinds() []Kind {
	return []Kind{KindLocal, KindTurnkey, KindDfns, KindSodot}
}

// ParseKind validates a backend-kind selector string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLocal, KindTurnkey, KindDfns, KindSodot:
		return Kind(s), nil
	default:
		return "", errors.Errorf("unknown backend kind %q", s)
	}
}

// Factory constructs a backend instance. It must fail with a configuration
// error rather than return a partially initialized signer.
type Factory func(ctx context.Context) (Signer, error)

// ConflictError reports a connect call for a kind other than the one already
// active. It names the connected kind so the caller can tell what it would
// be switching away from.
type ConflictError struct {
	Active    Kind
	Requested Kind
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: backend %q is already connected (requested %q)", e.Active, e.Requested)
}

// Session enforces at most one connected backend per process. It is created
// once, lives for the process duration and is never reset: a conversational
// caller must not be able to silently switch backends mid-session.
type Session struct {
	mu        sync.Mutex
	factories map[Kind]Factory
	kind      Kind
	active    Signer
}

// NewSession creates the process-wide session over the given backend factories.
func NewSession(factories map[Kind]Factory) *Session {
	return &Session{factories: factories}
}

// Connect instantiates the backend of the requested kind. If a backend is
// already connected the call is a no-op iff the requested kind matches,
// otherwise it fails naming the already-connected kind.
func (s *Session) Connect(ctx context.Context, kind Kind) error {
	factory, ok := s.factories[kind]
	if !ok {
		return errors.Errorf("unknown backend kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		if s.kind == kind {
			log.Debug().Str("backend", string(kind)).Msg("Backend already connected, no-op")
			return nil
		}
		return &ConflictError{Active: s.kind, Requested: kind}
	}

	backend, err := factory(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to connect backend %q", kind)
	}

	s.kind = kind
	s.active = backend
	log.Info().Str("backend", string(kind)).Msg("Signing backend connected")
	return nil
}

// Current returns the active backend, its kind, and whether one is connected.
func (s *Session) Current() (Signer, Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.kind, s.active != nil
}
