// Package backends wires the closed set of backend kinds to their
// constructors and configuration predicates.
package backends

import (
	"context"

	"github.com/AdamikHQ/go-signer-gateway/internal/config"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/dfns"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/local"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/sodot"
	"github.com/AdamikHQ/go-signer-gateway/internal/signer/turnkey"
)

// Factories returns one constructor per backend kind. Each factory fails
// with a configuration error rather than returning a half-initialized signer.
func Factories(cfg config.Server) map[signer.Kind]signer.Factory {
	return map[signer.Kind]signer.Factory{
		signer.KindLocal: func(ctx context.Context) (signer.Signer, error) {
			return local.New(cfg.Local)
		},
		signer.KindTurnkey: func(ctx context.Context) (signer.Signer, error) {
			return turnkey.New(cfg.Turnkey)
		},
		signer.KindDfns: func(ctx context.Context) (signer.Signer, error) {
			return dfns.New(cfg.Dfns)
		},
		signer.KindSodot: func(ctx context.Context) (signer.Signer, error) {
			return sodot.New(cfg.Sodot)
		},
	}
}

// Available returns the subset of backend kinds whose required configuration
// is present. The predicates never panic; missing or malformed configuration
// simply drops the kind from the list.
func Available(cfg config.Server) []signer.Kind {
	configured := map[signer.Kind]bool{
		signer.KindLocal:   cfg.Local.Configured(),
		signer.KindTurnkey: cfg.Turnkey.Configured(),
		signer.KindDfns:    cfg.Dfns.Configured(),
		signer.KindSodot:   cfg.Sodot.Configured(),
	}

	var kinds []signer.Kind
	for _, kind := range signer.Kinds() {
		if configured[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
