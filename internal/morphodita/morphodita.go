// Package morphodita talks to the MorphoDiTa tagger, either through its
// REST service or through a local run_tagger process.
package morphodita

import (
	"context"
	"io"

	coczefla "github.com/VanaKraus/CoCzeFLA"
	"github.com/VanaKraus/CoCzeFLA/internal/config"
)

// Backend is a tagger handle that holds resources until closed.
type Backend interface {
	coczefla.Tagger
	io.Closer
}

// Open acquires the backend selected by cfg. The returned backend is meant
// to be shared by every file of a run.
func Open(ctx context.Context, cfg config.Tagger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendREST:
		return NewClient(cfg.Endpoint, cfg.Model, cfg.Timeout), nil
	case config.BackendProcess:
		return Start(ctx, cfg.Command, cfg.Tokenizer)
	}
	return nil, &coczefla.ConfigurationError{Setting: "tagger.backend", Message: "unknown backend " + cfg.Backend}
}
