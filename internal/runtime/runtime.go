// Package runtime defines the immutable context threaded into every import
// call. Grounded on original_source's runtime.rs Runtime{api, config,
// store, verbose}, extended with an explicit logger so no component ever
// reaches for a package-level global.
package runtime

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mmreplicate/internal/cache"
	"github.com/ternarybob/mmreplicate/internal/config"
	"github.com/ternarybob/mmreplicate/internal/hooks"
	"github.com/ternarybob/mmreplicate/internal/mmapi"
)

// Runtime is the read-only bundle {api, cache, config, logger, dispatcher}.
// Every ingestion-engine function takes a *Runtime and never reaches for
// package-level state.
type Runtime struct {
	API        mmapi.Client
	Cache      cache.Cache
	Config     *config.Config
	Logger     arbor.ILogger
	Dispatcher *hooks.Dispatcher
}

// New builds a Runtime. Construction happens once at startup; the result is
// never mutated afterward.
func New(api mmapi.Client, c cache.Cache, cfg *config.Config, logger arbor.ILogger, dispatcher *hooks.Dispatcher) *Runtime {
	return &Runtime{API: api, Cache: c, Config: cfg, Logger: logger, Dispatcher: dispatcher}
}
