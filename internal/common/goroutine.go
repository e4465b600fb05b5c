// -----------------------------------------------------------------------
// Safe goroutine - panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

// goroutineCounter tracks goroutines spawned via SafeGo, for diagnostics.
var goroutineCounter int64

// GetGoroutineCount returns the number of goroutines spawned via SafeGo.
func GetGoroutineCount() int64 {
	return atomic.LoadInt64(&goroutineCounter)
}

// SafeGo runs fn in a goroutine with panic recovery. A panic is logged
// through logger and does not crash the process. Used by the ingestion
// engine's fan-out (internal/ingest) so one misbehaving fetch/parse/dispatch
// never takes the whole run down.
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("recovered from panic in goroutine")
				} else {
					fmt.Printf("panic in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}
			}
		}()

		fn()
	}()
}

// SafeGoSync runs fn synchronously in the calling goroutine with panic
// recovery, logging through logger instead of letting the panic propagate.
// Use this (rather than SafeGo) when the caller already owns a goroutine it
// manages itself — e.g. internal/ingest.Pool, which spawns its own
// goroutine per task and only needs the recover, not a second goroutine.
func SafeGoSync(logger arbor.ILogger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stackTrace := GetStackTrace()
			if logger != nil {
				logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", stackTrace).
					Msg("recovered from panic in goroutine")
			} else {
				fmt.Printf("panic in goroutine %s: %v\n%s\n", name, r, stackTrace)
			}
		}
	}()
	fn()
}

// SafeGoWithContext is SafeGo with an early-exit check: fn never starts if
// ctx is already done when the goroutine is scheduled.
func SafeGoWithContext(ctx context.Context, logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutineCounter, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("recovered from panic in goroutine")
				}
			}
		}()

		select {
		case <-ctx.Done():
			if logger != nil {
				logger.Debug().Str("goroutine", name).Msg("goroutine cancelled before start")
			}
			return
		default:
		}

		fn()
	}()
}
