// Package controller drives the update-window cadence loop: the portion of
// the run that keeps calling api.changes(since) on a schedule after an
// optional initial build. The cadence algorithm has no counterpart in
// original_source (whose only loop has no timing or resume logic); it is
// built around arbor logging and ingest.Engine.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mmreplicate/internal/cache"
	"github.com/ternarybob/mmreplicate/internal/config"
	"github.com/ternarybob/mmreplicate/internal/ingest"
)

// Clock abstracts wall-clock time so tests can drive the loop deterministically.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// systemClock is the production Clock.
type systemClock struct{}

func (systemClock) Now() time.Time     { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the production Clock backed by the real wall clock.
func SystemClock() Clock { return systemClock{} }

// Controller computes the initial resume timestamp and drives the update
// loop.
type Controller struct {
	engine *ingest.Engine
	cache  cache.Cache
	cfg    *config.Config
	logger arbor.ILogger
	clock  Clock
}

// New builds a Controller. clock defaults to SystemClock() if nil.
func New(engine *ingest.Engine, c cache.Cache, cfg *config.Config, logger arbor.ILogger, clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock()
	}
	return &Controller{engine: engine, cache: c, cfg: cfg, logger: logger, clock: clock}
}

// InitialResume computes the starting value of `resume` per the update-window
// rule: if the operator-provided start time tArg is older than
// now - changelog_max_timespan, resume from the later of the cache
// high-watermark and now - M (just now - M if the cache is empty or its
// lookup fails); otherwise resume from tArg plus however
// long the preceding build took.
func (c *Controller) InitialResume(ctx context.Context, tArg int64, buildDuration time.Duration) int64 {
	now := c.clock.Now().Unix()
	m := c.cfg.MM.ChangelogMaxTimespan

	if tArg < now-m {
		watermark, ok, err := c.cache.UpdatedAt(ctx)
		if err != nil {
			c.logger.Warn().Str("error", err.Error()).Msg("cache updated_at lookup failed, using lookback floor")
			ok = false
		}
		floor := now - m
		if ok && watermark > floor {
			return watermark
		}
		return floor
	}

	return tArg + int64(buildDuration.Seconds())
}

// Run enters the cadence loop: call api.changes(since=resume), rotate
// resume to the time this iteration started, and sleep the
// remainder of min_runtime_delta minus lookback_timeframe. It returns only
// when ctx is cancelled.
func (c *Controller) Run(ctx context.Context, resume int64) {
	minDelta := time.Duration(c.cfg.MinRuntimeDelta) * time.Second
	lookback := time.Duration(c.cfg.LookbackTimeframe) * time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		iterationStart := c.clock.Now()
		nextRun := iterationStart.Add(minDelta).Add(-lookback)

		since := time.Unix(resume, 0).UTC().Format(time.RFC3339)
		c.logger.Info().Str("since", since).Msg("starting update-window import")

		result := c.importChanges(ctx, since)

		took := int64(c.clock.Now().Sub(iterationStart).Seconds())
		c.logger.Info().
			Int("passes", result.Passes).
			Int("failures", result.Failures).
			Msg(fmt.Sprintf("update run took %d seconds with %d successes and %d failures.", took, result.Passes, result.Failures))

		resume = iterationStart.Unix()

		sleep := nextRun.Sub(c.clock.Now())
		if sleep > 0 {
			select {
			case <-ctx.Done():
				return
			default:
				c.clock.Sleep(sleep)
			}
		}
	}
}

func (c *Controller) importChanges(ctx context.Context, since string) ingest.Result {
	body, err := c.engine.Runtime().API.Changes(ctx, since)
	if err != nil {
		c.logger.Warn().Str("since", since).Str("error", err.Error()).Msg("changes() fetch failed")
		return ingest.Result{Failures: 1}
	}
	return c.engine.ImportBody(ctx, body, true, resumeSinceUnix(since))
}

func resumeSinceUnix(since string) int64 {
	t, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return 0
	}
	return t.Unix()
}
