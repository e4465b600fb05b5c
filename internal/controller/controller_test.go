package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mmreplicate/internal/config"
	"github.com/ternarybob/mmreplicate/internal/hooks"
	"github.com/ternarybob/mmreplicate/internal/ingest"
	"github.com/ternarybob/mmreplicate/internal/mmapi"
	"github.com/ternarybob/mmreplicate/internal/model"
	"github.com/ternarybob/mmreplicate/internal/runtime"
	"github.com/ternarybob/mmreplicate/internal/storagemem"
)

type fixedClock struct {
	now     time.Time
	slept   []time.Duration
	onSleep func()
}

func (c *fixedClock) Now() time.Time { return c.now }
func (c *fixedClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	if c.onSleep != nil {
		c.onSleep()
	}
}

func testController(t *testing.T, cfg *config.Config, clock Clock) (*Controller, *storagemem.Store, *mmapi.FakeClient) {
	t.Helper()
	store := storagemem.New()
	fake := mmapi.NewFakeClient()
	logger := arbor.NewLogger()
	rt := runtime.New(fake, store, cfg, logger, hooks.NewDispatcher(nil, 0))
	pool := ingest.NewPool(4, logger)
	engine := ingest.New(rt, pool)
	return New(engine, store, cfg, logger, clock), store, fake
}

func TestInitialResumeUsesCacheWatermarkWhenStartTimeTooOld(t *testing.T) {
	cfg := &config.Config{MM: config.MMConfig{ChangelogMaxTimespan: 100}}
	now := time.Unix(10_000, 0).UTC()
	clock := &fixedClock{now: now}
	ctl, store, _ := testController(t, cfg, clock)

	require.NoError(t, store.Put(context.Background(), model.Object{
		ID:   "s1",
		Type: "show",
		Attrs: map[string]interface{}{
			"updated_at": "2020-01-01T00:00:02Z",
		},
	}))

	resume := ctl.InitialResume(context.Background(), 0, 0)

	watermark, ok, err := store.UpdatedAt(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, watermark, resume)
}

func TestInitialResumeFallsBackToLookbackFloorWhenCacheEmpty(t *testing.T) {
	cfg := &config.Config{MM: config.MMConfig{ChangelogMaxTimespan: 100}}
	now := time.Unix(10_000, 0).UTC()
	clock := &fixedClock{now: now}
	ctl, _, _ := testController(t, cfg, clock)

	resume := ctl.InitialResume(context.Background(), 0, 0)

	assert.Equal(t, now.Unix()-100, resume)
}

func TestInitialResumeUsesStartTimePlusBuildDuration(t *testing.T) {
	cfg := &config.Config{MM: config.MMConfig{ChangelogMaxTimespan: 100}}
	now := time.Unix(10_000, 0).UTC()
	clock := &fixedClock{now: now}
	ctl, _, _ := testController(t, cfg, clock)

	resume := ctl.InitialResume(context.Background(), 9_950, 5*time.Second)

	assert.Equal(t, int64(9_955), resume)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	cfg := &config.Config{MinRuntimeDelta: 60, LookbackTimeframe: 10}
	clock := &fixedClock{now: time.Unix(0, 0).UTC()}
	ctl, _, fake := testController(t, cfg, clock)
	fake.SetDefault(`{"data":[],"links":{},"meta":{"pagination":{"per_page":50,"count":0}}}`)

	ctx, cancel := context.WithCancel(context.Background())
	clock.onSleep = cancel

	done := make(chan struct{})
	go func() {
		ctl.Run(ctx, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	assert.NotEmpty(t, clock.slept)
}
