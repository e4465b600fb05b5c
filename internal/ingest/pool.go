// Package ingest holds the bounded-recursion worker pool and the
// recursive ingestion engine built on top of it.
package ingest

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mmreplicate/internal/common"
)

// Pool runs at most N submitted functions concurrently, and — unlike the
// teacher's internal/services/workers/pool.go, which blocks Submit on a
// fixed-size buffered channel — never deadlocks when a running task itself
// submits more work and waits for it. Go always spawns its goroutine
// immediately; only the semaphore acquisition inside that goroutine is
// bounded, so an unbounded number of tasks can be "pending" at once while
// at most N actually execute.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger arbor.ILogger
}

// NewPool returns a Pool that runs at most n functions at a time. n <= 0 is
// not checked here: with no slots, no submitted function ever runs. The CLI
// never passes such a value, since config validation rejects a
// non-positive thread_pool_size.
func NewPool(n int, logger arbor.ILogger) *Pool {
	return &Pool{sem: make(chan struct{}, n), logger: logger}
}

// Go spawns fn to run once a slot is free. It returns immediately; the
// spawned goroutine blocks on the semaphore, not the caller. Panics inside
// fn are recovered and logged, never crashing the run.
func (p *Pool) Go(fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		common.SafeGoSync(p.logger, "ingest.Pool", fn)
	}()
}

// Wait blocks until every Go call so far, including those transitively
// spawned by other pool tasks, has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// poolCall runs fn under the pool's bound and returns its result to the
// caller synchronously. Critically, the calling goroutine is NOT itself
// holding a pool slot while it waits on the result channel below — only
// the goroutine p.Go spawns holds one, and only for fn's duration. That is
// what lets an engine function block on poolCall and then fan out further
// recursive work afterward without ever deadlocking the pool: "waiting for
// children" never consumes one of the N execution slots, only the leaf I/O
// calls wrapped in poolCall do.
func poolCall[T any](p *Pool, fn func() T) T {
	ch := make(chan T, 1)
	p.Go(func() { ch <- fn() })
	return <-ch
}
