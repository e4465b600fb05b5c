// Package cache defines the storage contract the ingestion engine and the
// payload builder depend on. Concrete implementations live in
// internal/storagemongo (production) and internal/storagemem (tests).
package cache

import (
	"context"

	"github.com/ternarybob/mmreplicate/internal/model"
)

// Cache is the small CRUD contract the engine and payload builder depend
// on: get, put, updated_at. Implementations must be safe for concurrent use — the
// ingestion engine calls Put and Get from many goroutines at once.
type Cache interface {
	// Get returns the cached Object for (typ, id). ok is false iff no such
	// row exists; a non-nil error means a decode/IO failure occurred.
	Get(ctx context.Context, typ, id string) (obj model.Object, ok bool, err error)

	// Put upserts obj keyed by (type, id).
	Put(ctx context.Context, obj model.Object) error

	// UpdatedAt returns the maximum attrs.updated_at across
	// model.CacheableTypes, as Unix seconds, or ok=false if the cache holds
	// no cacheable row yet.
	UpdatedAt(ctx context.Context) (unixSeconds int64, ok bool, err error)
}
