// Package mmapi is the upstream "Media Manager" API client: all_shows,
// changes, url, and direct fetch-by-id for every recognized type. Two
// implementations exist: SignedClient talks
// to a real signed HTTP endpoint; FakeClient is a deterministic in-memory
// double used throughout the ingestion-engine test suite.
package mmapi

import "context"

// Client is the capability set the ingestion engine and CLI consume.
// AllShows and Changes return the raw JSON:API response body; URL fetches
// any fully-qualified URL the engine constructs during pagination/child
// recursion; the by-id methods back single-root seeding and -q/--query.
type Client interface {
	AllShows(ctx context.Context) (string, error)
	Changes(ctx context.Context, sinceRFC3339 string) (string, error)
	URL(ctx context.Context, url string) (string, error)

	Show(ctx context.Context, id string) (string, error)
	Franchise(ctx context.Context, id string) (string, error)
	Season(ctx context.Context, id string) (string, error)
	Episode(ctx context.Context, id string) (string, error)
	Special(ctx context.Context, id string) (string, error)
	Asset(ctx context.Context, id string) (string, error)
}
