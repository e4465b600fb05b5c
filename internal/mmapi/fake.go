package mmapi

import (
	"context"
	"sync"

	"github.com/ternarybob/mmreplicate/internal/ingesterr"
)

// FakeClient is a deterministic in-memory Client double, grounded on
// original_source's client/test.rs TestClient. That fixture recorded
// requested URLs and replayed a single canned response; this version
// generalizes it to per-URL programmed responses (via Set/SetDefault) since
// the ingestion-engine pagination tests need distinct bodies for distinct
// page URLs, not one fixed body for every request.
type FakeClient struct {
	mu        sync.Mutex
	Reqs      []string
	responses map[string]string
	def       string
	hasDef    bool
}

// NewFakeClient returns an empty FakeClient. Use Set to program a response
// for a specific URL, or SetDefault for a response every unprogrammed URL
// returns.
func NewFakeClient() *FakeClient {
	return &FakeClient{responses: make(map[string]string)}
}

// Set programs the body returned when url is requested exactly.
func (c *FakeClient) Set(url, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[url] = body
}

// SetDefault programs the body returned for any URL without a specific
// Set entry — used by tests to answer every URL they do not program
// individually with one fixed body, such as an empty collection.
func (c *FakeClient) SetDefault(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.def = body
	c.hasDef = true
}

// RequestedURLs returns a snapshot of every URL requested so far, in
// request order.
func (c *FakeClient) RequestedURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.Reqs))
	copy(out, c.Reqs)
	return out
}

func (c *FakeClient) URL(_ context.Context, url string) (string, error) {
	c.mu.Lock()
	c.Reqs = append(c.Reqs, url)
	body, ok := c.responses[url]
	def, hasDef := c.def, c.hasDef
	c.mu.Unlock()

	if ok {
		return body, nil
	}
	if hasDef {
		return def, nil
	}
	return "", ingesterr.New(ingesterr.KindResourceNotFound, url, nil)
}

func (c *FakeClient) AllShows(ctx context.Context) (string, error) {
	return c.URL(ctx, "all_shows")
}

func (c *FakeClient) Changes(ctx context.Context, sinceRFC3339 string) (string, error) {
	return c.URL(ctx, "changes?since="+sinceRFC3339)
}

func (c *FakeClient) Show(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "show/"+id)
}

func (c *FakeClient) Franchise(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "franchise/"+id)
}

func (c *FakeClient) Season(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "season/"+id)
}

func (c *FakeClient) Episode(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "episode/"+id)
}

func (c *FakeClient) Special(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "special/"+id)
}

func (c *FakeClient) Asset(ctx context.Context, id string) (string, error) {
	return c.URL(ctx, "asset/"+id)
}
