package ingest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mmreplicate/internal/config"
	"github.com/ternarybob/mmreplicate/internal/hooks"
	"github.com/ternarybob/mmreplicate/internal/mmapi"
	"github.com/ternarybob/mmreplicate/internal/model"
	"github.com/ternarybob/mmreplicate/internal/runtime"
	"github.com/ternarybob/mmreplicate/internal/storagemem"
)

func testEngine(t *testing.T, api mmapi.Client, enableHooks bool) (*Engine, *storagemem.Store) {
	t.Helper()
	store := storagemem.New()
	cfg := &config.Config{EnableHooks: enableHooks, ThreadPoolSize: 4}
	logger := arbor.NewLogger()
	dispatcher := hooks.NewDispatcher(nil, 0)
	rt := runtime.New(api, store, cfg, logger, dispatcher)
	pool := NewPool(4, logger)
	return New(rt, pool), store
}

func objDoc(typ, id, selfURL, updatedAt string) string {
	return fmt.Sprintf(`{"data":{"id":%q,"type":%q,"links":{"self":%q},"attributes":{"updated_at":%q,"title":%q}}}`,
		id, typ, selfURL, updatedAt, "t-"+id)
}

func collectionDoc(typ string, ids []string, selfURLs []string, firstURL string, perPage, count int) string {
	data := ""
	for i, id := range ids {
		if i > 0 {
			data += ","
		}
		data += fmt.Sprintf(`{"id":%q,"type":%q,"links":{"self":%q}}`, id, typ, selfURLs[i])
	}
	links := `{}`
	if firstURL != "" {
		links = fmt.Sprintf(`{"first":%q}`, firstURL)
	}
	return fmt.Sprintf(`{"data":[%s],"links":%s,"meta":{"pagination":{"per_page":%d,"count":%d}}}`, data, links, perPage, count)
}

func TestImportCollectionPaginationFanOut(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, _ := testEngine(t, fake, false)

	// Each of 3 pages returns 2 references; per_page=2, count=6 -> 3 page
	// requests. Every other URL (the shows' child collections) answers with
	// an empty collection, so recursion adds no passes and no failures.
	fake.SetDefault(collectionDoc("season", nil, nil, "", 50, 0))
	for k := 1; k <= 3; k++ {
		ids := []string{fmt.Sprintf("p%d-a", k), fmt.Sprintf("p%d-b", k)}
		urls := []string{"http://h/show/" + ids[0], "http://h/show/" + ids[1]}
		fake.Set(fmt.Sprintf("http://h/x?page=%d", k), collectionDoc("show", ids, urls, "", 2, 6))
		for i, id := range ids {
			fake.Set(urls[i], objDoc("show", id, urls[i], "2020-01-01T00:00:00Z"))
		}
	}

	outer := collectionDoc("show", nil, nil, "http://h/x", 2, 6)
	result := e.ImportBody(context.Background(), outer, true, 0)

	assert.Equal(t, Result{Passes: 6, Failures: 0}, result)

	requested := map[string]bool{}
	for _, u := range fake.Reqs {
		requested[u] = true
	}
	for k := 1; k <= 3; k++ {
		assert.True(t, requested[fmt.Sprintf("http://h/x?page=%d", k)], "page %d not requested", k)
	}
}

func TestFreshnessGateSkipsStaleObject(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, store := testEngine(t, fake, false)

	fake.Set("http://h/show/s1", objDoc("show", "s1", "http://h/show/s1", "2017-02-21T20:42:27Z"))
	ref := model.Reference{ID: "s1", Type: "show", SelfURL: "http://h/show/s1"}

	result := e.ImportReference(context.Background(), ref, false, 4102444800) // since = year 2100

	assert.Equal(t, Result{}, result)
	assert.Equal(t, 0, store.Len())
}

func TestFreshnessGateWritesOnSinceZero(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, store := testEngine(t, fake, false)

	fake.Set("http://h/show/s1", objDoc("show", "s1", "http://h/show/s1", "2017-02-21T20:42:27Z"))
	ref := model.Reference{ID: "s1", Type: "show", SelfURL: "http://h/show/s1"}

	result := e.ImportReference(context.Background(), ref, false, 0)

	assert.Equal(t, Result{Passes: 1}, result)
	require.Equal(t, 1, store.Len())
}

func TestChangelogDeleteReturnsZeroZero(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, _ := testEngine(t, fake, false)

	ref := model.Reference{
		ID:    "x",
		Type:  "show",
		Attrs: map[string]interface{}{"action": "delete"},
	}

	result := e.ImportReference(context.Background(), ref, true, 0)
	assert.Equal(t, Result{}, result)
}

func TestChangelogUpdateDoesNotRecurse(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, store := testEngine(t, fake, false)

	fake.Set("http://h/show/s1", objDoc("show", "s1", "http://h/show/s1", "2020-01-01T00:00:00Z"))
	// If the engine recursed into children despite action=="update", it
	// would request this URL; asserting it never does proves follow_refs
	// was forced false.
	fake.Set("http://h/show/s1seasons/?page-size=50", collectionDoc("season", []string{"leak"}, []string{"http://h/season/leak"}, "", 1, 1))

	ref := model.Reference{
		ID:      "s1",
		Type:    "show",
		SelfURL: "http://h/show/s1",
		Attrs:   map[string]interface{}{"action": "update"},
	}

	result := e.ImportReference(context.Background(), ref, true, 0)

	assert.Equal(t, Result{Passes: 1}, result)
	assert.Equal(t, 1, store.Len())
	for _, u := range fake.Reqs {
		assert.NotContains(t, u, "seasons")
	}
}

func TestImportObjectFansOutChildrenInParallel(t *testing.T) {
	fake := mmapi.NewFakeClient()
	e, store := testEngine(t, fake, false)

	fake.Set("http://h/show/s1", objDoc("show", "s1", "http://h/show/s1", "2020-01-01T00:00:00Z"))
	fake.Set("http://h/show/s1seasons/?page-size=50",
		collectionDoc("season", []string{"season-1"}, []string{"http://h/season/season-1"}, "", 1, 1))
	fake.Set("http://h/show/s1specials/?page-size=50", collectionDoc("special", nil, nil, "", 1, 0))
	fake.Set("http://h/show/s1assets/?page-size=50", collectionDoc("asset", nil, nil, "", 1, 0))
	fake.Set("http://h/season/season-1", objDoc("season", "season-1", "http://h/season/season-1", "2020-01-01T00:00:00Z"))

	ref := model.Reference{ID: "s1", Type: "show", SelfURL: "http://h/show/s1"}
	result := e.ImportReference(context.Background(), ref, true, 0)

	assert.Equal(t, 2, result.Passes)
	assert.Equal(t, 2, store.Len())
}
