package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/mmreplicate/internal/model"
	"github.com/ternarybob/mmreplicate/internal/storagemem"
)

func TestBuildPayloadFlattensAndEmbedsParent(t *testing.T) {
	store := storagemem.New()
	ctx := context.Background()

	franchise := model.Object{
		ID:   "p",
		Type: "franchise",
		Attrs: map[string]interface{}{
			"updated_at": "2020-01-01T00:00:00Z",
			"name":       "Nature",
		},
	}
	require.NoError(t, store.Put(ctx, franchise))

	show := model.Object{
		ID:   "show-1",
		Type: "show",
		Attrs: map[string]interface{}{
			"updated_at": "2020-01-02T00:00:00Z",
			"title":      "Nova",
			"franchise":  map[string]interface{}{"id": "p", "type": "franchise"},
		},
	}

	payload := BuildPayload(ctx, store, show)

	assert.Equal(t, "show-1", payload["id"])
	assert.Equal(t, "show", payload["type"])
	assert.NotContains(t, payload, "franchise")
	assert.NotContains(t, payload, "episode")
	assert.NotContains(t, payload, "season")
	assert.NotContains(t, payload, "special")

	parent, ok := payload["parent"].(model.Payload)
	require.True(t, ok, "parent should be a nested payload")
	assert.Equal(t, "p", parent["id"])
	assert.Equal(t, "franchise", parent["type"])
	assert.Nil(t, parent["parent"])
}

func TestBuildPayloadParentNullOnCacheMiss(t *testing.T) {
	store := storagemem.New()
	ctx := context.Background()

	show := model.Object{
		ID:   "show-1",
		Type: "show",
		Attrs: map[string]interface{}{
			"franchise": map[string]interface{}{"id": "missing", "type": "franchise"},
		},
	}

	payload := BuildPayload(ctx, store, show)
	assert.Nil(t, payload["parent"])
}

func TestBuildPayloadParentNullWhenNoParentKeyPresent(t *testing.T) {
	store := storagemem.New()
	ctx := context.Background()

	asset := model.Object{ID: "a1", Type: "asset", Attrs: map[string]interface{}{"title": "clip"}}
	payload := BuildPayload(ctx, store, asset)

	assert.Nil(t, payload["parent"])
	assert.Equal(t, "clip", payload["title"])
}
