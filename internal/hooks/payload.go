package hooks

import (
	"context"

	"github.com/ternarybob/mmreplicate/internal/cache"
	"github.com/ternarybob/mmreplicate/internal/model"
)

// BuildPayload projects obj into a notification payload. It
// never contacts the upstream API — only c, for the parent chain. Grounded
// on original_source's hooks/payload.rs Payload::from_object.
func BuildPayload(ctx context.Context, c cache.Cache, obj model.Object) model.Payload {
	attrs := model.Payload(obj.Attrs).Clone()
	attrs["id"] = obj.ID
	attrs["type"] = obj.Type
	attrs["parent"] = resolveParent(ctx, c, obj.Attrs)

	for _, key := range model.ParentKeyOrder {
		delete(attrs, key)
	}

	return attrs
}

// resolveParent uses the first of model.ParentKeyOrder present in attrs.
// If its cache lookup misses or errors, parent is null — no fallback to
// the next key.
func resolveParent(ctx context.Context, c cache.Cache, attrs map[string]interface{}) interface{} {
	for _, key := range model.ParentKeyOrder {
		v, present := attrs[key]
		if !present {
			continue
		}
		ref, ok := model.ReferenceFromAttrs(v)
		if !ok {
			return nil
		}
		parentObj, found, err := c.Get(ctx, ref.Type, ref.ID)
		if err != nil || !found {
			return nil
		}
		return BuildPayload(ctx, c, parentObj)
	}
	return nil
}
