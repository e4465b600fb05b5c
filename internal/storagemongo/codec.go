// Package storagemongo is the production Cache, backed by MongoDB. Grounded
// on original_source's storage/mongo.rs MongoStore: one collection per
// recognized type, _id = id, FindOneAndReplace with upsert, and an
// updated_at() that scans model.CacheableTypes and folds the max.
package storagemongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toBSONValue walks a JSON-decoded value (map[string]interface{},
// []interface{}, string, float64, bool, nil) converting every string that
// parses as an RFC 3339 UTC timestamp into a primitive.DateTime, so every
// string attribute that looks like a timestamp is stored as a native
// datetime rather than opaque text.
func toBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return primitive.NewDateTimeFromTime(t.UTC())
		}
		return val
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[k] = toBSONValue(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, sub := range val {
			out[i] = toBSONValue(sub)
		}
		return out
	default:
		return v
	}
}

// fromBSONValue reverses toBSONValue: every primitive.DateTime becomes an
// RFC 3339 UTC string again. A round trip keeps every other value as it was;
// timestamps come back in UTC ("Z") at millisecond precision, the resolution
// of primitive.DateTime.
func fromBSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC().Format(time.RFC3339Nano)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[k] = fromBSONValue(sub)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[k] = fromBSONValue(sub)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(val))
		for i, sub := range val {
			out[i] = fromBSONValue(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, sub := range val {
			out[i] = fromBSONValue(sub)
		}
		return out
	default:
		return v
	}
}
