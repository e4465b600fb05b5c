package storagemongo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestToBSONValueConvertsRFC3339Strings(t *testing.T) {
	in := map[string]interface{}{
		"updated_at": "2020-01-02T03:04:05Z",
		"title":      "not a date",
	}

	out := toBSONValue(in).(map[string]interface{})

	_, isDateTime := out["updated_at"].(primitive.DateTime)
	assert.True(t, isDateTime)
	assert.Equal(t, "not a date", out["title"])
}

func TestFromBSONValueReversesToBSONValue(t *testing.T) {
	original := map[string]interface{}{
		"updated_at": "2020-01-02T03:04:05Z",
		"nested": map[string]interface{}{
			"created_at": "2019-06-01T00:00:00Z",
		},
		"tags": []interface{}{"a", "b"},
	}

	roundTripped := fromBSONValue(toBSONValue(original))

	m := roundTripped.(map[string]interface{})
	assert.Equal(t, "2020-01-02T03:04:05Z", m["updated_at"])
	nested := m["nested"].(map[string]interface{})
	assert.Equal(t, "2019-06-01T00:00:00Z", nested["created_at"])
	assert.Equal(t, []interface{}{"a", "b"}, m["tags"])
}
