package model

import (
	"fmt"
	"time"
)

// Object is the full resource: identity, self URL, and the attribute tree.
// Attrs is a plain JSON tree (map[string]interface{}, []interface{},
// string, float64, bool, nil) as produced by encoding/json.
type Object struct {
	ID      string
	Type    string
	SelfURL string
	Attrs   map[string]interface{}
}

// ObjectFromJSON converts a single JSON:API resource document's top-level
// "data" member into an Object.
func ObjectFromJSON(raw map[string]interface{}) (Object, error) {
	id, _ := raw["id"].(string)
	typ, _ := raw["type"].(string)
	if id == "" || typ == "" {
		return Object{}, fmt.Errorf("object: missing id or type")
	}
	if !RecognizedTypes[typ] {
		return Object{}, fmt.Errorf("object: unrecognized type %q", typ)
	}

	attrs, _ := raw["attributes"].(map[string]interface{})
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	return Object{ID: id, Type: typ, SelfURL: extractSelfURL(raw), Attrs: attrs}, nil
}

// UpdatedAt parses attrs["updated_at"] as an RFC 3339 UTC instant. An
// unparsable or absent value yields the zero Unix time per the freshness
// gate's "treat as 0" rule.
func (o Object) UpdatedAt() time.Time {
	raw, ok := o.Attrs["updated_at"].(string)
	if !ok {
		return time.Unix(0, 0).UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t.UTC()
}

// ChildCollectionURL builds the URL the engine requests to enumerate
// childType children of this object: self_url + childType
// + "s/?page-size=50".
func (o Object) ChildCollectionURL(childType string) string {
	return fmt.Sprintf("%s%ss/?page-size=50", o.SelfURL, childType)
}

// ParentReference returns the Reference embedded at attrs[parentType], if
// present, for use in the engine's parent-import step.
func (o Object) ParentReference(parentType string) (Reference, bool) {
	v, ok := o.Attrs[parentType]
	if !ok {
		return Reference{}, false
	}
	return ReferenceFromAttrs(v)
}
