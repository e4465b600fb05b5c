package model

import "fmt"

// Reference is the minimal identity extracted from a JSON:API resource or a
// changelog entry: enough to fetch the full Object, or, for a changelog
// delete, enough to notify hooks without fetching anything.
type Reference struct {
	ID      string
	Type    string
	SelfURL string
	Attrs   map[string]interface{}
}

// Validate checks the invariants section 3 pins for a Reference: a
// non-empty SelfURL and a recognized Type. A changelog delete reference may
// carry an empty SelfURL since no fetch is ever made for it.
func (r Reference) Validate() error {
	if !RecognizedTypes[r.Type] {
		return fmt.Errorf("reference: unrecognized type %q", r.Type)
	}
	if r.SelfURL == "" && !r.IsDelete() {
		return fmt.Errorf("reference: empty self_url")
	}
	return nil
}

// Action returns attrs.action, or "" when absent (meaning "update").
func (r Reference) Action() string {
	if r.Attrs == nil {
		return ""
	}
	v, _ := r.Attrs["action"].(string)
	return v
}

// IsDelete reports whether this is a changelog delete reference.
func (r Reference) IsDelete() bool {
	return r.Action() == "delete"
}

// ReferenceFromJSON converts a single JSON:API resource object (a map with
// id/type/attributes/links, as found in a collection's data[] or a
// changelog entry) into a Reference. Returns an error for any element
// missing id or type; callers drop such elements rather than aborting the
// whole page.
func ReferenceFromJSON(raw map[string]interface{}) (Reference, error) {
	id, _ := raw["id"].(string)
	typ, _ := raw["type"].(string)
	if id == "" || typ == "" {
		return Reference{}, fmt.Errorf("reference: missing id or type")
	}

	attrs, _ := raw["attributes"].(map[string]interface{})
	if attrs == nil {
		attrs = map[string]interface{}{}
	}

	selfURL := extractSelfURL(raw)

	return Reference{ID: id, Type: typ, SelfURL: selfURL, Attrs: attrs}, nil
}

// ReferenceFromAttrs builds a Reference from an embedded parent-link value
// such as attrs["franchise"] = {"id": "...", "type": "franchise"}. Used both
// by the ingestion engine (parent-import step) and the payload builder
// (parent cache lookup).
func ReferenceFromAttrs(v interface{}) (Reference, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return Reference{}, false
	}
	id, _ := m["id"].(string)
	typ, _ := m["type"].(string)
	if id == "" || typ == "" {
		return Reference{}, false
	}
	selfURL, _ := m["self_url"].(string)
	return Reference{ID: id, Type: typ, SelfURL: selfURL, Attrs: m}, true
}

func extractSelfURL(raw map[string]interface{}) string {
	links, ok := raw["links"].(map[string]interface{})
	if !ok {
		return ""
	}
	if self, ok := links["self"].(string); ok {
		return self
	}
	return ""
}
