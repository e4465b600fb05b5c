package model

// RecognizedTypes is every content type the engine and storage layer
// understand. ObjectFromJSON rejects an Object with a Type outside this set;
// ReferenceFromJSON does not check it.
var RecognizedTypes = map[string]bool{
	"franchise": true,
	"show":      true,
	"season":    true,
	"episode":   true,
	"special":   true,
	"asset":     true,
}

// ChildTypes lists, for each type, the set of child types the ingestion
// engine fans out into after a successful cache write.
var ChildTypes = map[string][]string{
	"franchise": {"show"},
	"show":      {"season", "special", "asset"},
	"season":    {"episode", "asset"},
	"episode":   {"asset"},
	"special":   {"asset"},
	"asset":     {},
}

// ChildOrder is the fixed scheduling order children are submitted in within
// a single Object import. Actual completion is unordered; this only governs
// submission sequence.
var ChildOrder = []string{"asset", "season", "special", "episode", "show"}

// ParentTypes lists, for each type, the set of parent-type attribute keys
// the engine checks for a recursive parent import. Asset
// can hang off any of four container types, so it carries more than one.
var ParentTypes = map[string][]string{
	"franchise": {},
	"show":      {"franchise"},
	"season":    {"show"},
	"episode":   {"season"},
	"special":   {"show"},
	"asset":     {"episode", "season", "special", "show"},
}

// ParentKeyOrder is the fixed order the payload builder checks attrs for a
// parent reference: the first key present wins, with no fallback to the
// next key on a cache miss.
var ParentKeyOrder = []string{"episode", "season", "special", "show", "franchise"}

// CacheableTypes is the set of types whose updated_at contributes to the
// cache's overall high-watermark, i.e. everything except
// franchise.
var CacheableTypes = []string{"asset", "episode", "season", "show", "special"}

// ChildOrderedTypes returns the child types of t, filtered to those present
// in ChildTypes[t], in ChildOrder's fixed sequence.
func ChildOrderedTypes(t string) []string {
	children := ChildTypes[t]
	if len(children) == 0 {
		return nil
	}
	set := make(map[string]bool, len(children))
	for _, c := range children {
		set[c] = true
	}
	ordered := make([]string, 0, len(children))
	for _, c := range ChildOrder {
		if set[c] {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
