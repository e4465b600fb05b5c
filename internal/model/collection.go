package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ternarybob/mmreplicate/internal/ingesterr"
)

// Collection is a paginated list of References plus the pagination metadata
// needed to enumerate the remaining pages.
type Collection struct {
	Page     []Reference
	Links    map[string]interface{}
	PageSize uint
	Total    uint
	FirstURL string
}

// NumPages returns ceil(total/page_size), the number of page requests a full
// walk of this collection issues.
func (c Collection) NumPages() int {
	if c.PageSize == 0 {
		return 0
	}
	return int(math.Ceil(float64(c.Total) / float64(c.PageSize)))
}

// PageURL builds the request URL for page k (1-based), appending "page=k"
// with "&" if FirstURL already has a query string, "?" otherwise.
func (c Collection) PageURL(k int) string {
	sep := "?"
	if strings.Contains(c.FirstURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", c.FirstURL, sep, k)
}

// CollectionFromJSON parses a JSON:API list response. Required:
// data (array), links (object), meta.pagination.{per_page,count} (ints).
// Any missing required field is an InvalidDocument. Elements of data that
// fail Reference conversion are silently dropped.
func CollectionFromJSON(body []byte) (Collection, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection", err)
	}

	dataRaw, ok := raw["data"].([]interface{})
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing data array", nil)
	}
	links, ok := raw["links"].(map[string]interface{})
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing links object", nil)
	}
	meta, ok := raw["meta"].(map[string]interface{})
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing meta", nil)
	}
	pagination, ok := meta["pagination"].(map[string]interface{})
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing meta.pagination", nil)
	}
	perPage, ok := asUint(pagination["per_page"])
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing meta.pagination.per_page", nil)
	}
	count, ok := asUint(pagination["count"])
	if !ok {
		return Collection{}, ingesterr.New(ingesterr.KindInvalidDocument, "collection: missing meta.pagination.count", nil)
	}

	refs := make([]Reference, 0, len(dataRaw))
	for _, el := range dataRaw {
		m, ok := el.(map[string]interface{})
		if !ok {
			continue
		}
		ref, err := ReferenceFromJSON(m)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}

	firstURL, _ := links["first"].(string)

	return Collection{
		Page:     refs,
		Links:    links,
		PageSize: perPage,
		Total:    count,
		FirstURL: firstURL,
	}, nil
}

func asUint(v interface{}) (uint, bool) {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0, false
	}
	return uint(f), true
}
