package model

// Hook is a configured HTTP endpoint notified when an object of a given
// type changes. A Hook with an empty URL is silently skipped by the
// dispatcher rather than treated as a failure.
type Hook struct {
	URL      string
	Username string
	Password string
}

// HasAuth reports whether Basic auth should be attached: any non-empty
// Username, even with an empty Password.
func (h Hook) HasAuth() bool {
	return h.Username != ""
}

// HookTable maps a content type to the hooks registered for it.
type HookTable map[string][]Hook
