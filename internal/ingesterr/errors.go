// Package ingesterr defines the typed error taxonomy produced across the
// ingestion pipeline: upstream fetch, document parsing, cache I/O and pool
// init. Config loading, upstream fetches, collection-document parsing and
// cache I/O report their failures as one of these kinds so callers can branch
// on errors.Is without string matching, with enough context (url, type, id)
// to make a warn-level log line self-explanatory. Object and reference
// parsing return plain errors that carry no kind.
package ingesterr

import (
	"errors"
	"fmt"
)

// Kind identifies which family a Error belongs to, grouped the way spec
// section 7 groups them: Config, Upstream, Parse, Cache, Pool.
type Kind int

const (
	// KindInvalidConfig is fatal at startup.
	KindInvalidConfig Kind = iota
	// KindResourceNotFound is a per-request upstream 404.
	KindResourceNotFound
	// KindNotAuthorized is a per-request upstream 401/403.
	KindNotAuthorized
	// KindTransport is any other upstream transport failure (timeout, DNS, 5xx).
	KindTransport
	// KindInvalidDocument is a malformed collection/changelog response body.
	KindInvalidDocument
	// KindInvalidObject is a resource body that cannot be parsed into an Object.
	KindInvalidObject
	// KindInvalidReference is a data[] element that cannot be parsed into a Reference.
	KindInvalidReference
	// KindCacheConnect is a fatal cache connection failure at startup.
	KindCacheConnect
	// KindCacheAuth is a fatal cache authentication failure at startup.
	KindCacheAuth
	// KindCacheWrite is a per-request cache write failure.
	KindCacheWrite
	// KindCacheRead is a per-request cache read failure.
	KindCacheRead
	// KindPoolInit is a fatal worker pool initialization failure.
	KindPoolInit
)

func (k Kind) String() string {
	switch k {
	case KindInvalidConfig:
		return "invalid_config"
	case KindResourceNotFound:
		return "resource_not_found"
	case KindNotAuthorized:
		return "not_authorized"
	case KindTransport:
		return "transport"
	case KindInvalidDocument:
		return "invalid_document"
	case KindInvalidObject:
		return "invalid_object"
	case KindInvalidReference:
		return "invalid_reference"
	case KindCacheConnect:
		return "cache_connect"
	case KindCacheAuth:
		return "cache_auth"
	case KindCacheWrite:
		return "cache_write"
	case KindCacheRead:
		return "cache_read"
	case KindPoolInit:
		return "pool_init"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this kind should abort startup rather
// than be absorbed as a per-node (0,1) failure.
func (k Kind) Fatal() bool {
	switch k {
	case KindInvalidConfig, KindCacheConnect, KindCacheAuth, KindPoolInit:
		return true
	default:
		return false
	}
}

// Error is the concrete error type carried through the ingestion pipeline.
type Error struct {
	Kind    Kind
	Context string // e.g. a URL, "type=show id=42", a config key
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Context != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Context)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so callers can
// do errors.Is(err, ingesterr.New(ingesterr.KindTransport, "", nil)) or,
// more idiomatically, compare against the Err* sentinels below.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}

// New constructs an Error.
func New(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

func sentinel(k Kind) error { return &Error{Kind: k} }

// Sentinels for use with errors.Is at call sites that only care about kind.
var (
	ErrInvalidConfig     = sentinel(KindInvalidConfig)
	ErrResourceNotFound  = sentinel(KindResourceNotFound)
	ErrNotAuthorized     = sentinel(KindNotAuthorized)
	ErrTransport         = sentinel(KindTransport)
	ErrInvalidDocument   = sentinel(KindInvalidDocument)
	ErrInvalidObject     = sentinel(KindInvalidObject)
	ErrInvalidReference  = sentinel(KindInvalidReference)
	ErrCacheConnect      = sentinel(KindCacheConnect)
	ErrCacheAuth         = sentinel(KindCacheAuth)
	ErrCacheWrite        = sentinel(KindCacheWrite)
	ErrCacheRead         = sentinel(KindCacheRead)
	ErrPoolInit          = sentinel(KindPoolInit)
)

// KindOf extracts the Kind of err, if it (or something it wraps) is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
