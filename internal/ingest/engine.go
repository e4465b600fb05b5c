package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/mmreplicate/internal/common"
	"github.com/ternarybob/mmreplicate/internal/hooks"
	"github.com/ternarybob/mmreplicate/internal/model"
	"github.com/ternarybob/mmreplicate/internal/runtime"
)

// Engine is the recursive ingestion engine. It is a pure
// function of its Runtime: every collaborator it touches (API, Cache,
// Dispatcher, hook config) comes from rt, never from package state.
type Engine struct {
	rt   *runtime.Runtime
	pool *Pool
}

// New builds an Engine over rt, using pool for every bounded I/O call.
func New(rt *runtime.Runtime, pool *Pool) *Engine {
	return &Engine{rt: rt, pool: pool}
}

// Runtime returns the Engine's Runtime, for collaborators (the update-window
// controller) that need to reach the upstream client directly.
func (e *Engine) Runtime() *runtime.Runtime {
	return e.rt
}

type fetchResult struct {
	body string
	err  error
}

type writeResult struct {
	err error
}

// ImportBody parses a raw JSON:API list response (the body returned by
// api.all_shows() or api.changes(since)) into a Collection and imports it.
// This is the controller's entry point into the engine.
func (e *Engine) ImportBody(ctx context.Context, body string, followRefs bool, since int64) Result {
	coll, err := model.CollectionFromJSON([]byte(body))
	if err != nil {
		e.rt.Logger.Warn().Str("error", err.Error()).Msg("invalid collection document")
		return Result{Failures: 1}
	}
	return e.ImportCollection(ctx, coll, followRefs, since)
}

// ImportCollection imports a Collection: single page directly, or one fetch
// per page number fanned out concurrently.
func (e *Engine) ImportCollection(ctx context.Context, c model.Collection, followRefs bool, since int64) Result {
	if c.FirstURL == "" {
		return e.importReferences(ctx, c.Page, followRefs, since)
	}

	n := c.NumPages()
	if n <= 0 {
		return Result{}
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total Result
	)

	for k := 1; k <= n; k++ {
		k := k
		wg.Add(1)
		common.SafeGo(e.rt.Logger, "ingest.page", func() {
			defer wg.Done()
			r := e.importPage(ctx, c.PageURL(k), followRefs, since)
			mu.Lock()
			total = total.Add(r)
			mu.Unlock()
		})
	}

	wg.Wait()
	return total
}

func (e *Engine) importPage(ctx context.Context, pageURL string, followRefs bool, since int64) Result {
	fr := poolCall(e.pool, func() fetchResult {
		body, err := e.rt.API.URL(ctx, pageURL)
		return fetchResult{body: body, err: err}
	})
	if fr.err != nil {
		e.rt.Logger.Warn().Str("url", pageURL).Str("error", fr.err.Error()).Msg("page fetch failed")
		return Result{Failures: 1}
	}

	coll, err := model.CollectionFromJSON([]byte(fr.body))
	if err != nil {
		e.rt.Logger.Warn().Str("url", pageURL).Str("error", err.Error()).Msg("invalid collection page")
		return Result{Failures: 1}
	}

	return e.importReferences(ctx, coll.Page, followRefs, since)
}

func (e *Engine) importReferences(ctx context.Context, refs []model.Reference, followRefs bool, since int64) Result {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total Result
	)

	for _, ref := range refs {
		ref := ref
		wg.Add(1)
		common.SafeGo(e.rt.Logger, "ingest.reference", func() {
			defer wg.Done()
			r := e.ImportReference(ctx, ref, followRefs, since)
			mu.Lock()
			total = total.Add(r)
			mu.Unlock()
		})
	}

	wg.Wait()
	return total
}

// ImportReference fetches the object a Reference points at (or, for a
// delete action, dispatches the delete hook directly) and imports it.
func (e *Engine) ImportReference(ctx context.Context, ref model.Reference, followRefs bool, since int64) Result {
	if ref.IsDelete() {
		e.dispatchDelete(ctx, ref)
		return Result{}
	}

	fr := poolCall(e.pool, func() fetchResult {
		body, err := e.rt.API.URL(ctx, ref.SelfURL)
		return fetchResult{body: body, err: err}
	})
	if fr.err != nil {
		e.rt.Logger.Warn().Str("url", ref.SelfURL).Str("error", fr.err.Error()).Msg("reference fetch failed")
		return Result{Failures: 1}
	}

	obj, err := parseObjectDocument(fr.body)
	if err != nil {
		e.rt.Logger.Warn().Str("url", ref.SelfURL).Str("error", err.Error()).Msg("invalid object document")
		return Result{Failures: 1}
	}

	follow := followRefs
	if ref.Action() == "update" {
		// Changelog entries never recurse, even when the caller asked for
		// follow_refs=true at an outer level.
		follow = false
	}

	return e.ImportObject(ctx, obj, follow, since)
}

func (e *Engine) dispatchDelete(ctx context.Context, ref model.Reference) {
	if !e.rt.Config.EnableHooks {
		return
	}
	payload := model.Payload{"id": ref.ID, "type": ref.Type}
	hookList := e.rt.Config.HookTable()[ref.Type]
	poolCall(e.pool, func() struct{} {
		e.rt.Dispatcher.Emit(ctx, payload, hookList, hooks.ActionDelete)
		return struct{}{}
	})
}

// ImportObject writes obj to cache if it passes the freshness gate, fires
// update hooks, and then fans out to its children and parents when
// followRefs is set.
func (e *Engine) ImportObject(ctx context.Context, obj model.Object, followRefs bool, since int64) Result {
	local := Result{}

	if obj.UpdatedAt().Unix() >= since {
		wr := poolCall(e.pool, func() writeResult {
			if err := e.rt.Cache.Put(ctx, obj); err != nil {
				return writeResult{err: err}
			}
			if e.rt.Config.EnableHooks {
				payload := hooks.BuildPayload(ctx, e.rt.Cache, obj)
				hookList := e.rt.Config.HookTable()[obj.Type]
				e.rt.Dispatcher.Emit(ctx, payload, hookList, hooks.ActionUpdate)
			}
			return writeResult{}
		})

		if wr.err != nil {
			e.rt.Logger.Warn().Str("type", obj.Type).Str("id", obj.ID).Str("error", wr.err.Error()).Msg("cache write failed")
			local.Failures++
		} else {
			local.Passes++
		}
	}

	if !followRefs {
		return local
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total Result
	)

	for _, childType := range model.ChildOrderedTypes(obj.Type) {
		childType := childType
		wg.Add(1)
		common.SafeGo(e.rt.Logger, "ingest.child", func() {
			defer wg.Done()
			r := e.importChildCollection(ctx, obj.ChildCollectionURL(childType), followRefs, since)
			mu.Lock()
			total = total.Add(r)
			mu.Unlock()
		})
	}

	for _, parentType := range model.ParentTypes[obj.Type] {
		parentRef, ok := obj.ParentReference(parentType)
		if !ok {
			continue
		}
		parentRef := parentRef
		wg.Add(1)
		common.SafeGo(e.rt.Logger, "ingest.parent", func() {
			defer wg.Done()
			r := e.ImportReference(ctx, parentRef, false, since)
			mu.Lock()
			total = total.Add(r)
			mu.Unlock()
		})
	}

	wg.Wait()
	return local.Add(total)
}

func (e *Engine) importChildCollection(ctx context.Context, url string, followRefs bool, since int64) Result {
	fr := poolCall(e.pool, func() fetchResult {
		body, err := e.rt.API.URL(ctx, url)
		return fetchResult{body: body, err: err}
	})
	if fr.err != nil {
		e.rt.Logger.Warn().Str("url", url).Str("error", fr.err.Error()).Msg("child collection fetch failed")
		return Result{Failures: 1}
	}

	coll, err := model.CollectionFromJSON([]byte(fr.body))
	if err != nil {
		e.rt.Logger.Warn().Str("url", url).Str("error", err.Error()).Msg("invalid child collection document")
		return Result{Failures: 1}
	}

	return e.ImportCollection(ctx, coll, followRefs, since)
}

func parseObjectDocument(body string) (model.Object, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return model.Object{}, err
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok {
		return model.Object{}, fmt.Errorf("object document: missing data")
	}
	return model.ObjectFromJSON(data)
}
