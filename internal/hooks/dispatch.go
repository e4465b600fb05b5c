// Package hooks implements the webhook dispatcher and payload
// builder, grounded on original_source's hooks/http.rs and
// hooks/payload.rs.
package hooks

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ternarybob/mmreplicate/internal/model"
)

// Action is the notification method: update (POST) or delete (DELETE).
type Action int

const (
	ActionUpdate Action = iota
	ActionDelete
)

// EmitResponse is the per-endpoint outcome of one Emit call. The recorded
// string in either list is the exact URL requested, including the id/
// suffix DELETE appends.
type EmitResponse struct {
	Success []string
	Failure []string
}

const userAgent = "MM-API-NOTIFY"

// Dispatcher sends webhook notifications. RatePerSecond, when > 0,
// rate-limits outbound requests per hook host via golang.org/x/time/rate
// — a teacher dependency this component is the first to
// actually exercise. Zero means unlimited.
type Dispatcher struct {
	HTTP          *http.Client
	RatePerSecond float64

	limiters sync.Map // host (string) -> *rate.Limiter
}

// NewDispatcher builds a Dispatcher with the given per-request HTTP client
// and optional per-host rate limit.
func NewDispatcher(httpClient *http.Client, ratePerSecond float64) *Dispatcher {
	return &Dispatcher{HTTP: httpClient, RatePerSecond: ratePerSecond}
}

// Emit dispatches payload to every hook in hooks with a present URL,
// independently and in parallel, and returns the aggregated
// success/failure lists. Hooks without a URL produce zero
// requests and are not counted.
func (d *Dispatcher) Emit(ctx context.Context, payload model.Payload, hooks []model.Hook, action Action) EmitResponse {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		resp EmitResponse
	)

	for _, h := range hooks {
		if h.URL == "" {
			continue
		}
		h := h
		wg.Add(1)
		go func() {
			defer wg.Done()

			target := h.URL
			if action == ActionDelete {
				target = deleteURL(h.URL, payload)
			}

			d.await(ctx, target)
			ok := d.send(ctx, target, h, payload, action)

			mu.Lock()
			if ok {
				resp.Success = append(resp.Success, target)
			} else {
				resp.Failure = append(resp.Failure, target)
			}
			mu.Unlock()
		}()
	}

	wg.Wait()
	return resp
}

// deleteURL appends payload's id plus a trailing slash to hookURL. DELETE
// always appends, regardless of whether hookURL already ends in a slash.
func deleteURL(hookURL string, payload model.Payload) string {
	id, _ := payload["id"].(string)
	return hookURL + id + "/"
}

func (d *Dispatcher) await(ctx context.Context, target string) {
	if d.RatePerSecond <= 0 {
		return
	}
	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Host
	}
	limiterAny, _ := d.limiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(d.RatePerSecond), 1))
	limiterAny.(*rate.Limiter).Wait(ctx)
}

func (d *Dispatcher) send(ctx context.Context, target string, h model.Hook, payload model.Payload, action Action) bool {
	var body []byte
	method := http.MethodPost
	if action == ActionDelete {
		method = http.MethodDelete
	} else {
		b, err := json.Marshal(map[string]interface{}{"data": payload})
		if err != nil {
			return false
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if h.HasAuth() {
		req.Header.Set("Authorization", basicAuth(h.Username, h.Password))
	}

	resp, err := d.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func basicAuth(username, password string) string {
	creds := fmt.Sprintf("%s:%s", username, password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(creds))
}
