package forge

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type countingRecorder struct {
	mu       sync.Mutex
	requests map[string]int
	retries  int
}

func (c *countingRecorder) IncResolution(string)                            {}
func (c *countingRecorder) ObserveResolutionDuration(string, time.Duration) {}
func (c *countingRecorder) SetScanConcurrency(int)                          {}

func (c *countingRecorder) IncForgeRequest(forge, result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requests == nil {
		c.requests = map[string]int{}
	}
	c.requests[forge+"/"+result]++
}

func (c *countingRecorder) IncForgeRetry(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.retries++
}

func (c *countingRecorder) requestCount(forge, result string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[forge+"/"+result]
}

func (c *countingRecorder) retryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retries
}

// fakeAPI serves canned responses keyed by "escaped/path?query". Unknown
// requests get 404. Every request is recorded.
type fakeAPI struct {
	t      *testing.T
	prefix string

	mu       sync.Mutex
	routes   map[string]any
	requests []*http.Request
}

func newFakeAPI(t *testing.T, prefix string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{t: t, prefix: prefix, routes: map[string]any{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

// route registers a response. Strings are written raw, anything else as JSON.
func (f *fakeAPI) route(pathAndQuery string, response any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[pathAndQuery] = response
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	key := strings.TrimPrefix(r.URL.EscapedPath(), f.prefix)
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	resp, ok := f.routes[key]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		return
	}
	if s, isString := resp.(string); isString {
		_, _ = w.Write([]byte(s))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		f.t.Errorf("encode response: %v", err)
	}
}

func (f *fakeAPI) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}
