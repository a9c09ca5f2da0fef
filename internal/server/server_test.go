package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docviewer/internal/config"
	"git.home.luguber.info/inful/docviewer/internal/docviewer"
	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/repository"
)

// fakeResolver answers from a map keyed by "namespace/name"; unknown
// repositories fail with a not found error.
type fakeResolver struct {
	mu    sync.Mutex
	links map[string]*docviewer.Link
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, ref repository.Ref) (docviewer.Link, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return docviewer.Link{}, false, f.err
	}
	link, ok := f.links[ref.String()]
	if !ok {
		return docviewer.Link{}, false, errors.NotFoundError("repository not found").Build()
	}
	if link == nil {
		return docviewer.Link{}, false, nil
	}
	return *link, true, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestServer(cfg config.ServerConfig, opts ...Option) *Server {
	return New(cfg, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func get(t *testing.T, s *Server, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeRepository(t *testing.T, w *httptest.ResponseRecorder) RepositoryResponse {
	t.Helper()
	var resp RepositoryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	w := get(t, newTestServer(config.ServerConfig{}), "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRepositoryEndpoint(t *testing.T) {
	local := &fakeResolver{links: map[string]*docviewer.Link{
		"acme/site":          {BranchName: "main", BasePath: "docs", LandingPage: "home.md"},
		"acme/plain":         nil,
		"team/platform/wiki": {BranchName: "trunk", BasePath: "manual", LandingPage: "index.md"},
	}}
	gh := &fakeResolver{links: map[string]*docviewer.Link{
		"acme/site": {BranchName: "gh-pages", BasePath: "d", LandingPage: "README.md"},
	}}
	s := newTestServer(config.ServerConfig{},
		WithResolver("", local),
		WithResolver("gh", gh),
		WithDefaultResolver(""))

	tests := []struct {
		name   string
		target string
		status int
		want   *docviewer.Link
	}{
		{name: "found", target: "/api/v1/repositories/acme/site", status: http.StatusOK,
			want: &docviewer.Link{BranchName: "main", BasePath: "docs", LandingPage: "home.md"}},
		{name: "absent", target: "/api/v1/repositories/acme/plain", status: http.StatusOK},
		{name: "nested namespace", target: "/api/v1/repositories/team/platform/wiki", status: http.StatusOK,
			want: &docviewer.Link{BranchName: "trunk", BasePath: "manual", LandingPage: "index.md"}},
		{name: "forge selected", target: "/api/v1/repositories/acme/site?forge=gh", status: http.StatusOK,
			want: &docviewer.Link{BranchName: "gh-pages", BasePath: "d", LandingPage: "README.md"}},
		{name: "unknown repository", target: "/api/v1/repositories/acme/ghost", status: http.StatusNotFound},
		{name: "unknown forge", target: "/api/v1/repositories/acme/site?forge=nope", status: http.StatusNotFound},
		{name: "missing namespace", target: "/api/v1/repositories/site", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, tt.target, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			resp := decodeRepository(t, w)
			assert.Equal(t, tt.want, resp.DocumentationViewer())
		})
	}
}

func TestRepositoryResponseShape(t *testing.T) {
	s := newTestServer(config.ServerConfig{}, WithResolver("", &fakeResolver{links: map[string]*docviewer.Link{
		"acme/site":  {BranchName: "main", BasePath: "docs", LandingPage: "home.md"},
		"acme/plain": nil,
	}}))

	w := get(t, s, "/api/v1/repositories/acme/site", nil)
	assert.JSONEq(t, `{
		"namespace": "acme",
		"name": "site",
		"_embedded": {"documentationViewer": {"branchName": "main", "basePath": "docs", "landingPage": "home.md"}}
	}`, w.Body.String())

	w = get(t, s, "/api/v1/repositories/acme/plain", nil)
	assert.JSONEq(t, `{"namespace": "acme", "name": "plain"}`, w.Body.String())
}

func TestRepositoryEndpointReadPermission(t *testing.T) {
	resolver := &fakeResolver{links: map[string]*docviewer.Link{
		"acme/site": {BranchName: "main", BasePath: "docs", LandingPage: "home.md"},
	}}
	s := newTestServer(config.ServerConfig{AuthToken: "s3cret"}, WithResolver("", resolver))

	tests := []struct {
		name     string
		auth     string
		embedded bool
	}{
		{name: "no token"},
		{name: "wrong token", auth: "Bearer nope"},
		{name: "wrong scheme", auth: "Basic s3cret"},
		{name: "valid token", auth: "Bearer s3cret", embedded: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.auth != "" {
				header.Set("Authorization", tt.auth)
			}
			w := get(t, s, "/api/v1/repositories/acme/site", header)
			require.Equal(t, http.StatusOK, w.Code)
			resp := decodeRepository(t, w)
			assert.Equal(t, "site", resp.Name)
			assert.Equal(t, tt.embedded, resp.DocumentationViewer() != nil)
		})
	}
	assert.Equal(t, 1, resolver.calls)
}

func TestRepositoryEndpointInfrastructureFailure(t *testing.T) {
	s := newTestServer(config.ServerConfig{}, WithResolver("", &fakeResolver{
		err: errors.ForgeError("forge API error: 503 Service Unavailable").Build(),
	}))

	w := get(t, s, "/api/v1/repositories/acme/site", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	var body errors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "forge", body.Code)
	assert.True(t, body.Retryable)
}

type panicResolver struct{}

func (panicResolver) Resolve(context.Context, repository.Ref) (docviewer.Link, bool, error) {
	panic("boom")
}

func TestPanicRecovery(t *testing.T) {
	s := newTestServer(config.ServerConfig{}, WithResolver("", panicResolver{}))
	w := get(t, s, "/api/v1/repositories/acme/site", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	w := get(t, newTestServer(config.ServerConfig{}), "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncResolution("found")

	s := newTestServer(config.ServerConfig{}, WithMetrics("/metrics", metrics.HTTPHandler(reg)))
	w := get(t, s, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `docviewer_resolutions_total{outcome="found"} 1`)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := newTestServer(config.ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + l.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
