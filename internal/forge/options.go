package forge

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/retry"
)

type options struct {
	httpClient *http.Client
	policy     *retry.Policy
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option configures a forge client.
type Option func(*options)

// WithHTTPClient replaces the default 30s-timeout HTTP client.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithRetryPolicy retries transient failures (network, 5xx, 429) under p.
func WithRetryPolicy(p retry.Policy) Option { return func(o *options) { o.policy = &p } }

func WithRecorder(r metrics.Recorder) Option { return func(o *options) { o.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func collect(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newHTTPClient30s returns an HTTP client with a 30s timeout.
func newHTTPClient30s() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// withDefaults applies default API/base URLs when empty.
func withDefaults(apiURL, baseURL, defAPI, defBase string) (string, string) {
	if apiURL == "" {
		apiURL = defAPI
	}
	if baseURL == "" {
		baseURL = defBase
	}
	return apiURL, baseURL
}
