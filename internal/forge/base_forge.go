package forge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"git.home.luguber.info/inful/docviewer/internal/foundation/errors"
	"git.home.luguber.info/inful/docviewer/internal/logfields"
	"git.home.luguber.info/inful/docviewer/internal/metrics"
	"git.home.luguber.info/inful/docviewer/internal/retry"
)

// maxRawSize caps raw file downloads; configuration files are tiny.
const maxRawSize = 1 << 20

const userAgent = "docviewer/1.0"

// BaseForge provides the HTTP plumbing shared by the GitHub, GitLab and Forgejo clients.
type BaseForge struct {
	httpClient *http.Client
	apiURL     string
	token      string

	authHeaderPrefix string // "Bearer " for GitHub/GitLab, "token " for Forgejo
	customHeaders    map[string]string

	name     string
	policy   retry.Policy
	recorder metrics.Recorder
	logger   *slog.Logger
}

// NewBaseForge creates a BaseForge with common forge HTTP client settings.
func NewBaseForge(httpClient *http.Client, apiURL, token string) *BaseForge {
	return &BaseForge{
		httpClient:       httpClient,
		apiURL:           apiURL,
		token:            token,
		authHeaderPrefix: "Bearer ",
		customHeaders:    make(map[string]string),
		policy:           retry.NewPolicy(retry.ModeFixed, 0, 0, 0),
		recorder:         metrics.NoopRecorder{},
		logger:           slog.Default(),
	}
}

// SetAuthHeaderPrefix customizes the authorization header format (e.g., "token " for Forgejo).
func (b *BaseForge) SetAuthHeaderPrefix(prefix string) {
	b.authHeaderPrefix = prefix
}

// SetCustomHeader sets forge-specific headers (e.g., GitHub API version).
func (b *BaseForge) SetCustomHeader(key, value string) {
	b.customHeaders[key] = value
}

func (b *BaseForge) apply(name string, o options) {
	b.name = name
	if o.httpClient != nil {
		b.httpClient = o.httpClient
	}
	if o.policy != nil {
		b.policy = *o.policy
	}
	if o.recorder != nil {
		b.recorder = o.recorder
	}
	if o.logger != nil {
		b.logger = o.logger
	}
}

// NewRequest creates a GET-style request for an endpoint relative to the API URL,
// like "/repos/{owner}/{repo}". A query string in endpoint is preserved and
// percent-encoded path segments (GitLab project IDs) are kept encoded.
func (b *BaseForge) NewRequest(ctx context.Context, method, endpoint string) (*http.Request, error) {
	cleanEndpoint := strings.TrimPrefix(endpoint, "/")

	var rawQuery string
	if idx := strings.Index(cleanEndpoint, "?"); idx != -1 {
		rawQuery = cleanEndpoint[idx+1:]
		cleanEndpoint = cleanEndpoint[:idx]
	}

	u, err := url.Parse(b.apiURL)
	if err != nil {
		return nil, errors.NewError(errors.CategoryConfig, "failed to parse API URL").
			WithCause(err).
			WithContext("api_url", b.apiURL).
			Build()
	}

	rawPath := path.Join(strings.TrimSuffix(u.EscapedPath(), "/"), cleanEndpoint)
	if !strings.HasPrefix(rawPath, "/") {
		rawPath = "/" + rawPath
	}
	unescaped, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, errors.ValidationError("invalid endpoint path").
			WithCause(err).
			WithContext("endpoint", endpoint).
			Build()
	}
	u.Path, u.RawPath = unescaped, rawPath
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), http.NoBody)
	if err != nil {
		return nil, errors.NewError(errors.CategoryForge, "failed to create request").
			WithCause(err).
			WithContext("method", method).
			WithContext("url", u.String()).
			Build()
	}

	if b.token != "" {
		req.Header.Set("Authorization", b.authHeaderPrefix+b.token)
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range b.customHeaders {
		req.Header.Set(key, value)
	}
	return req, nil
}

// DoRequest executes an HTTP request and decodes the JSON response into result.
func (b *BaseForge) DoRequest(req *http.Request, result any) error {
	_, err := b.DoRequestWithHeaders(req, result)
	return err
}

// DoRequestWithHeaders is like DoRequest but also returns response headers.
// Useful for pagination that uses Link headers (GitHub).
func (b *BaseForge) DoRequestWithHeaders(req *http.Request, result any) (http.Header, error) {
	body, header, err := b.do(req, -1)
	if err != nil {
		return nil, err
	}
	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return nil, errors.NewError(errors.CategoryForge, "failed to decode response").
				WithCause(err).
				WithContext("url", req.URL.String()).
				Build()
		}
	}
	return header, nil
}

// DoRaw executes an HTTP request and returns the raw response body.
func (b *BaseForge) DoRaw(req *http.Request) ([]byte, error) {
	body, _, err := b.do(req, maxRawSize)
	return body, err
}

// do runs req under the retry policy. limit < 0 reads the whole body.
func (b *BaseForge) do(req *http.Request, limit int64) ([]byte, http.Header, error) {
	var (
		body   []byte
		header http.Header
	)

	err := b.policy.Do(req.Context(), func(context.Context) error {
		var err error
		body, header, err = b.doOnce(req, limit)
		result := "ok"
		if err != nil {
			result = "error"
		}
		b.recorder.IncForgeRequest(b.name, result)
		return err
	}, func(attempt int, err error) {
		b.recorder.IncForgeRetry(b.name)
		b.logger.DebugContext(req.Context(), "Retrying forge request",
			logfields.Forge(b.name),
			logfields.URL(req.URL.String()),
			slog.Int("attempt", attempt),
			logfields.Error(err))
	})
	return body, header, err
}

func (b *BaseForge) doOnce(req *http.Request, limit int64) ([]byte, http.Header, error) {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.NetworkError("failed to execute forge request").
			WithCause(err).
			WithContext("method", req.Method).
			WithContext("url", req.URL.String()).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		// Read limited body for diagnostics
		limitedBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, statusError(req, resp, strings.ReplaceAll(string(limitedBody), "\n", " "))
	}

	var reader io.Reader = resp.Body
	if limit >= 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, errors.NetworkError("failed to read forge response").
			WithCause(err).
			WithContext("url", req.URL.String()).
			Build()
	}
	if limit >= 0 && int64(len(body)) > limit {
		return nil, nil, errors.NewError(errors.CategoryForge, "forge response too large").
			WithContext("url", req.URL.String()).
			WithContext("limit", limit).
			Build()
	}
	return body, resp.Header, nil
}

func statusError(req *http.Request, resp *http.Response, body string) error {
	var builder *errors.ErrorBuilder
	msg := fmt.Sprintf("forge API error: %s", resp.Status)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		builder = errors.AuthError(msg)
	case resp.StatusCode == http.StatusNotFound:
		builder = errors.NotFoundError(msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		builder = errors.NewError(errors.CategoryForge, msg).RateLimit()
	case resp.StatusCode >= 500:
		builder = errors.ForgeError(msg)
	default:
		builder = errors.NewError(errors.CategoryForge, msg)
	}
	return builder.
		WithContext("status", resp.Status).
		WithContext("code", resp.StatusCode).
		WithContext("url", req.URL.String()).
		WithContext("response", body).
		Build()
}

// PaginatedFetchHelper performs paginated API requests using a common pattern.
// fetchPage receives the full endpoint for one page and returns its items and
// whether more pages exist. Fetching stops at a short page.
func PaginatedFetchHelper[T any](
	ctx context.Context,
	baseEndpoint string,
	pageParam string,
	limitParam string,
	pageSize int,
	fetchPage func(endpoint string) ([]T, bool, error),
) ([]T, error) {
	var allResults []T
	page := 1

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		sep := "?"
		if strings.Contains(baseEndpoint, "?") {
			sep = "&"
		}
		endpoint := fmt.Sprintf("%s%s%s=%d&%s=%d", baseEndpoint, sep, pageParam, page, limitParam, pageSize)

		pageResults, hasMore, err := fetchPage(endpoint)
		if err != nil {
			return nil, err
		}

		allResults = append(allResults, pageResults...)

		if !hasMore || len(pageResults) < pageSize {
			break
		}

		page++
	}

	return allResults, nil
}

// fetchJSONPages is PaginatedFetchHelper for endpoints returning a JSON array per page.
func fetchJSONPages[T any](ctx context.Context, b *BaseForge, baseEndpoint, limitParam string, pageSize int) ([]T, error) {
	return PaginatedFetchHelper(ctx, baseEndpoint, "page", limitParam, pageSize, func(endpoint string) ([]T, bool, error) {
		req, err := b.NewRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			return nil, false, err
		}
		var items []T
		if err := b.DoRequest(req, &items); err != nil {
			return nil, false, err
		}
		return items, len(items) == pageSize, nil
	})
}

// escapePath escapes each segment of a repository-relative path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
