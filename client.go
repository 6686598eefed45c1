package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tphakala/go-ghapi/internal/api"
	"github.com/tphakala/go-ghapi/internal/auth"
)

// Default configuration values.
const (
	defaultBaseURL    = "https://api.github.com"
	defaultUploadURL  = "https://uploads.github.com"
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3

	defaultPerPage = 30
	maxPerPage     = 100
)

// Client is the GitHub API client.
type Client struct {
	// Repos provides access to repository operations.
	Repos *ReposService
	// Issues provides access to issue operations.
	Issues *IssuesService
	// Pulls provides access to pull request operations.
	Pulls *PullsService
	// Users provides access to user operations.
	Users *UsersService
	// Search provides access to search operations.
	Search *SearchService
	// Releases provides access to release operations.
	Releases *ReleasesService

	transport  *api.Transport
	autoRetry  bool
	maxRetries int
	limiter    *rate.Limiter
}

// NewClient creates a new GitHub client with the given options.
//
// When no token option is given the client resolves one from GH_TOKEN /
// GITHUB_TOKEN, the gh CLI, or gh's hosts.yml. A client without a token
// issues unauthenticated requests.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		baseURL:    defaultBaseURL,
		uploadURL:  defaultUploadURL,
		timeout:    defaultTimeout,
		maxRetries: defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	token := cfg.token
	if !cfg.tokenSet {
		token = auth.ResolveToken(apiHostname(cfg.baseURL))
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}

	transport, err := api.NewTransport(cfg.baseURL, cfg.uploadURL, &auth.Credentials{Token: token}, httpClient)
	if err != nil {
		return nil, err
	}

	if cfg.userAgent != "" {
		transport.UserAgent = cfg.userAgent
	}

	client := &Client{
		transport:  transport,
		autoRetry:  cfg.autoRetry,
		maxRetries: cfg.maxRetries,
		limiter:    cfg.limiter,
	}

	// Initialize services
	client.Repos = &ReposService{client: client}
	client.Issues = &IssuesService{client: client}
	client.Pulls = &PullsService{client: client}
	client.Users = &UsersService{client: client}
	client.Search = &SearchService{client: client}
	client.Releases = &ReleasesService{client: client}

	return client, nil
}

// apiHostname maps an API base URL to the hostname used for credential
// lookup; the public API host stores its token under "github.com".
func apiHostname(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || u.Host == "api.github.com" {
		return "github.com"
	}
	return u.Host
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.transport.BaseURL.String()
}

// Close releases idle connections held by the underlying transport.
func (c *Client) Close() {
	c.transport.CloseIdleConnections()
}

// Repo returns a repository-bound interface currying owner and name
// into every call.
func (c *Client) Repo(owner, name string) *Repo {
	return newRepo(c, owner, name)
}

// RepoByFullName returns a repository-bound interface from an
// "owner/name" string.
func (c *Client) RepoByFullName(fullName string) (*Repo, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("ghapi: invalid repository name %q, want \"owner/name\"", fullName)
	}
	return newRepo(c, owner, name), nil
}

// RateLimit returns the current rate limit status for the
// authenticated user.
func (c *Client) RateLimit(ctx context.Context) (json.RawMessage, error) {
	return c.Do(ctx, http.MethodGet, "/rate_limit", nil, nil)
}

// Do performs a single API request and returns the raw JSON body.
// A 204 No Content response yields a nil body. Error responses are
// classified into the typed errors of this package; when auto-retry is
// enabled, rate-limited responses are retried transparently up to the
// configured maximum before the RateLimitError surfaces.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any, opts ...RequestOption) (json.RawMessage, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	resp, err := c.perform(ctx, &api.Request{
		Method:  method,
		Path:    path,
		Query:   query,
		Body:    body,
		Headers: reqCfg.headers,
	})
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent || len(resp.Body) == 0 {
		return nil, nil
	}
	return json.RawMessage(resp.Body), nil
}

// perform is the single chokepoint for API calls: it issues the HTTP
// request, retries rate-limited responses when configured, and
// classifies everything else. The retry counter is local to the call,
// so concurrent calls and cancelled waits never share state.
func (c *Client) perform(ctx context.Context, req *api.Request) (*api.Response, error) {
	retries := 0
	for {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.transport.Do(ctx, req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < http.StatusBadRequest {
			return resp, nil
		}

		if c.autoRetry && retries < c.maxRetries && isRateLimited(resp) {
			if err := sleepContext(ctx, retryWait(resp.Headers, time.Now())); err != nil {
				return nil, err
			}
			retries++
			continue
		}

		return nil, classifyError(resp.StatusCode, resp.Headers, resp.Body)
	}
}

// Paginate iterates through a paginated listing lazily, one page at a
// time. perPage is clamped to the API ceiling of 100; iteration stops
// at the first empty page. Each page fetch goes through the same
// retry path as Do, and a retried fetch never advances the page
// counter or re-yields items.
func (c *Client) Paginate(ctx context.Context, method, path string, query url.Values, perPage int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	return func(yield func(json.RawMessage, error) bool) {
		q := cloneQuery(query)
		q.Set("per_page", strconv.Itoa(perPage))

		for page := 1; ; page++ {
			q.Set("page", strconv.Itoa(page))

			resp, err := c.perform(ctx, &api.Request{
				Method:  method,
				Path:    path,
				Query:   q,
				Headers: reqCfg.headers,
			})
			if err != nil {
				yield(nil, err)
				return
			}

			var items []json.RawMessage
			if err := json.Unmarshal(resp.Body, &items); err != nil {
				yield(nil, fmt.Errorf("ghapi: decoding page %d: %w", page, err))
				return
			}

			if len(items) == 0 {
				return
			}

			for _, item := range items {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

// searchPages iterates through search results, which arrive in an
// envelope with total_count and items rather than a bare array. The
// page size is fixed at 100 and iteration stops when a page comes back
// short or the total count is reached. This path deliberately does not
// auto-retry on rate limits: search quotas are tracked separately by
// the API and the caller decides how to back off.
func (c *Client) searchPages(ctx context.Context, path string, query url.Values, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	return func(yield func(json.RawMessage, error) bool) {
		q := cloneQuery(query)
		q.Set("per_page", strconv.Itoa(maxPerPage))

		for page := 1; ; page++ {
			q.Set("page", strconv.Itoa(page))

			resp, err := c.transport.Do(ctx, &api.Request{
				Method:  http.MethodGet,
				Path:    path,
				Query:   q,
				Headers: reqCfg.headers,
			})
			if err != nil {
				yield(nil, err)
				return
			}
			if resp.StatusCode >= http.StatusBadRequest {
				yield(nil, classifyError(resp.StatusCode, resp.Headers, resp.Body))
				return
			}

			var envelope struct {
				TotalCount int               `json:"total_count"`
				Items      []json.RawMessage `json:"items"`
			}
			if err := json.Unmarshal(resp.Body, &envelope); err != nil {
				yield(nil, fmt.Errorf("ghapi: decoding search page %d: %w", page, err))
				return
			}

			if len(envelope.Items) == 0 {
				return
			}

			for _, item := range envelope.Items {
				if err := ctx.Err(); err != nil {
					yield(nil, err)
					return
				}
				if !yield(item, nil) {
					return
				}
			}

			if len(envelope.Items) < maxPerPage || page*maxPerPage >= envelope.TotalCount {
				return
			}
		}
	}
}

// upload sends raw bytes through the transport's upload path and runs
// the response through the usual error classification.
func (c *Client) upload(ctx context.Context, path, name, contentType string, content []byte) (json.RawMessage, error) {
	resp, err := c.transport.Upload(ctx, path, name, contentType, content)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classifyError(resp.StatusCode, resp.Headers, resp.Body)
	}
	return json.RawMessage(resp.Body), nil
}

func cloneQuery(query url.Values) url.Values {
	q := make(url.Values, len(query)+2)
	for key, values := range query {
		q[key] = values
	}
	return q
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
