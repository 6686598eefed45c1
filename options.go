package ghapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	uploadURL  string
	token      string
	tokenSet   bool
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	autoRetry  bool
	maxRetries int
	limiter    *rate.Limiter
}

// WithBaseURL sets the API base URL. Use this for GitHub Enterprise
// installations; the default is https://api.github.com.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithUploadURL sets the host used for release asset uploads.
func WithUploadURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.uploadURL = url
	}
}

// WithToken sets an explicit access token, bypassing the automatic
// lookup through the environment, the gh CLI and hosts.yml.
func WithToken(token string) ClientOption {
	return func(c *clientConfig) {
		c.token = token
		c.tokenSet = true
	}
}

// WithoutAuth disables authentication entirely, including the automatic
// token lookup. Requests are sent without an Authorization header.
func WithoutAuth() ClientOption {
	return func(c *clientConfig) {
		c.token = ""
		c.tokenSet = true
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout. It applies to each HTTP
// call individually, not to a whole retry sequence; callers wanting an
// overall deadline should use a context.
// Note: this option is ignored when WithHTTPClient is used; set the
// timeout directly on the provided client instead.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

// WithAutoRetry enables transparent retries on rate-limited responses.
// maxRetries bounds the retries after the initial attempt.
func WithAutoRetry(maxRetries int) ClientOption {
	return func(c *clientConfig) {
		c.autoRetry = true
		c.maxRetries = maxRetries
	}
}

// WithRateLimiter installs a client-side request throttle. The engine
// waits on the limiter before every attempt, retries included.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(c *clientConfig) {
		c.limiter = l
	}
}

// RequestOption configures individual API requests.
type RequestOption func(*requestConfig)

type requestConfig struct {
	headers http.Header
}

func newRequestConfig() *requestConfig {
	return &requestConfig{
		headers: make(http.Header),
	}
}

func (r *requestConfig) apply(opts ...RequestOption) {
	for _, opt := range opts {
		opt(r)
	}
}

// WithHeader adds a custom header to a request.
func WithHeader(key, value string) RequestOption {
	return func(r *requestConfig) {
		r.headers.Set(key, value)
	}
}

// WithHeaders adds multiple custom headers to a request.
func WithHeaders(headers map[string]string) RequestOption {
	return func(r *requestConfig) {
		for k, v := range headers {
			r.headers.Set(k, v)
		}
	}
}
