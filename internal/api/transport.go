// Package api provides low-level HTTP transport for GitHub API calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tphakala/go-ghapi/internal/auth"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMaxBodySize = 50 * 1024 * 1024 // 50MB
)

// Header values sent on every request, per the GitHub REST API docs.
const (
	acceptHeader     = "application/vnd.github+json"
	apiVersionHeader = "2022-11-28"
)

// Transport handles HTTP communication with the GitHub API.
type Transport struct {
	BaseURL     *url.URL
	UploadURL   *url.URL
	HTTPClient  *http.Client
	Credentials *auth.Credentials
	UserAgent   string
}

// NewTransport creates a Transport with the given configuration.
// Credentials may be empty for unauthenticated access.
func NewTransport(baseURL, uploadURL string, creds *auth.Credentials, httpClient *http.Client) (*Transport, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	upload, err := url.Parse(strings.TrimSuffix(uploadURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid upload URL: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: defaultHTTPTimeout,
		}
	}

	return &Transport{
		BaseURL:     base,
		UploadURL:   upload,
		HTTPClient:  httpClient,
		Credentials: creds,
		UserAgent:   "go-ghapi/1.0",
	}, nil
}

// Request represents an API request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// Do executes an API request and returns the raw response.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	return t.roundTrip(httpReq)
}

// Upload sends raw bytes to the upload host. Asset uploads bypass the
// JSON request path: the body is the file content, the content type is
// caller-specified and the asset name travels as a query parameter.
func (t *Transport) Upload(ctx context.Context, path, name, contentType string, content []byte) (*Response, error) {
	u := t.UploadURL.JoinPath(path)
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("creating upload request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	t.setCommonHeaders(httpReq)

	return t.roundTrip(httpReq)
}

func (t *Transport) roundTrip(httpReq *http.Request) (*Response, error) {
	httpResp, err := t.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	// Limit response body size to prevent memory exhaustion
	limitedReader := io.LimitReader(httpResp.Body, defaultMaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if int64(len(body)) > defaultMaxBodySize {
		return nil, fmt.Errorf("response too large: exceeds %d bytes", defaultMaxBodySize)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
	}, nil
}

func (t *Transport) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	u := t.BaseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	t.setCommonHeaders(httpReq)

	// Apply custom headers
	maps.Copy(httpReq.Header, req.Headers)

	return httpReq, nil
}

func (t *Transport) setCommonHeaders(httpReq *http.Request) {
	httpReq.Header.Set("Accept", acceptHeader)
	httpReq.Header.Set("X-GitHub-Api-Version", apiVersionHeader)
	httpReq.Header.Set("User-Agent", t.UserAgent)
	t.Credentials.Apply(httpReq)
}

// CloseIdleConnections releases pooled connections held by the
// underlying HTTP client.
func (t *Transport) CloseIdleConnections() {
	t.HTTPClient.CloseIdleConnections()
}
