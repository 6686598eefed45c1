package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tphakala/go-ghapi/internal/api"
)

// SearchService provides access to the search API. Search results are
// always ordered by relevance within the requested sort, arrive in an
// envelope carrying a total count, and use a fixed page size of 100.
type SearchService struct {
	client *Client
}

// SearchOptions refines a search. Sort fields depend on the entity
// being searched; Order is asc or desc.
type SearchOptions struct {
	Sort  string
	Order string
}

func (o *SearchOptions) query(searchQuery string) url.Values {
	if o == nil {
		o = &SearchOptions{}
	}
	q := url.Values{}
	q.Set("q", searchQuery)
	q.Set("order", orDefault(o.Order, "desc"))
	setNonEmpty(q, "sort", o.Sort)
	return q
}

// Issues iterates over issues and pull requests matching the query,
// e.g. "is:issue is:open repo:owner/repo".
func (s *SearchService) Issues(ctx context.Context, query string, searchOpts *SearchOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.searchPages(ctx, "/search/issues", searchOpts.query(query), opts...)
}

// Repositories iterates over repositories matching the query, e.g.
// "language:go stars:>1000".
func (s *SearchService) Repositories(ctx context.Context, query string, searchOpts *SearchOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.searchPages(ctx, "/search/repositories", searchOpts.query(query), opts...)
}

// Code iterates over code matching the query, e.g.
// "addClass in:file language:js".
func (s *SearchService) Code(ctx context.Context, query string, searchOpts *SearchOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.searchPages(ctx, "/search/code", searchOpts.query(query), opts...)
}

// Users iterates over users matching the query, e.g.
// "type:user location:tokyo".
func (s *SearchService) Users(ctx context.Context, query string, searchOpts *SearchOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.searchPages(ctx, "/search/users", searchOpts.query(query), opts...)
}

// Commits iterates over commits matching the query, e.g.
// "fix bug repo:owner/repo".
func (s *SearchService) Commits(ctx context.Context, query string, searchOpts *SearchOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.searchPages(ctx, "/search/commits", searchOpts.query(query), opts...)
}

// IssuesPage returns a single page of issue search results for manual
// pagination control. page is 1-based.
func (s *SearchService) IssuesPage(ctx context.Context, query string, searchOpts *SearchOptions, page int, opts ...RequestOption) (*SearchResult, error) {
	return s.page(ctx, "/search/issues", searchOpts.query(query), page, opts...)
}

// RepositoriesPage returns a single page of repository search results.
func (s *SearchService) RepositoriesPage(ctx context.Context, query string, searchOpts *SearchOptions, page int, opts ...RequestOption) (*SearchResult, error) {
	return s.page(ctx, "/search/repositories", searchOpts.query(query), page, opts...)
}

// page fetches one search page. Like the search iterator it bypasses
// the auto-retry path; search quotas are tracked separately by the API.
func (s *SearchService) page(ctx context.Context, path string, query url.Values, page int, opts ...RequestOption) (*SearchResult, error) {
	reqCfg := newRequestConfig()
	reqCfg.apply(opts...)

	if page < 1 {
		page = 1
	}
	query.Set("per_page", strconv.Itoa(maxPerPage))
	query.Set("page", strconv.Itoa(page))

	resp, err := s.client.transport.Do(ctx, &api.Request{
		Method:  http.MethodGet,
		Path:    path,
		Query:   query,
		Headers: reqCfg.headers,
	})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classifyError(resp.StatusCode, resp.Headers, resp.Body)
	}

	result, err := ParseSearchResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ghapi: decoding search page %d: %w", page, err)
	}
	return result, nil
}
