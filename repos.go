package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
)

// ReposService provides operations on repositories.
type ReposService struct {
	client *Client
}

// RepoListOptions filters repository listings.
type RepoListOptions struct {
	// Type filters by affiliation; valid values depend on the listing
	// (all, owner, member for users; all, public, private, forks,
	// sources, member for organizations).
	Type      string
	Sort      string
	Direction string
	PerPage   int
}

func (o *RepoListOptions) query(defaultType string) url.Values {
	if o == nil {
		o = &RepoListOptions{}
	}
	q := url.Values{}
	q.Set("type", orDefault(o.Type, defaultType))
	q.Set("sort", orDefault(o.Sort, "full_name"))
	q.Set("direction", orDefault(o.Direction, "asc"))
	return q
}

// RepoRequest contains data for creating a repository.
type RepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	Private     bool   `json:"private"`
	AutoInit    bool   `json:"auto_init"`
}

// RepoPatch contains fields to update on a repository. Nil fields are
// left untouched.
type RepoPatch struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	Homepage      *string `json:"homepage,omitempty"`
	Private       *bool   `json:"private,omitempty"`
	DefaultBranch *string `json:"default_branch,omitempty"`
	Archived      *bool   `json:"archived,omitempty"`
}

// Get retrieves a repository.
func (s *ReposService) Get(ctx context.Context, owner, repo string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, repoPath(owner, repo), nil, nil, opts...)
}

// ListForUser iterates over a user's repositories.
func (s *ReposService) ListForUser(ctx context.Context, username string, listOpts *RepoListOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/users/"+username+"/repos", listOpts.query("owner"), perPageOf(listOpts), opts...)
}

// ListForOrg iterates over an organization's repositories.
func (s *ReposService) ListForOrg(ctx context.Context, org string, listOpts *RepoListOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/orgs/"+org+"/repos", listOpts.query("all"), perPageOf(listOpts), opts...)
}

// ListForAuthenticatedUser iterates over the authenticated user's
// repositories.
func (s *ReposService) ListForAuthenticatedUser(ctx context.Context, listOpts *RepoListOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	q := url.Values{}
	q.Set("sort", "full_name")
	q.Set("direction", "asc")
	if listOpts != nil {
		setNonEmpty(q, "sort", listOpts.Sort)
		setNonEmpty(q, "direction", listOpts.Direction)
	}
	return s.client.Paginate(ctx, http.MethodGet, "/user/repos", q, perPageOf(listOpts), opts...)
}

// Create creates a repository for the authenticated user.
func (s *ReposService) Create(ctx context.Context, req *RepoRequest, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, "/user/repos", nil, req, opts...)
}

// CreateForOrg creates a repository in an organization.
func (s *ReposService) CreateForOrg(ctx context.Context, org string, req *RepoRequest, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, "/orgs/"+org+"/repos", nil, req, opts...)
}

// Update modifies repository settings.
func (s *ReposService) Update(ctx context.Context, owner, repo string, patch *RepoPatch, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPatch, repoPath(owner, repo), nil, patch, opts...)
}

// Delete deletes a repository.
func (s *ReposService) Delete(ctx context.Context, owner, repo string, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, repoPath(owner, repo), nil, nil, opts...)
	return err
}

// ListContributors iterates over a repository's contributors.
func (s *ReposService) ListContributors(ctx context.Context, owner, repo string, anon bool, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	q := url.Values{}
	q.Set("anon", strconv.FormatBool(anon))
	return s.client.Paginate(ctx, http.MethodGet, repoPath(owner, repo)+"/contributors", q, 0, opts...)
}

// ListLanguages returns the byte counts per language of a repository.
func (s *ReposService) ListLanguages(ctx context.Context, owner, repo string, opts ...RequestOption) (map[string]int64, error) {
	raw, err := s.client.Do(ctx, http.MethodGet, repoPath(owner, repo)+"/languages", nil, nil, opts...)
	if err != nil {
		return nil, err
	}
	languages := map[string]int64{}
	if err := json.Unmarshal(raw, &languages); err != nil {
		return nil, fmt.Errorf("ghapi: decoding languages: %w", err)
	}
	return languages, nil
}

// ListTags iterates over a repository's tags.
func (s *ReposService) ListTags(ctx context.Context, owner, repo string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, repoPath(owner, repo)+"/tags", nil, 0, opts...)
}

// ListBranches iterates over a repository's branches. protected may be
// nil to list all branches.
func (s *ReposService) ListBranches(ctx context.Context, owner, repo string, protected *bool, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	q := url.Values{}
	if protected != nil {
		q.Set("protected", strconv.FormatBool(*protected))
	}
	return s.client.Paginate(ctx, http.MethodGet, repoPath(owner, repo)+"/branches", q, 0, opts...)
}

func repoPath(owner, repo string) string {
	return fmt.Sprintf("/repos/%s/%s", owner, repo)
}

func perPageOf(o *RepoListOptions) int {
	if o == nil {
		return 0
	}
	return o.PerPage
}
