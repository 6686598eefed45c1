package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
)

// IssuesService provides operations on repository issues.
//
// Methods operate on raw JSON payloads; the Repo facade wraps them into
// typed models.
type IssuesService struct {
	client *Client
}

// IssueListOptions filters issue listings. Zero-valued fields are
// omitted from the query; State, Sort and Direction fall back to the
// API defaults open/created/desc.
type IssueListOptions struct {
	State     string
	Sort      string
	Direction string
	Labels    string
	Assignee  string
	Creator   string
	Mentioned string
	Milestone string
	Since     string
	PerPage   int
}

func (o *IssueListOptions) query() url.Values {
	if o == nil {
		o = &IssueListOptions{}
	}
	q := url.Values{}
	q.Set("state", orDefault(o.State, "open"))
	q.Set("sort", orDefault(o.Sort, "created"))
	q.Set("direction", orDefault(o.Direction, "desc"))
	setNonEmpty(q, "labels", o.Labels)
	setNonEmpty(q, "assignee", o.Assignee)
	setNonEmpty(q, "creator", o.Creator)
	setNonEmpty(q, "mentioned", o.Mentioned)
	setNonEmpty(q, "milestone", o.Milestone)
	setNonEmpty(q, "since", o.Since)
	return q
}

// IssueRequest contains data for creating an issue.
type IssueRequest struct {
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Milestone int      `json:"milestone,omitempty"`
}

// IssuePatch contains fields to update on an issue. Nil fields are
// left untouched.
type IssuePatch struct {
	Title     *string  `json:"title,omitempty"`
	Body      *string  `json:"body,omitempty"`
	State     *string  `json:"state,omitempty"`
	Labels    []string `json:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	Milestone *int     `json:"milestone,omitempty"`
}

// Get retrieves an issue by number.
func (s *IssuesService) Get(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, issuePath(owner, repo, number), nil, nil, opts...)
}

// List iterates over a repository's issues. Pull requests, which the
// API reports on the same endpoint, are filtered out.
func (s *IssuesService) List(ctx context.Context, owner, repo string, listOpts *IssueListOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	perPage := 0
	if listOpts != nil {
		perPage = listOpts.PerPage
	}
	pages := s.client.Paginate(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), listOpts.query(), perPage, opts...)

	return func(yield func(json.RawMessage, error) bool) {
		for item, err := range pages {
			if err != nil {
				yield(nil, err)
				return
			}
			if isPullRequestPayload(item) {
				continue
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// isPullRequestPayload probes for the pull_request key that marks a PR
// returned from the issues endpoint.
func isPullRequestPayload(item json.RawMessage) bool {
	var probe struct {
		PullRequest json.RawMessage `json:"pull_request"`
	}
	return json.Unmarshal(item, &probe) == nil && probe.PullRequest != nil
}

// Create opens a new issue.
func (s *IssuesService) Create(ctx context.Context, owner, repo string, req *IssueRequest, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), nil, req, opts...)
}

// Update modifies an issue.
func (s *IssuesService) Update(ctx context.Context, owner, repo string, number int, patch *IssuePatch, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPatch, issuePath(owner, repo, number), nil, patch, opts...)
}

// Close closes an issue.
func (s *IssuesService) Close(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (json.RawMessage, error) {
	return s.Update(ctx, owner, repo, number, &IssuePatch{State: String("closed")}, opts...)
}

// Reopen reopens a closed issue.
func (s *IssuesService) Reopen(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (json.RawMessage, error) {
	return s.Update(ctx, owner, repo, number, &IssuePatch{State: String("open")}, opts...)
}

// Lock locks an issue. reason may be one of off-topic, too heated,
// resolved, spam, or empty.
func (s *IssuesService) Lock(ctx context.Context, owner, repo string, number int, reason string, opts ...RequestOption) error {
	var body any
	if reason != "" {
		body = map[string]string{"lock_reason": reason}
	}
	_, err := s.client.Do(ctx, http.MethodPut, issuePath(owner, repo, number)+"/lock", nil, body, opts...)
	return err
}

// Unlock unlocks an issue.
func (s *IssuesService) Unlock(ctx context.Context, owner, repo string, number int, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, issuePath(owner, repo, number)+"/lock", nil, nil, opts...)
	return err
}

// ListComments iterates over the comments on an issue.
func (s *IssuesService) ListComments(ctx context.Context, owner, repo string, number int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, issuePath(owner, repo, number)+"/comments", nil, 0, opts...)
}

// CreateComment adds a comment to an issue.
func (s *IssuesService) CreateComment(ctx context.Context, owner, repo string, number int, body string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, issuePath(owner, repo, number)+"/comments", nil, map[string]string{"body": body}, opts...)
}

// ListLabels iterates over the labels on an issue.
func (s *IssuesService) ListLabels(ctx context.Context, owner, repo string, number int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, issuePath(owner, repo, number)+"/labels", nil, 0, opts...)
}

// AddLabels adds labels to an issue and returns the issue's full label
// set.
func (s *IssuesService) AddLabels(ctx context.Context, owner, repo string, number int, labels []string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, issuePath(owner, repo, number)+"/labels", nil, map[string][]string{"labels": labels}, opts...)
}

// RemoveLabel removes one label from an issue.
func (s *IssuesService) RemoveLabel(ctx context.Context, owner, repo string, number int, label string, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, issuePath(owner, repo, number)+"/labels/"+url.PathEscape(label), nil, nil, opts...)
	return err
}

func issuePath(owner, repo string, number int) string {
	return fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func setNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
