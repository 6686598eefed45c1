package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
)

// PullsService provides operations on pull requests.
type PullsService struct {
	client *Client
}

// PullListOptions filters pull request listings.
type PullListOptions struct {
	State     string
	Sort      string
	Direction string
	Head      string
	Base      string
	PerPage   int
}

func (o *PullListOptions) query() url.Values {
	if o == nil {
		o = &PullListOptions{}
	}
	q := url.Values{}
	q.Set("state", orDefault(o.State, "open"))
	q.Set("sort", orDefault(o.Sort, "created"))
	q.Set("direction", orDefault(o.Direction, "desc"))
	setNonEmpty(q, "head", o.Head)
	setNonEmpty(q, "base", o.Base)
	return q
}

// PullRequestNew contains data for opening a pull request.
type PullRequestNew struct {
	Title               string `json:"title"`
	Head                string `json:"head"`
	Base                string `json:"base"`
	Body                string `json:"body,omitempty"`
	Draft               bool   `json:"draft"`
	MaintainerCanModify bool   `json:"maintainer_can_modify"`
}

// PullPatch contains fields to update on a pull request. Nil fields are
// left untouched.
type PullPatch struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
	State *string `json:"state,omitempty"`
	Base  *string `json:"base,omitempty"`
}

// MergeOptions configures a pull request merge.
type MergeOptions struct {
	CommitTitle   string `json:"commit_title,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	// MergeMethod is one of merge, squash, rebase; empty means merge.
	MergeMethod string `json:"merge_method,omitempty"`
	SHA         string `json:"sha,omitempty"`
}

// ReviewRequest contains data for submitting a pull request review.
// Event is one of APPROVE, REQUEST_CHANGES, COMMENT.
type ReviewRequest struct {
	Body     string          `json:"body,omitempty"`
	Event    string          `json:"event"`
	Comments []ReviewComment `json:"comments,omitempty"`
}

// ReviewComment is an inline comment attached to a review.
type ReviewComment struct {
	Path     string `json:"path"`
	Position int    `json:"position,omitempty"`
	Body     string `json:"body"`
}

// ReviewersRequest names the reviewers to request on a pull request.
type ReviewersRequest struct {
	Reviewers     []string `json:"reviewers,omitempty"`
	TeamReviewers []string `json:"team_reviewers,omitempty"`
}

// Get retrieves a pull request by number.
func (s *PullsService) Get(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, pullPath(owner, repo, number), nil, nil, opts...)
}

// List iterates over a repository's pull requests.
func (s *PullsService) List(ctx context.Context, owner, repo string, listOpts *PullListOptions, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	perPage := 0
	if listOpts != nil {
		perPage = listOpts.PerPage
	}
	return s.client.Paginate(ctx, http.MethodGet, fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), listOpts.query(), perPage, opts...)
}

// Create opens a pull request.
func (s *PullsService) Create(ctx context.Context, owner, repo string, req *PullRequestNew, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, fmt.Sprintf("/repos/%s/%s/pulls", owner, repo), nil, req, opts...)
}

// Update modifies a pull request.
func (s *PullsService) Update(ctx context.Context, owner, repo string, number int, patch *PullPatch, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPatch, pullPath(owner, repo, number), nil, patch, opts...)
}

// Close closes a pull request without merging.
func (s *PullsService) Close(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (json.RawMessage, error) {
	return s.Update(ctx, owner, repo, number, &PullPatch{State: String("closed")}, opts...)
}

// Merge merges a pull request. A nil opts merges with the default
// method.
func (s *PullsService) Merge(ctx context.Context, owner, repo string, number int, mergeOpts *MergeOptions, opts ...RequestOption) (json.RawMessage, error) {
	if mergeOpts == nil {
		mergeOpts = &MergeOptions{}
	}
	if mergeOpts.MergeMethod == "" {
		mergeOpts.MergeMethod = "merge"
	}
	return s.client.Do(ctx, http.MethodPut, pullPath(owner, repo, number)+"/merge", nil, mergeOpts, opts...)
}

// IsMerged reports whether a pull request has been merged. The API
// answers with 204 when merged and 404 when not; the 404 is converted
// to false, every other error propagates.
func (s *PullsService) IsMerged(ctx context.Context, owner, repo string, number int, opts ...RequestOption) (bool, error) {
	_, err := s.client.Do(ctx, http.MethodGet, pullPath(owner, repo, number)+"/merge", nil, nil, opts...)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListCommits iterates over the commits on a pull request.
func (s *PullsService) ListCommits(ctx context.Context, owner, repo string, number int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, pullPath(owner, repo, number)+"/commits", nil, 0, opts...)
}

// ListFiles iterates over the files changed in a pull request.
func (s *PullsService) ListFiles(ctx context.Context, owner, repo string, number int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, pullPath(owner, repo, number)+"/files", nil, 0, opts...)
}

// ListReviews iterates over the reviews on a pull request.
func (s *PullsService) ListReviews(ctx context.Context, owner, repo string, number int, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, pullPath(owner, repo, number)+"/reviews", nil, 0, opts...)
}

// CreateReview submits a review on a pull request.
func (s *PullsService) CreateReview(ctx context.Context, owner, repo string, number int, review *ReviewRequest, opts ...RequestOption) (json.RawMessage, error) {
	if review == nil {
		review = &ReviewRequest{}
	}
	if review.Event == "" {
		review.Event = "COMMENT"
	}
	return s.client.Do(ctx, http.MethodPost, pullPath(owner, repo, number)+"/reviews", nil, review, opts...)
}

// RequestReviewers requests reviews from users or teams.
func (s *PullsService) RequestReviewers(ctx context.Context, owner, repo string, number int, req *ReviewersRequest, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, pullPath(owner, repo, number)+"/requested_reviewers", nil, req, opts...)
}

func pullPath(owner, repo string, number int) string {
	return fmt.Sprintf("/repos/%s/%s/pulls/%d", owner, repo, number)
}
