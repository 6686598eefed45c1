package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
)

// Repo is a facade bound to a single repository. Methods on it and on
// its Issues, Pulls, and Releases groups take issue numbers, tags, and
// IDs instead of repeating the owner/name pair, and return typed models
// bound back to the same repository.
type Repo struct {
	Owner string
	Name  string

	Issues   *RepoIssues
	Pulls    *RepoPulls
	Releases *RepoReleases

	client *Client
}

func newRepo(client *Client, owner, name string) *Repo {
	r := &Repo{
		Owner:  owner,
		Name:   name,
		client: client,
	}
	r.Issues = &RepoIssues{repo: r}
	r.Pulls = &RepoPulls{repo: r}
	r.Releases = &RepoReleases{repo: r}
	return r
}

// FullName returns the owner/name pair.
func (r *Repo) FullName() string {
	return r.Owner + "/" + r.Name
}

// Get fetches the repository.
func (r *Repo) Get(ctx context.Context) (*Repository, error) {
	raw, err := r.client.Repos.Get(ctx, r.Owner, r.Name)
	if err != nil {
		return nil, err
	}
	return r.parseRepository(raw)
}

// Update modifies the repository's settings.
func (r *Repo) Update(ctx context.Context, patch *RepoPatch) (*Repository, error) {
	raw, err := r.client.Repos.Update(ctx, r.Owner, r.Name, patch)
	if err != nil {
		return nil, err
	}
	return r.parseRepository(raw)
}

// Delete deletes the repository.
func (r *Repo) Delete(ctx context.Context) error {
	return r.client.Repos.Delete(ctx, r.Owner, r.Name)
}

// Languages returns the repository's byte counts per language.
func (r *Repo) Languages(ctx context.Context) (map[string]int64, error) {
	return r.client.Repos.ListLanguages(ctx, r.Owner, r.Name)
}

// Contributors iterates over the repository's contributors.
func (r *Repo) Contributors(ctx context.Context) iter.Seq2[*User, error] {
	return mapSeq(r.client.Repos.ListContributors(ctx, r.Owner, r.Name, false), ParseUser)
}

// Tags iterates over the repository's tags.
func (r *Repo) Tags(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	return r.client.Repos.ListTags(ctx, r.Owner, r.Name)
}

// Branches iterates over the repository's branches.
func (r *Repo) Branches(ctx context.Context) iter.Seq2[*Branch, error] {
	return mapSeq(r.client.Repos.ListBranches(ctx, r.Owner, r.Name, nil), ParseBranch)
}

// Branch fetches a single branch by name.
func (r *Repo) Branch(ctx context.Context, name string) (*Branch, error) {
	raw, err := r.client.Do(ctx, http.MethodGet, repoPath(r.Owner, r.Name)+"/branches/"+name, nil, nil)
	if err != nil {
		return nil, err
	}
	return ParseBranch(raw)
}

// Star stars the repository as the authenticated user.
func (r *Repo) Star(ctx context.Context) error {
	_, err := r.client.Do(ctx, http.MethodPut, "/user/starred/"+r.FullName(), nil, nil)
	return err
}

// Unstar removes the authenticated user's star.
func (r *Repo) Unstar(ctx context.Context) error {
	_, err := r.client.Do(ctx, http.MethodDelete, "/user/starred/"+r.FullName(), nil, nil)
	return err
}

// IsStarred reports whether the authenticated user has starred the
// repository. A 404 means not starred.
func (r *Repo) IsStarred(ctx context.Context) (bool, error) {
	return notFoundMeansFalse(r.client.Do(ctx, http.MethodGet, "/user/starred/"+r.FullName(), nil, nil))
}

// CreateFork forks the repository, optionally into an organization.
func (r *Repo) CreateFork(ctx context.Context, organization string) (*Repository, error) {
	var body any
	if organization != "" {
		body = map[string]string{"organization": organization}
	}
	raw, err := r.client.Do(ctx, http.MethodPost, repoPath(r.Owner, r.Name)+"/forks", nil, body)
	if err != nil {
		return nil, err
	}
	return r.parseRepository(raw)
}

// Subscribe watches the repository as the authenticated user.
func (r *Repo) Subscribe(ctx context.Context) error {
	_, err := r.client.Do(ctx, http.MethodPut, repoPath(r.Owner, r.Name)+"/subscription", nil, map[string]bool{"subscribed": true})
	return err
}

// Unsubscribe stops watching the repository.
func (r *Repo) Unsubscribe(ctx context.Context) error {
	_, err := r.client.Do(ctx, http.MethodDelete, repoPath(r.Owner, r.Name)+"/subscription", nil, nil)
	return err
}

func (r *Repo) parseRepository(raw json.RawMessage) (*Repository, error) {
	repository, err := ParseRepository(raw)
	if err != nil {
		return nil, err
	}
	return repository.bind(r.client), nil
}

// RepoIssues exposes issue operations bound to one repository.
type RepoIssues struct {
	repo *Repo
}

// Get fetches an issue by number.
func (ri *RepoIssues) Get(ctx context.Context, number int) (*Issue, error) {
	raw, err := ri.repo.client.Issues.Get(ctx, ri.repo.Owner, ri.repo.Name, number)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, ri.repo)
}

// List iterates over the repository's issues. Pull requests are
// excluded even though the underlying listing interleaves them.
func (ri *RepoIssues) List(ctx context.Context, listOpts *IssueListOptions) iter.Seq2[*Issue, error] {
	return boundSeq(ri.repo.client.Issues.List(ctx, ri.repo.Owner, ri.repo.Name, listOpts), ri.repo, parseBoundIssue)
}

// Create opens a new issue.
func (ri *RepoIssues) Create(ctx context.Context, req *IssueRequest) (*Issue, error) {
	raw, err := ri.repo.client.Issues.Create(ctx, ri.repo.Owner, ri.repo.Name, req)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, ri.repo)
}

// Update modifies an issue.
func (ri *RepoIssues) Update(ctx context.Context, number int, patch *IssuePatch) (*Issue, error) {
	raw, err := ri.repo.client.Issues.Update(ctx, ri.repo.Owner, ri.repo.Name, number, patch)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, ri.repo)
}

// Close closes an issue by number.
func (ri *RepoIssues) Close(ctx context.Context, number int) (*Issue, error) {
	raw, err := ri.repo.client.Issues.Close(ctx, ri.repo.Owner, ri.repo.Name, number)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, ri.repo)
}

// Reopen reopens an issue by number.
func (ri *RepoIssues) Reopen(ctx context.Context, number int) (*Issue, error) {
	raw, err := ri.repo.client.Issues.Reopen(ctx, ri.repo.Owner, ri.repo.Name, number)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, ri.repo)
}

// ListComments iterates over an issue's comments.
func (ri *RepoIssues) ListComments(ctx context.Context, number int) iter.Seq2[*Comment, error] {
	return boundSeq(ri.repo.client.Issues.ListComments(ctx, ri.repo.Owner, ri.repo.Name, number), ri.repo, parseBoundComment)
}

// RepoPulls exposes pull request operations bound to one repository.
type RepoPulls struct {
	repo *Repo
}

// Get fetches a pull request by number.
func (rp *RepoPulls) Get(ctx context.Context, number int) (*PullRequest, error) {
	raw, err := rp.repo.client.Pulls.Get(ctx, rp.repo.Owner, rp.repo.Name, number)
	if err != nil {
		return nil, err
	}
	return parseBoundPull(raw, rp.repo)
}

// List iterates over the repository's pull requests.
func (rp *RepoPulls) List(ctx context.Context, listOpts *PullListOptions) iter.Seq2[*PullRequest, error] {
	return boundSeq(rp.repo.client.Pulls.List(ctx, rp.repo.Owner, rp.repo.Name, listOpts), rp.repo, parseBoundPull)
}

// Create opens a new pull request.
func (rp *RepoPulls) Create(ctx context.Context, req *PullRequestNew) (*PullRequest, error) {
	raw, err := rp.repo.client.Pulls.Create(ctx, rp.repo.Owner, rp.repo.Name, req)
	if err != nil {
		return nil, err
	}
	return parseBoundPull(raw, rp.repo)
}

// Update modifies a pull request.
func (rp *RepoPulls) Update(ctx context.Context, number int, patch *PullPatch) (*PullRequest, error) {
	raw, err := rp.repo.client.Pulls.Update(ctx, rp.repo.Owner, rp.repo.Name, number, patch)
	if err != nil {
		return nil, err
	}
	return parseBoundPull(raw, rp.repo)
}

// Merge merges a pull request by number.
func (rp *RepoPulls) Merge(ctx context.Context, number int, opts *MergeOptions) (json.RawMessage, error) {
	return rp.repo.client.Pulls.Merge(ctx, rp.repo.Owner, rp.repo.Name, number, opts)
}

// IsMerged reports whether a pull request has been merged.
func (rp *RepoPulls) IsMerged(ctx context.Context, number int) (bool, error) {
	return rp.repo.client.Pulls.IsMerged(ctx, rp.repo.Owner, rp.repo.Name, number)
}

// RepoReleases exposes release operations bound to one repository.
type RepoReleases struct {
	repo *Repo
}

// List iterates over the repository's releases.
func (rr *RepoReleases) List(ctx context.Context) iter.Seq2[*Release, error] {
	return mapSeq(rr.repo.client.Releases.List(ctx, rr.repo.Owner, rr.repo.Name), ParseRelease)
}

// Get fetches a release by ID.
func (rr *RepoReleases) Get(ctx context.Context, releaseID int64) (*Release, error) {
	raw, err := rr.repo.client.Releases.Get(ctx, rr.repo.Owner, rr.repo.Name, releaseID)
	if err != nil {
		return nil, err
	}
	return ParseRelease(raw)
}

// Latest fetches the latest published release.
func (rr *RepoReleases) Latest(ctx context.Context) (*Release, error) {
	raw, err := rr.repo.client.Releases.GetLatest(ctx, rr.repo.Owner, rr.repo.Name)
	if err != nil {
		return nil, err
	}
	return ParseRelease(raw)
}

// ByTag fetches a release by tag name.
func (rr *RepoReleases) ByTag(ctx context.Context, tag string) (*Release, error) {
	raw, err := rr.repo.client.Releases.GetByTag(ctx, rr.repo.Owner, rr.repo.Name, tag)
	if err != nil {
		return nil, err
	}
	return ParseRelease(raw)
}

// Create creates a release.
func (rr *RepoReleases) Create(ctx context.Context, req *ReleaseRequest) (*Release, error) {
	raw, err := rr.repo.client.Releases.Create(ctx, rr.repo.Owner, rr.repo.Name, req)
	if err != nil {
		return nil, err
	}
	return ParseRelease(raw)
}

// Update modifies a release.
func (rr *RepoReleases) Update(ctx context.Context, releaseID int64, patch *ReleasePatch) (*Release, error) {
	raw, err := rr.repo.client.Releases.Update(ctx, rr.repo.Owner, rr.repo.Name, releaseID, patch)
	if err != nil {
		return nil, err
	}
	return ParseRelease(raw)
}

// Delete deletes a release.
func (rr *RepoReleases) Delete(ctx context.Context, releaseID int64) error {
	return rr.repo.client.Releases.Delete(ctx, rr.repo.Owner, rr.repo.Name, releaseID)
}

// UploadAsset uploads raw bytes as an asset on a release.
func (rr *RepoReleases) UploadAsset(ctx context.Context, releaseID int64, name, contentType string, content []byte) (*ReleaseAsset, error) {
	raw, err := rr.repo.client.Releases.UploadAsset(ctx, rr.repo.Owner, rr.repo.Name, releaseID, name, contentType, content)
	if err != nil {
		return nil, err
	}
	return ParseReleaseAsset(raw)
}

// notFoundMeansFalse adapts existence probes where the API answers 404
// for "no": a 404 becomes false, any other error propagates.
func notFoundMeansFalse(_ json.RawMessage, err error) (bool, error) {
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// boundSeq parses each raw element and binds the result to repo.
func boundSeq[T any](src iter.Seq2[json.RawMessage, error], repo *Repo, parse func(json.RawMessage, *Repo) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for raw, err := range src {
			if err != nil {
				if !yield(zero, err) {
					return
				}
				continue
			}
			model, err := parse(raw, repo)
			if !yield(model, err) {
				return
			}
		}
	}
}

// mapSeq parses each raw element of src with parse.
func mapSeq[T any](src iter.Seq2[json.RawMessage, error], parse func(json.RawMessage) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for raw, err := range src {
			if err != nil {
				if !yield(zero, err) {
					return
				}
				continue
			}
			model, err := parse(raw)
			if !yield(model, err) {
				return
			}
		}
	}
}
