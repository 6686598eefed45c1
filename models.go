package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"
)

// String returns a pointer to the given string, for patch structs.
func String(s string) *string { return &s }

// Int returns a pointer to the given int, for patch structs.
func Int(i int) *int { return &i }

// Bool returns a pointer to the given bool, for patch structs.
func Bool(b bool) *bool { return &b }

// User is a GitHub user or organization account.
type User struct {
	Login           string     `json:"login"`
	ID              int64      `json:"id"`
	AvatarURL       string     `json:"avatar_url"`
	HTMLURL         string     `json:"html_url"`
	Type            string     `json:"type"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Bio             string     `json:"bio"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	Blog            string     `json:"blog"`
	TwitterUsername string     `json:"twitter_username"`
	PublicRepos     int        `json:"public_repos"`
	PublicGists     int        `json:"public_gists"`
	Followers       int        `json:"followers"`
	Following       int        `json:"following"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`

	raw json.RawMessage
}

// ParseUser converts a raw API payload into a User.
func ParseUser(raw json.RawMessage) (*User, error) {
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("ghapi: parsing user: %w", err)
	}
	if u.Login == "" {
		return nil, fmt.Errorf("ghapi: user payload missing login")
	}
	if u.Type == "" {
		u.Type = "User"
	}
	u.raw = cloneRaw(raw)
	return &u, nil
}

// Raw returns the original payload the model was parsed from.
func (u *User) Raw() json.RawMessage { return u.raw }

// Label is an issue or pull request label.
type Label struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description"`
	Default     bool   `json:"default"`

	raw json.RawMessage
}

// ParseLabel converts a raw API payload into a Label.
func ParseLabel(raw json.RawMessage) (*Label, error) {
	var l Label
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("ghapi: parsing label: %w", err)
	}
	if l.Name == "" {
		return nil, fmt.Errorf("ghapi: label payload missing name")
	}
	l.raw = cloneRaw(raw)
	return &l, nil
}

// Raw returns the original payload the model was parsed from.
func (l *Label) Raw() json.RawMessage { return l.raw }

// Milestone is an issue milestone.
type Milestone struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	State        string     `json:"state"`
	OpenIssues   int        `json:"open_issues"`
	ClosedIssues int        `json:"closed_issues"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	DueOn        *time.Time `json:"due_on"`
	ClosedAt     *time.Time `json:"closed_at"`

	raw json.RawMessage
}

// ParseMilestone converts a raw API payload into a Milestone.
func ParseMilestone(raw json.RawMessage) (*Milestone, error) {
	var m Milestone
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("ghapi: parsing milestone: %w", err)
	}
	if m.Number == 0 {
		return nil, fmt.Errorf("ghapi: milestone payload missing number")
	}
	if m.State == "" {
		m.State = "open"
	}
	m.raw = cloneRaw(raw)
	return &m, nil
}

// Raw returns the original payload the model was parsed from.
func (m *Milestone) Raw() json.RawMessage { return m.raw }

// Comment is a comment on an issue or pull request.
type Comment struct {
	ID        int64      `json:"id"`
	Body      string     `json:"body"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	User      *User      `json:"-"`

	raw  json.RawMessage
	repo *Repo
}

// ParseComment converts a raw API payload into a Comment.
func ParseComment(raw json.RawMessage) (*Comment, error) {
	var c Comment
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("ghapi: parsing comment: %w", err)
	}
	if c.ID == 0 {
		return nil, fmt.Errorf("ghapi: comment payload missing id")
	}
	user, err := nestedUser(raw, "user")
	if err != nil {
		return nil, err
	}
	c.User = user
	c.raw = cloneRaw(raw)
	return &c, nil
}

// Raw returns the original payload the model was parsed from.
func (c *Comment) Raw() json.RawMessage { return c.raw }

func (c *Comment) bind(repo *Repo) *Comment {
	c.repo = repo
	return c
}

// Issue is an issue, bound to its repository when obtained through a
// Repo so that follow-up operations can be issued directly on it.
type Issue struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	State     string     `json:"state"`
	Locked    bool       `json:"locked"`
	HTMLURL   string     `json:"html_url"`
	Comments  int        `json:"comments"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at"`

	User      *User      `json:"-"`
	Assignee  *User      `json:"-"`
	Assignees []*User    `json:"-"`
	Labels    []*Label   `json:"-"`
	Milestone *Milestone `json:"-"`
	ClosedBy  *User      `json:"-"`

	raw  json.RawMessage
	repo *Repo
}

// ParseIssue converts a raw API payload into an Issue. Issues parsed
// directly are unbound; context-dependent methods on them return
// ErrNotBound.
func ParseIssue(raw json.RawMessage) (*Issue, error) {
	var i Issue
	if err := json.Unmarshal(raw, &i); err != nil {
		return nil, fmt.Errorf("ghapi: parsing issue: %w", err)
	}
	if i.Number == 0 {
		return nil, fmt.Errorf("ghapi: issue payload missing number")
	}
	if i.State == "" {
		i.State = "open"
	}

	var nested struct {
		User      json.RawMessage   `json:"user"`
		Assignee  json.RawMessage   `json:"assignee"`
		Assignees []json.RawMessage `json:"assignees"`
		Labels    []json.RawMessage `json:"labels"`
		Milestone json.RawMessage   `json:"milestone"`
		ClosedBy  json.RawMessage   `json:"closed_by"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("ghapi: parsing issue: %w", err)
	}

	var err error
	if i.User, err = optionalUser(nested.User); err != nil {
		return nil, err
	}
	if i.Assignee, err = optionalUser(nested.Assignee); err != nil {
		return nil, err
	}
	if i.ClosedBy, err = optionalUser(nested.ClosedBy); err != nil {
		return nil, err
	}
	for _, rawUser := range nested.Assignees {
		user, err := ParseUser(rawUser)
		if err != nil {
			return nil, err
		}
		i.Assignees = append(i.Assignees, user)
	}
	for _, rawLabel := range nested.Labels {
		label, err := ParseLabel(rawLabel)
		if err != nil {
			return nil, err
		}
		i.Labels = append(i.Labels, label)
	}
	if isJSONObject(nested.Milestone) {
		if i.Milestone, err = ParseMilestone(nested.Milestone); err != nil {
			return nil, err
		}
	}

	i.raw = cloneRaw(raw)
	return &i, nil
}

// Raw returns the original payload the model was parsed from.
func (i *Issue) Raw() json.RawMessage { return i.raw }

func (i *Issue) bind(repo *Repo) *Issue {
	i.repo = repo
	return i
}

// IsOpen reports whether the issue is open.
func (i *Issue) IsOpen() bool { return i.State == "open" }

// IsClosed reports whether the issue is closed.
func (i *Issue) IsClosed() bool { return i.State == "closed" }

// Close closes this issue and returns the updated issue.
func (i *Issue) Close(ctx context.Context) (*Issue, error) {
	if i.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := i.repo.client.Issues.Close(ctx, i.repo.Owner, i.repo.Name, i.Number)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, i.repo)
}

// Reopen reopens this issue and returns the updated issue.
func (i *Issue) Reopen(ctx context.Context) (*Issue, error) {
	if i.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := i.repo.client.Issues.Reopen(ctx, i.repo.Owner, i.repo.Name, i.Number)
	if err != nil {
		return nil, err
	}
	return parseBoundIssue(raw, i.repo)
}

// AddComment adds a comment to this issue.
func (i *Issue) AddComment(ctx context.Context, body string) (*Comment, error) {
	if i.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := i.repo.client.Issues.CreateComment(ctx, i.repo.Owner, i.repo.Name, i.Number, body)
	if err != nil {
		return nil, err
	}
	return parseBoundComment(raw, i.repo)
}

// AddLabels adds labels to this issue and returns the issue's full
// label set.
func (i *Issue) AddLabels(ctx context.Context, labels ...string) ([]*Label, error) {
	if i.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := i.repo.client.Issues.AddLabels(ctx, i.repo.Owner, i.repo.Name, i.Number, labels)
	if err != nil {
		return nil, err
	}
	return parseLabelList(raw)
}

// RemoveLabel removes a label from this issue.
func (i *Issue) RemoveLabel(ctx context.Context, label string) error {
	if i.repo == nil {
		return ErrNotBound
	}
	return i.repo.client.Issues.RemoveLabel(ctx, i.repo.Owner, i.repo.Name, i.Number, label)
}

// Lock locks this issue.
func (i *Issue) Lock(ctx context.Context, reason string) error {
	if i.repo == nil {
		return ErrNotBound
	}
	return i.repo.client.Issues.Lock(ctx, i.repo.Owner, i.repo.Name, i.Number, reason)
}

// Unlock unlocks this issue.
func (i *Issue) Unlock(ctx context.Context) error {
	if i.repo == nil {
		return ErrNotBound
	}
	return i.repo.client.Issues.Unlock(ctx, i.repo.Owner, i.repo.Name, i.Number)
}

// ListComments iterates over the comments on this issue.
func (i *Issue) ListComments(ctx context.Context) iter.Seq2[*Comment, error] {
	if i.repo == nil {
		return errorSeq[*Comment](ErrNotBound)
	}
	return i.repo.Issues.ListComments(ctx, i.Number)
}

// PullRequest is a pull request, bound to its repository when obtained
// through a Repo.
type PullRequest struct {
	ID           int64      `json:"id"`
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	Locked       bool       `json:"locked"`
	Draft        bool       `json:"draft"`
	Merged       bool       `json:"merged"`
	Mergeable    *bool      `json:"mergeable"`
	HTMLURL      string     `json:"html_url"`
	Comments     int        `json:"comments"`
	Commits      int        `json:"commits"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
	CreatedAt    *time.Time `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at"`
	MergedAt     *time.Time `json:"merged_at"`

	HeadRef string
	HeadSHA string
	BaseRef string
	BaseSHA string

	User      *User      `json:"-"`
	Assignee  *User      `json:"-"`
	Assignees []*User    `json:"-"`
	Labels    []*Label   `json:"-"`
	Milestone *Milestone `json:"-"`
	MergedBy  *User      `json:"-"`

	raw  json.RawMessage
	repo *Repo
}

// ParsePullRequest converts a raw API payload into a PullRequest.
func ParsePullRequest(raw json.RawMessage) (*PullRequest, error) {
	var p PullRequest
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("ghapi: parsing pull request: %w", err)
	}
	if p.Number == 0 {
		return nil, fmt.Errorf("ghapi: pull request payload missing number")
	}
	if p.State == "" {
		p.State = "open"
	}

	var nested struct {
		User      json.RawMessage   `json:"user"`
		Assignee  json.RawMessage   `json:"assignee"`
		Assignees []json.RawMessage `json:"assignees"`
		Labels    []json.RawMessage `json:"labels"`
		Milestone json.RawMessage   `json:"milestone"`
		MergedBy  json.RawMessage   `json:"merged_by"`
		Head      struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
			SHA string `json:"sha"`
		} `json:"base"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("ghapi: parsing pull request: %w", err)
	}

	var err error
	if p.User, err = optionalUser(nested.User); err != nil {
		return nil, err
	}
	if p.Assignee, err = optionalUser(nested.Assignee); err != nil {
		return nil, err
	}
	if p.MergedBy, err = optionalUser(nested.MergedBy); err != nil {
		return nil, err
	}
	for _, rawUser := range nested.Assignees {
		user, err := ParseUser(rawUser)
		if err != nil {
			return nil, err
		}
		p.Assignees = append(p.Assignees, user)
	}
	for _, rawLabel := range nested.Labels {
		label, err := ParseLabel(rawLabel)
		if err != nil {
			return nil, err
		}
		p.Labels = append(p.Labels, label)
	}
	if isJSONObject(nested.Milestone) {
		if p.Milestone, err = ParseMilestone(nested.Milestone); err != nil {
			return nil, err
		}
	}
	p.HeadRef = nested.Head.Ref
	p.HeadSHA = nested.Head.SHA
	p.BaseRef = nested.Base.Ref
	p.BaseSHA = nested.Base.SHA

	p.raw = cloneRaw(raw)
	return &p, nil
}

// Raw returns the original payload the model was parsed from.
func (p *PullRequest) Raw() json.RawMessage { return p.raw }

func (p *PullRequest) bind(repo *Repo) *PullRequest {
	p.repo = repo
	return p
}

// IsOpen reports whether the pull request is open.
func (p *PullRequest) IsOpen() bool { return p.State == "open" }

// IsClosed reports whether the pull request is closed.
func (p *PullRequest) IsClosed() bool { return p.State == "closed" }

// Close closes this pull request without merging.
func (p *PullRequest) Close(ctx context.Context) (*PullRequest, error) {
	if p.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := p.repo.client.Pulls.Close(ctx, p.repo.Owner, p.repo.Name, p.Number)
	if err != nil {
		return nil, err
	}
	return parseBoundPull(raw, p.repo)
}

// Merge merges this pull request and returns the raw merge result.
func (p *PullRequest) Merge(ctx context.Context, opts *MergeOptions) (json.RawMessage, error) {
	if p.repo == nil {
		return nil, ErrNotBound
	}
	return p.repo.client.Pulls.Merge(ctx, p.repo.Owner, p.repo.Name, p.Number, opts)
}

// Approve submits an approving review.
func (p *PullRequest) Approve(ctx context.Context, body string) (json.RawMessage, error) {
	return p.review(ctx, body, "APPROVE")
}

// RequestChanges submits a review requesting changes.
func (p *PullRequest) RequestChanges(ctx context.Context, body string) (json.RawMessage, error) {
	return p.review(ctx, body, "REQUEST_CHANGES")
}

// Comment submits a review comment without approving or requesting
// changes.
func (p *PullRequest) Comment(ctx context.Context, body string) (json.RawMessage, error) {
	return p.review(ctx, body, "COMMENT")
}

func (p *PullRequest) review(ctx context.Context, body, event string) (json.RawMessage, error) {
	if p.repo == nil {
		return nil, ErrNotBound
	}
	return p.repo.client.Pulls.CreateReview(ctx, p.repo.Owner, p.repo.Name, p.Number, &ReviewRequest{
		Body:  body,
		Event: event,
	})
}

// AddComment adds an issue comment to this pull request.
func (p *PullRequest) AddComment(ctx context.Context, body string) (*Comment, error) {
	if p.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := p.repo.client.Issues.CreateComment(ctx, p.repo.Owner, p.repo.Name, p.Number, body)
	if err != nil {
		return nil, err
	}
	return parseBoundComment(raw, p.repo)
}

// RequestReviewers requests reviews from users or teams and returns the
// updated pull request.
func (p *PullRequest) RequestReviewers(ctx context.Context, reviewers, teamReviewers []string) (*PullRequest, error) {
	if p.repo == nil {
		return nil, ErrNotBound
	}
	raw, err := p.repo.client.Pulls.RequestReviewers(ctx, p.repo.Owner, p.repo.Name, p.Number, &ReviewersRequest{
		Reviewers:     reviewers,
		TeamReviewers: teamReviewers,
	})
	if err != nil {
		return nil, err
	}
	return parseBoundPull(raw, p.repo)
}

// ListCommits iterates over the commits on this pull request.
func (p *PullRequest) ListCommits(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	if p.repo == nil {
		return errorSeq[json.RawMessage](ErrNotBound)
	}
	return p.repo.client.Pulls.ListCommits(ctx, p.repo.Owner, p.repo.Name, p.Number)
}

// ListFiles iterates over the files changed in this pull request.
func (p *PullRequest) ListFiles(ctx context.Context) iter.Seq2[json.RawMessage, error] {
	if p.repo == nil {
		return errorSeq[json.RawMessage](ErrNotBound)
	}
	return p.repo.client.Pulls.ListFiles(ctx, p.repo.Owner, p.repo.Name, p.Number)
}

// Repository is a repository, bound to the client that produced it when
// obtained through a Repo or facade call.
type Repository struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	FullName        string     `json:"full_name"`
	Description     string     `json:"description"`
	HTMLURL         string     `json:"html_url"`
	CloneURL        string     `json:"clone_url"`
	SSHURL          string     `json:"ssh_url"`
	Homepage        string     `json:"homepage"`
	Language        string     `json:"language"`
	ForksCount      int        `json:"forks_count"`
	StargazersCount int        `json:"stargazers_count"`
	WatchersCount   int        `json:"watchers_count"`
	OpenIssuesCount int        `json:"open_issues_count"`
	DefaultBranch   string     `json:"default_branch"`
	Private         bool       `json:"private"`
	Fork            bool       `json:"fork"`
	Archived        bool       `json:"archived"`
	Disabled        bool       `json:"disabled"`
	PushedAt        *time.Time `json:"pushed_at"`
	CreatedAt       *time.Time `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at"`

	Owner *User `json:"-"`

	raw    json.RawMessage
	client *Client
}

// ParseRepository converts a raw API payload into a Repository.
func ParseRepository(raw json.RawMessage) (*Repository, error) {
	var r Repository
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("ghapi: parsing repository: %w", err)
	}
	if r.FullName == "" {
		return nil, fmt.Errorf("ghapi: repository payload missing full_name")
	}
	if r.DefaultBranch == "" {
		r.DefaultBranch = "main"
	}
	owner, err := nestedUser(raw, "owner")
	if err != nil {
		return nil, err
	}
	r.Owner = owner
	r.raw = cloneRaw(raw)
	return &r, nil
}

// Raw returns the original payload the model was parsed from.
func (r *Repository) Raw() json.RawMessage { return r.raw }

func (r *Repository) bind(client *Client) *Repository {
	r.client = client
	return r
}

// Stars is an alias for StargazersCount.
func (r *Repository) Stars() int { return r.StargazersCount }

// Forks is an alias for ForksCount.
func (r *Repository) Forks() int { return r.ForksCount }

// Star stars this repository as the authenticated user.
func (r *Repository) Star(ctx context.Context) error {
	if r.client == nil {
		return ErrNotBound
	}
	_, err := r.client.Do(ctx, "PUT", "/user/starred/"+r.FullName, nil, nil)
	return err
}

// Unstar removes the authenticated user's star from this repository.
func (r *Repository) Unstar(ctx context.Context) error {
	if r.client == nil {
		return ErrNotBound
	}
	_, err := r.client.Do(ctx, "DELETE", "/user/starred/"+r.FullName, nil, nil)
	return err
}

// IsStarred reports whether the authenticated user has starred this
// repository. The API answers with 404 when not starred; the 404 is
// converted to false, every other error propagates.
func (r *Repository) IsStarred(ctx context.Context) (bool, error) {
	if r.client == nil {
		return false, ErrNotBound
	}
	return notFoundMeansFalse(r.client.Do(ctx, "GET", "/user/starred/"+r.FullName, nil, nil))
}

// CreateFork forks this repository, optionally into an organization,
// and returns the new fork.
func (r *Repository) CreateFork(ctx context.Context, organization string) (*Repository, error) {
	if r.client == nil {
		return nil, ErrNotBound
	}
	var body any
	if organization != "" {
		body = map[string]string{"organization": organization}
	}
	raw, err := r.client.Do(ctx, "POST", "/repos/"+r.FullName+"/forks", nil, body)
	if err != nil {
		return nil, err
	}
	fork, err := ParseRepository(raw)
	if err != nil {
		return nil, err
	}
	return fork.bind(r.client), nil
}

// Subscribe watches this repository as the authenticated user.
func (r *Repository) Subscribe(ctx context.Context) error {
	if r.client == nil {
		return ErrNotBound
	}
	_, err := r.client.Do(ctx, "PUT", "/repos/"+r.FullName+"/subscription", nil, map[string]bool{"subscribed": true})
	return err
}

// Unsubscribe stops watching this repository.
func (r *Repository) Unsubscribe(ctx context.Context) error {
	if r.client == nil {
		return ErrNotBound
	}
	_, err := r.client.Do(ctx, "DELETE", "/repos/"+r.FullName+"/subscription", nil, nil)
	return err
}

// Branch is a repository branch.
type Branch struct {
	Name      string `json:"name"`
	Protected bool   `json:"protected"`
	SHA       string

	raw json.RawMessage
}

// ParseBranch converts a raw API payload into a Branch.
func ParseBranch(raw json.RawMessage) (*Branch, error) {
	var b Branch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("ghapi: parsing branch: %w", err)
	}
	if b.Name == "" {
		return nil, fmt.Errorf("ghapi: branch payload missing name")
	}
	var nested struct {
		Commit struct {
			SHA string `json:"sha"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("ghapi: parsing branch: %w", err)
	}
	b.SHA = nested.Commit.SHA
	b.raw = cloneRaw(raw)
	return &b, nil
}

// Raw returns the original payload the model was parsed from.
func (b *Branch) Raw() json.RawMessage { return b.raw }

// Release is a repository release.
type Release struct {
	ID              int64      `json:"id"`
	TagName         string     `json:"tag_name"`
	Name            string     `json:"name"`
	Body            string     `json:"body"`
	Draft           bool       `json:"draft"`
	Prerelease      bool       `json:"prerelease"`
	TargetCommitish string     `json:"target_commitish"`
	HTMLURL         string     `json:"html_url"`
	CreatedAt       *time.Time `json:"created_at"`
	PublishedAt     *time.Time `json:"published_at"`

	Author *User           `json:"-"`
	Assets []*ReleaseAsset `json:"-"`

	raw json.RawMessage
}

// ParseRelease converts a raw API payload into a Release.
func ParseRelease(raw json.RawMessage) (*Release, error) {
	var r Release
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("ghapi: parsing release: %w", err)
	}
	if r.TagName == "" {
		return nil, fmt.Errorf("ghapi: release payload missing tag_name")
	}

	var nested struct {
		Author json.RawMessage   `json:"author"`
		Assets []json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("ghapi: parsing release: %w", err)
	}
	author, err := optionalUser(nested.Author)
	if err != nil {
		return nil, err
	}
	r.Author = author
	for _, rawAsset := range nested.Assets {
		asset, err := ParseReleaseAsset(rawAsset)
		if err != nil {
			return nil, err
		}
		r.Assets = append(r.Assets, asset)
	}

	r.raw = cloneRaw(raw)
	return &r, nil
}

// Raw returns the original payload the model was parsed from.
func (r *Release) Raw() json.RawMessage { return r.raw }

// ReleaseAsset is a binary file attached to a release.
type ReleaseAsset struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Label         string     `json:"label"`
	ContentType   string     `json:"content_type"`
	Size          int64      `json:"size"`
	DownloadCount int64      `json:"download_count"`
	DownloadURL   string     `json:"browser_download_url"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`

	raw json.RawMessage
}

// ParseReleaseAsset converts a raw API payload into a ReleaseAsset.
func ParseReleaseAsset(raw json.RawMessage) (*ReleaseAsset, error) {
	var a ReleaseAsset
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("ghapi: parsing release asset: %w", err)
	}
	if a.Name == "" {
		return nil, fmt.Errorf("ghapi: release asset payload missing name")
	}
	a.raw = cloneRaw(raw)
	return &a, nil
}

// Raw returns the original payload the model was parsed from.
func (a *ReleaseAsset) Raw() json.RawMessage { return a.raw }

// SearchResult is one page of search results: the envelope the search
// API wraps around its items.
type SearchResult struct {
	TotalCount        int               `json:"total_count"`
	IncompleteResults bool              `json:"incomplete_results"`
	Items             []json.RawMessage `json:"items"`

	raw json.RawMessage
}

// ParseSearchResult converts a raw search envelope into a SearchResult.
func ParseSearchResult(raw json.RawMessage) (*SearchResult, error) {
	var r SearchResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("ghapi: parsing search result: %w", err)
	}
	r.raw = cloneRaw(raw)
	return &r, nil
}

// Raw returns the original payload the model was parsed from.
func (r *SearchResult) Raw() json.RawMessage { return r.raw }

// parse helpers

func parseBoundIssue(raw json.RawMessage, repo *Repo) (*Issue, error) {
	issue, err := ParseIssue(raw)
	if err != nil {
		return nil, err
	}
	return issue.bind(repo), nil
}

func parseBoundPull(raw json.RawMessage, repo *Repo) (*PullRequest, error) {
	pull, err := ParsePullRequest(raw)
	if err != nil {
		return nil, err
	}
	return pull.bind(repo), nil
}

func parseBoundComment(raw json.RawMessage, repo *Repo) (*Comment, error) {
	comment, err := ParseComment(raw)
	if err != nil {
		return nil, err
	}
	return comment.bind(repo), nil
}

func parseLabelList(raw json.RawMessage) ([]*Label, error) {
	var rawLabels []json.RawMessage
	if err := json.Unmarshal(raw, &rawLabels); err != nil {
		return nil, fmt.Errorf("ghapi: parsing labels: %w", err)
	}
	labels := make([]*Label, 0, len(rawLabels))
	for _, rawLabel := range rawLabels {
		label, err := ParseLabel(rawLabel)
		if err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

// nestedUser extracts and parses an optional user object under key.
func nestedUser(raw json.RawMessage, key string) (*User, error) {
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("ghapi: parsing nested %s: %w", key, err)
	}
	return optionalUser(nested[key])
}

func optionalUser(raw json.RawMessage) (*User, error) {
	if !isJSONObject(raw) {
		return nil, nil
	}
	return ParseUser(raw)
}

// isJSONObject reports whether raw holds an actual object rather than
// nothing or a JSON null.
func isJSONObject(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

// cloneRaw copies the payload so models stay valid when the caller
// reuses its buffer.
func cloneRaw(raw json.RawMessage) json.RawMessage {
	clone := make(json.RawMessage, len(raw))
	copy(clone, raw)
	return clone
}

// errorSeq returns an iterator that yields only the given error.
func errorSeq[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
