package ghapi

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// ReleasesService provides operations on releases and their assets.
type ReleasesService struct {
	client *Client
}

// ReleaseRequest contains data for creating a release.
type ReleaseRequest struct {
	TagName              string `json:"tag_name"`
	Name                 string `json:"name,omitempty"`
	Body                 string `json:"body,omitempty"`
	Draft                bool   `json:"draft"`
	Prerelease           bool   `json:"prerelease"`
	TargetCommitish      string `json:"target_commitish,omitempty"`
	GenerateReleaseNotes bool   `json:"generate_release_notes"`
}

// ReleasePatch contains fields to update on a release. Nil fields are
// left untouched.
type ReleasePatch struct {
	TagName    *string `json:"tag_name,omitempty"`
	Name       *string `json:"name,omitempty"`
	Body       *string `json:"body,omitempty"`
	Draft      *bool   `json:"draft,omitempty"`
	Prerelease *bool   `json:"prerelease,omitempty"`
}

// List iterates over a repository's releases.
func (s *ReleasesService) List(ctx context.Context, owner, repo string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, repoPath(owner, repo)+"/releases", nil, 0, opts...)
}

// Get retrieves a release by ID.
func (s *ReleasesService) Get(ctx context.Context, owner, repo string, releaseID int64, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, releasePath(owner, repo, releaseID), nil, nil, opts...)
}

// GetLatest retrieves the latest published release.
func (s *ReleasesService) GetLatest(ctx context.Context, owner, repo string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, repoPath(owner, repo)+"/releases/latest", nil, nil, opts...)
}

// GetByTag retrieves a release by its tag name.
func (s *ReleasesService) GetByTag(ctx context.Context, owner, repo, tag string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, repoPath(owner, repo)+"/releases/tags/"+url.PathEscape(tag), nil, nil, opts...)
}

// Create creates a release.
func (s *ReleasesService) Create(ctx context.Context, owner, repo string, req *ReleaseRequest, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, repoPath(owner, repo)+"/releases", nil, req, opts...)
}

// Update modifies a release.
func (s *ReleasesService) Update(ctx context.Context, owner, repo string, releaseID int64, patch *ReleasePatch, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPatch, releasePath(owner, repo, releaseID), nil, patch, opts...)
}

// Delete deletes a release.
func (s *ReleasesService) Delete(ctx context.Context, owner, repo string, releaseID int64, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, releasePath(owner, repo, releaseID), nil, nil, opts...)
	return err
}

// ListAssets iterates over a release's assets.
func (s *ReleasesService) ListAssets(ctx context.Context, owner, repo string, releaseID int64, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, releasePath(owner, repo, releaseID)+"/assets", nil, 0, opts...)
}

// GetAsset retrieves a release asset by ID.
func (s *ReleasesService) GetAsset(ctx context.Context, owner, repo string, assetID int64, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, fmt.Sprintf("%s/releases/assets/%d", repoPath(owner, repo), assetID), nil, nil, opts...)
}

// UploadAsset uploads raw bytes as a release asset. Uploads go to the
// dedicated upload host rather than the API host, with the asset name
// as a query parameter and the given content type on the body.
func (s *ReleasesService) UploadAsset(ctx context.Context, owner, repo string, releaseID int64, name, contentType string, content []byte) (json.RawMessage, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.client.upload(ctx, releasePath(owner, repo, releaseID)+"/assets", name, contentType, content)
}

// UploadAssetFile uploads a file from disk as a release asset. name
// defaults to the file's base name.
func (s *ReleasesService) UploadAssetFile(ctx context.Context, owner, repo string, releaseID int64, path, name, contentType string) (json.RawMessage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading asset file: %w", err)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	return s.UploadAsset(ctx, owner, repo, releaseID, name, contentType, content)
}

// DeleteAsset deletes a release asset.
func (s *ReleasesService) DeleteAsset(ctx context.Context, owner, repo string, assetID int64, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, fmt.Sprintf("%s/releases/assets/%d", repoPath(owner, repo), assetID), nil, nil, opts...)
	return err
}

func releasePath(owner, repo string, releaseID int64) string {
	return fmt.Sprintf("%s/releases/%d", repoPath(owner, repo), releaseID)
}
