package ghapi

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
)

// UsersService provides operations on users.
type UsersService struct {
	client *Client
}

// UserPatch contains fields to update on the authenticated user. Nil
// fields are left untouched.
type UserPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Blog     *string `json:"blog,omitempty"`
	Company  *string `json:"company,omitempty"`
	Location *string `json:"location,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

// Get retrieves a user by username.
func (s *UsersService) Get(ctx context.Context, username string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, "/users/"+username, nil, nil, opts...)
}

// GetAuthenticated retrieves the authenticated user.
func (s *UsersService) GetAuthenticated(ctx context.Context, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, "/user", nil, nil, opts...)
}

// UpdateAuthenticated modifies the authenticated user's profile.
func (s *UsersService) UpdateAuthenticated(ctx context.Context, patch *UserPatch, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPatch, "/user", nil, patch, opts...)
}

// ListFollowers iterates over a user's followers.
func (s *UsersService) ListFollowers(ctx context.Context, username string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/users/"+username+"/followers", nil, 0, opts...)
}

// ListFollowing iterates over the users a user follows.
func (s *UsersService) ListFollowing(ctx context.Context, username string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/users/"+username+"/following", nil, 0, opts...)
}

// IsFollowing reports whether username follows target. The API answers
// with 204 when following and 404 when not; the 404 is converted to
// false, every other error propagates.
func (s *UsersService) IsFollowing(ctx context.Context, username, target string, opts ...RequestOption) (bool, error) {
	_, err := s.client.Do(ctx, http.MethodGet, "/users/"+username+"/following/"+target, nil, nil, opts...)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Follow follows a user as the authenticated user.
func (s *UsersService) Follow(ctx context.Context, username string, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodPut, "/user/following/"+username, nil, nil, opts...)
	return err
}

// Unfollow unfollows a user as the authenticated user.
func (s *UsersService) Unfollow(ctx context.Context, username string, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, "/user/following/"+username, nil, nil, opts...)
	return err
}

// ListEmails returns the authenticated user's email addresses.
func (s *UsersService) ListEmails(ctx context.Context, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodGet, "/user/emails", nil, nil, opts...)
}

// AddEmails adds email addresses to the authenticated user.
func (s *UsersService) AddEmails(ctx context.Context, emails []string, opts ...RequestOption) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, "/user/emails", nil, map[string][]string{"emails": emails}, opts...)
}

// DeleteEmails removes email addresses from the authenticated user.
func (s *UsersService) DeleteEmails(ctx context.Context, emails []string, opts ...RequestOption) error {
	_, err := s.client.Do(ctx, http.MethodDelete, "/user/emails", nil, map[string][]string{"emails": emails}, opts...)
	return err
}

// ListSSHKeys iterates over a user's public SSH keys.
func (s *UsersService) ListSSHKeys(ctx context.Context, username string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/users/"+username+"/keys", nil, 0, opts...)
}

// ListGPGKeys iterates over a user's GPG keys.
func (s *UsersService) ListGPGKeys(ctx context.Context, username string, opts ...RequestOption) iter.Seq2[json.RawMessage, error] {
	return s.client.Paginate(ctx, http.MethodGet, "/users/"+username+"/gpg_keys", nil, 0, opts...)
}
