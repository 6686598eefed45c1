package ghapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-ghapi"
)

func TestIssuesService_Get(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/repos/octocat/hello/issues/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"number":42,"title":"bug"}`))
	})

	raw, err := client.Issues.Get(context.Background(), "octocat", "hello", 42)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"number":42`)
}

func TestIssuesService_List(t *testing.T) {
	t.Run("filters out pull requests", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "open", r.URL.Query().Get("state"))
			assert.Equal(t, "created", r.URL.Query().Get("sort"))
			assert.Equal(t, "desc", r.URL.Query().Get("direction"))

			if r.URL.Query().Get("page") != "1" {
				_, _ = w.Write([]byte(`[]`))
				return
			}
			_, _ = w.Write([]byte(`[
				{"number":1,"title":"real issue"},
				{"number":2,"title":"a PR","pull_request":{"url":"https://api.github.com/repos/o/r/pulls/2"}},
				{"number":3,"title":"another issue"}
			]`))
		})

		items, err := ghapi.Collect(client.Issues.List(context.Background(), "o", "r", nil))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Contains(t, string(items[0]), `"number":1`)
		assert.Contains(t, string(items[1]), `"number":3`)
	})

	t.Run("passes filters through", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "closed", r.URL.Query().Get("state"))
			assert.Equal(t, "bug,regression", r.URL.Query().Get("labels"))
			assert.Equal(t, "hubot", r.URL.Query().Get("assignee"))
			assert.Equal(t, "10", r.URL.Query().Get("per_page"))
			_, _ = w.Write([]byte(`[]`))
		})

		_, err := ghapi.Collect(client.Issues.List(context.Background(), "o", "r", &ghapi.IssueListOptions{
			State:    "closed",
			Labels:   "bug,regression",
			Assignee: "hubot",
			PerPage:  10,
		}))
		require.NoError(t, err)
	})
}

func TestIssuesService_CloseReopen(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/repos/o/r/issues/5", r.URL.Path)

		var patch map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&patch))

		state := patch["state"].(string)
		assert.Contains(t, []string{"open", "closed"}, state)
		_, _ = w.Write([]byte(`{"number":5,"title":"t","state":"` + state + `"}`))
	})

	raw, err := client.Issues.Close(context.Background(), "o", "r", 5)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"state":"closed"`)

	raw, err = client.Issues.Reopen(context.Background(), "o", "r", 5)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"state":"open"`)
}

func TestIssuesService_LockUnlock(t *testing.T) {
	t.Run("lock with reason", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			assert.Equal(t, "/repos/o/r/issues/5/lock", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "resolved", body["lock_reason"])

			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Issues.Lock(context.Background(), "o", "r", 5, "resolved"))
	})

	t.Run("lock without reason sends no body", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			assert.Empty(t, body)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Issues.Lock(context.Background(), "o", "r", 5, ""))
	})

	t.Run("unlock", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/repos/o/r/issues/5/lock", r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, client.Issues.Unlock(context.Background(), "o", "r", 5))
	})
}

func TestIssuesService_Comments(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/o/r/issues/5/comments", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "thanks!", body["body"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"body":"thanks!"}`))
	})

	raw, err := client.Issues.CreateComment(context.Background(), "o", "r", 5, "thanks!")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"body":"thanks!"`)
}

func TestIssuesService_Labels(t *testing.T) {
	t.Run("add labels", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/repos/o/r/issues/5/labels", r.URL.Path)

			var body map[string][]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"bug", "help wanted"}, body["labels"])

			_, _ = w.Write([]byte(`[{"id":1,"name":"bug"},{"id":2,"name":"help wanted"}]`))
		})

		raw, err := client.Issues.AddLabels(context.Background(), "o", "r", 5, []string{"bug", "help wanted"})
		require.NoError(t, err)
		assert.Contains(t, string(raw), "help wanted")
	})

	t.Run("remove label escapes the name", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/repos/o/r/issues/5/labels/help%20wanted", r.URL.EscapedPath())
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`[]`))
		})

		require.NoError(t, client.Issues.RemoveLabel(context.Background(), "o", "r", 5, "help wanted"))
	})
}
