package ghapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-ghapi"
)

// searchEnvelope builds a search response page with n numbered items.
func searchEnvelope(total, firstID, n int) []byte {
	items := make([]json.RawMessage, n)
	for i := range n {
		items[i] = json.RawMessage(fmt.Sprintf(`{"id":%d}`, firstID+i))
	}
	body, _ := json.Marshal(map[string]any{
		"total_count":        total,
		"incomplete_results": false,
		"items":              items,
	})
	return body
}

func TestSearchService_Repositories(t *testing.T) {
	t.Run("short page ends iteration", func(t *testing.T) {
		var requests atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "/search/repositories", r.URL.Path)
			assert.Equal(t, "language:go stars:>1000", r.URL.Query().Get("q"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "desc", r.URL.Query().Get("order"))

			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			if page == 1 {
				_, _ = w.Write(searchEnvelope(130, 1, 100))
				return
			}
			_, _ = w.Write(searchEnvelope(130, 101, 30))
		})

		items, err := ghapi.Collect(client.Search.Repositories(context.Background(), "language:go stars:>1000", nil))
		require.NoError(t, err)
		assert.Len(t, items, 130)
		assert.Equal(t, int32(2), requests.Load())
	})

	t.Run("total count ends iteration on a full page", func(t *testing.T) {
		var requests atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			_, _ = w.Write(searchEnvelope(200, (page-1)*100+1, 100))
		})

		items, err := ghapi.Collect(client.Search.Repositories(context.Background(), "language:go", nil))
		require.NoError(t, err)
		assert.Len(t, items, 200)
		assert.Equal(t, int32(2), requests.Load())
	})

	t.Run("empty first page", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(searchEnvelope(0, 0, 0))
		})

		items, err := ghapi.Collect(client.Search.Repositories(context.Background(), "nothing-matches-this", nil))
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("sort and order options", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "stars", r.URL.Query().Get("sort"))
			assert.Equal(t, "asc", r.URL.Query().Get("order"))
			_, _ = w.Write(searchEnvelope(0, 0, 0))
		})

		_, err := ghapi.Collect(client.Search.Repositories(context.Background(), "language:go", &ghapi.SearchOptions{
			Sort:  "stars",
			Order: "asc",
		}))
		require.NoError(t, err)
	})

	t.Run("rate limits surface without retrying", func(t *testing.T) {
		var requests atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
		}, ghapi.WithAutoRetry(3))

		_, err := ghapi.Collect(client.Search.Repositories(context.Background(), "language:go", nil))
		require.Error(t, err)

		var rateLimitErr *ghapi.RateLimitError
		require.ErrorAs(t, err, &rateLimitErr)
		assert.Equal(t, int32(1), requests.Load())
	})
}

func TestSearchService_Issues(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/issues", r.URL.Path)
		assert.Equal(t, "is:issue is:open repo:o/r", r.URL.Query().Get("q"))
		_, _ = w.Write(searchEnvelope(1, 1, 1))
	})

	items, err := ghapi.Collect(client.Search.Issues(context.Background(), "is:issue is:open repo:o/r", nil))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestSearchService_RepositoriesPage(t *testing.T) {
	t.Run("single page with envelope", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "3", r.URL.Query().Get("page"))
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			_, _ = w.Write(searchEnvelope(500, 201, 100))
		})

		page, err := client.Search.RepositoriesPage(context.Background(), "language:go", nil, 3)
		require.NoError(t, err)
		assert.Equal(t, 500, page.TotalCount)
		assert.Len(t, page.Items, 100)
	})

	t.Run("page below one is normalized", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			_, _ = w.Write(searchEnvelope(0, 0, 0))
		})

		_, err := client.Search.RepositoriesPage(context.Background(), "language:go", nil, 0)
		require.NoError(t, err)
	})

	t.Run("errors are classified", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		})

		_, err := client.Search.IssuesPage(context.Background(), "", nil, 1)
		require.Error(t, err)

		var validationErr *ghapi.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestSearchService_CodeAndCommitsAndUsers(t *testing.T) {
	var paths []string
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		_, _ = w.Write(searchEnvelope(0, 0, 0))
	})

	ctx := context.Background()
	_, err := ghapi.Collect(client.Search.Code(ctx, "addClass in:file", nil))
	require.NoError(t, err)
	_, err = ghapi.Collect(client.Search.Commits(ctx, "fix repo:o/r", nil))
	require.NoError(t, err)
	_, err = ghapi.Collect(client.Search.Users(ctx, "type:user", nil))
	require.NoError(t, err)

	assert.Equal(t, []string{"/search/code", "/search/commits", "/search/users"}, paths)
}
