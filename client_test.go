package ghapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tphakala/go-ghapi"
)

func setupTestServer(t *testing.T, handler http.HandlerFunc, opts ...ghapi.ClientOption) *ghapi.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghapi.NewClient(append([]ghapi.ClientOption{
		ghapi.WithBaseURL(server.URL),
		ghapi.WithUploadURL(server.URL),
		ghapi.WithToken("test-token"),
	}, opts...)...)
	require.NoError(t, err)

	return client
}

func TestNewClient(t *testing.T) {
	t.Run("success with defaults", func(t *testing.T) {
		client, err := ghapi.NewClient(ghapi.WithoutAuth())
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.NotNil(t, client.Repos)
		assert.NotNil(t, client.Issues)
		assert.NotNil(t, client.Pulls)
		assert.NotNil(t, client.Users)
		assert.NotNil(t, client.Search)
		assert.NotNil(t, client.Releases)
		assert.Equal(t, "https://api.github.com", client.BaseURL())
	})

	t.Run("success with enterprise base URL", func(t *testing.T) {
		client, err := ghapi.NewClient(
			ghapi.WithBaseURL("https://github.example.com/api/v3"),
			ghapi.WithToken("ghp_test"),
		)
		require.NoError(t, err)
		assert.Equal(t, "https://github.example.com/api/v3", client.BaseURL())
	})

	t.Run("success with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{
			Timeout: 90 * time.Second,
		}
		client, err := ghapi.NewClient(
			ghapi.WithToken("ghp_test"),
			ghapi.WithHTTPClient(customClient),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("success with custom timeout", func(t *testing.T) {
		client, err := ghapi.NewClient(
			ghapi.WithToken("ghp_test"),
			ghapi.WithTimeout(60*time.Second),
		)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestClientDo(t *testing.T) {
	t.Run("sends common headers", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/rate_limit", r.URL.Path)
			assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
			assert.Equal(t, "2022-11-28", r.Header.Get("X-GitHub-Api-Version"))
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
			assert.Equal(t, "go-ghapi/1.0", r.Header.Get("User-Agent"))

			_, err := w.Write([]byte(`{"resources":{}}`))
			assert.NoError(t, err)
		})

		raw, err := client.RateLimit(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"resources":{}}`, string(raw))
	})

	t.Run("custom request headers", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/vnd.github.raw+json", r.Header.Get("Accept"))
			_, _ = w.Write([]byte(`{}`))
		})

		_, err := client.Do(context.Background(), http.MethodGet, "/repos/o/r/readme", nil, nil,
			ghapi.WithHeader("Accept", "application/vnd.github.raw+json"))
		require.NoError(t, err)
	})

	t.Run("custom user agent", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "my-tool/2.0", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{}`))
		}, ghapi.WithUserAgent("my-tool/2.0"))

		_, err := client.Do(context.Background(), http.MethodGet, "/user", nil, nil)
		require.NoError(t, err)
	})

	t.Run("no content yields nil body", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		raw, err := client.Do(context.Background(), http.MethodPut, "/user/following/someone", nil, nil)
		require.NoError(t, err)
		assert.Nil(t, raw)
	})

	t.Run("unauthenticated requests omit the header", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(server.Close)

		client, err := ghapi.NewClient(
			ghapi.WithBaseURL(server.URL),
			ghapi.WithoutAuth(),
		)
		require.NoError(t, err)

		_, err = client.Do(context.Background(), http.MethodGet, "/meta", nil, nil)
		require.NoError(t, err)
	})
}

func TestClientRepoByFullName(t *testing.T) {
	client, err := ghapi.NewClient(ghapi.WithoutAuth())
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		repo, err := client.RepoByFullName("golang/go")
		require.NoError(t, err)
		assert.Equal(t, "golang", repo.Owner)
		assert.Equal(t, "go", repo.Name)
		assert.Equal(t, "golang/go", repo.FullName())
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := client.RepoByFullName("golang")
		require.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := client.RepoByFullName("golang/")
		require.Error(t, err)
	})
}

func TestClientAutoRetry(t *testing.T) {
	rateLimited := func(w http.ResponseWriter) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}

	t.Run("retries then succeeds", func(t *testing.T) {
		var attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				rateLimited(w)
				return
			}
			_, _ = w.Write([]byte(`{"login":"octocat"}`))
		}, ghapi.WithAutoRetry(3))

		raw, err := client.Users.GetAuthenticated(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"login":"octocat"}`, string(raw))
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("honors retry-after before the next attempt", func(t *testing.T) {
		var attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) == 1 {
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"rate limit"}`))
				return
			}
			_, _ = w.Write([]byte(`{"login":"octocat","id":1}`))
		}, ghapi.WithAutoRetry(3))

		start := time.Now()
		raw, err := client.Users.GetAuthenticated(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"login":"octocat","id":1}`, string(raw))
		assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			rateLimited(w)
		}, ghapi.WithAutoRetry(3))

		_, err := client.Users.GetAuthenticated(context.Background())
		require.Error(t, err)

		var rateLimitErr *ghapi.RateLimitError
		require.ErrorAs(t, err, &rateLimitErr)
		// initial attempt plus three retries
		assert.Equal(t, int32(4), attempts.Load())
	})

	t.Run("disabled by default", func(t *testing.T) {
		var attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			rateLimited(w)
		})

		_, err := client.Users.GetAuthenticated(context.Background())
		require.Error(t, err)

		var rateLimitErr *ghapi.RateLimitError
		require.ErrorAs(t, err, &rateLimitErr)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry plain forbidden", func(t *testing.T) {
		var attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Resource not accessible by integration"}`))
		}, ghapi.WithAutoRetry(3))

		_, err := client.Users.GetAuthenticated(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("cancelled context stops the wait", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message":"rate limit"}`))
		}, ghapi.WithAutoRetry(3))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := client.Users.GetAuthenticated(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 5*time.Second)
	})
}

func TestClientPaginate(t *testing.T) {
	item := func(n int) string {
		return fmt.Sprintf(`{"id":%d}`, n)
	}

	t.Run("walks pages until empty", func(t *testing.T) {
		var requests atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			assert.Equal(t, "2", r.URL.Query().Get("per_page"))

			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte("[" + item(1) + "," + item(2) + "]"))
			case "2":
				_, _ = w.Write([]byte("[" + item(3) + "]"))
			default:
				_, _ = w.Write([]byte("[]"))
			}
		})

		items, err := ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/repos/o/r/tags", nil, 2))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.JSONEq(t, item(3), string(items[2]))
		assert.Equal(t, int32(3), requests.Load())
	})

	t.Run("defaults and clamps per_page", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/default":
				assert.Equal(t, "30", r.URL.Query().Get("per_page"))
			case "/clamped":
				assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			}
			_, _ = w.Write([]byte("[]"))
		})

		_, err := ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/default", nil, 0))
		require.NoError(t, err)
		_, err = ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/clamped", nil, 500))
		require.NoError(t, err)
	})

	t.Run("early break stops fetching", func(t *testing.T) {
		var requests atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			requests.Add(1)
			_, _ = w.Write([]byte("[" + item(1) + "," + item(2) + "]"))
		})

		items, err := ghapi.CollectN(client.Paginate(context.Background(), http.MethodGet, "/repos/o/r/tags", nil, 2), 2)
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, int32(1), requests.Load())
	})

	t.Run("retried page is fetched once more without advancing", func(t *testing.T) {
		var page2Attempts atomic.Int32
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Query().Get("page") {
			case "1":
				_, _ = w.Write([]byte("[" + item(1) + "," + item(2) + "]"))
			case "2":
				if page2Attempts.Add(1) == 1 {
					w.Header().Set("X-RateLimit-Remaining", "0")
					w.Header().Set("Retry-After", "0")
					w.WriteHeader(http.StatusForbidden)
					_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
					return
				}
				_, _ = w.Write([]byte("[" + item(3) + "]"))
			default:
				_, _ = w.Write([]byte("[]"))
			}
		}, ghapi.WithAutoRetry(3))

		items, err := ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/repos/o/r/tags", nil, 2))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.JSONEq(t, item(1), string(items[0]))
		assert.JSONEq(t, item(2), string(items[1]))
		assert.JSONEq(t, item(3), string(items[2]))
		assert.Equal(t, int32(2), page2Attempts.Load())
	})

	t.Run("propagates classified errors", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		})

		_, err := ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/repos/o/missing/tags", nil, 0))
		require.Error(t, err)

		var notFound *ghapi.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})

	t.Run("decode error surfaces with page number", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"}`))
		})

		_, err := ghapi.Collect(client.Paginate(context.Background(), http.MethodGet, "/repos/o/r/tags", nil, 0))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page 1")
	})
}

func TestClientRateLimiter(t *testing.T) {
	var requests atomic.Int32
	handler := func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}

	// One token, no refill to speak of: the second call must block until
	// the context deadline.
	client := setupTestServer(t, handler, ghapi.WithRateLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))

	_, err := client.Do(context.Background(), http.MethodGet, "/user", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Do(ctx, http.MethodGet, "/user", nil, nil)
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())
}

func TestClientUnmarshalsRequestBodies(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["title"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1,"number":7,"title":"hello"}`))
	})

	raw, err := client.Issues.Create(context.Background(), "o", "r", &ghapi.IssueRequest{Title: "hello"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"number":7`)
}
