package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitae-dev/vitae/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewGitHubConfig().
		WithGitHubBaseURL(srv.URL).
		WithGitHubMaxRetries(2).
		WithGitHubTimeout(5 * time.Second)
	return NewClient(cfg, WithInitialDelay(time.Millisecond)), srv
}

func TestListRepositories(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "token tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"full_name": "octocat/alpha", "description": "first", "html_url": "https://github.com/octocat/alpha"},
			{"full_name": "octocat/beta", "description": "", "html_url": "https://github.com/octocat/beta"},
		})
	}))

	repos, err := client.ListRepositories(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octocat/alpha", repos[0].FullName())
	assert.Equal(t, "first", repos[0].Description())
}

func TestFetchFilesWalksAndFilters(t *testing.T) {
	encode := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/octocat/alpha/contents/":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"type": "file", "path": "main.go", "size": 20},
				{"type": "file", "path": "logo.png", "size": 10},
				{"type": "file", "path": "huge.go", "size": 300000},
				{"type": "dir", "path": "src"},
				{"type": "dir", "path": "node_modules"},
			})
		case "/repos/octocat/alpha/contents/src":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"type": "file", "path": "src/util.py", "size": 15},
			})
		case "/repos/octocat/alpha/contents/node_modules":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"type": "file", "path": "node_modules/dep.js", "size": 15},
			})
		case "/repos/octocat/alpha/contents/main.go":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type": "file", "path": "main.go", "encoding": "base64",
				"content": encode("package main\n"),
			})
		case "/repos/octocat/alpha/contents/src/util.py":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type": "file", "path": "src/util.py", "encoding": "base64",
				"content": encode("def util():\n    pass\n"),
			})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	files, err := client.FetchFiles(context.Background(), "tok", "octocat/alpha")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "main.go", files[0].Path())
	assert.Equal(t, "package main\n", files[0].Content())
	assert.Equal(t, "src/util.py", files[1].Path())
}

func TestFetchFilesSkipsUnreadableFile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/o/r/contents/":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"type": "file", "path": "a.go", "size": 5},
				{"type": "file", "path": "b.go", "size": 5},
			})
		case "/repos/o/r/contents/a.go":
			w.WriteHeader(http.StatusForbidden)
		case "/repos/o/r/contents/b.go":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"type": "file", "path": "b.go", "encoding": "base64",
				"content": base64.StdEncoding.EncodeToString([]byte("package b\n")),
			})
		}
	}))

	files, err := client.FetchFiles(context.Background(), "tok", "o/r")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "b.go", files[0].Path())
}

func TestRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))

	_, err := client.ListRepositories(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"bad credentials"}`)
	}))

	_, err := client.ListRepositories(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
}

func TestRateLimitErrorIsRetriedThenSurfaced(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListRepositories(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "", escapePath(""))
	assert.Equal(t, "src/a.go", escapePath("src/a.go"))
	assert.Equal(t, "dir%20name/file.go", escapePath("dir name/file.go"))
	assert.False(t, strings.Contains(escapePath("a/b c/d"), " "))
}
