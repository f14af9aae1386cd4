// Package github implements the code-host fetcher against the GitHub REST
// API: repository listing and a recursive contents walk with fetch-time
// filtering.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"
)

// ErrRateLimited indicates the host rejected the request with 429 or the
// API rate-limit status.
var ErrRateLimited = errors.New("code host rate limited")

// FetchError wraps a code-host failure with the request that caused it.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("github %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("github %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Client talks to the GitHub REST v3 API. It implements project.Fetcher.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	maxFileSize   int64
	logger        *log.Logger
}

// Option is a functional option for Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client (for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.httpClient = c }
}

// WithInitialDelay sets the first retry delay.
func WithInitialDelay(d time.Duration) Option {
	return func(g *Client) { g.initialDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Client) { g.logger = l }
}

// NewClient creates a Client from the code host configuration.
func NewClient(cfg config.GitHubConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL(), "/"),
		maxRetries:    cfg.MaxRetries(),
		initialDelay:  time.Second,
		backoffFactor: 2.0,
		maxFileSize:   cfg.MaxFileSize(),
		httpClient:    &http.Client{Timeout: cfg.Timeout()},
		logger:        log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type repoResponse struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
}

type contentItem struct {
	Type     string `json:"type"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// ListRepositories returns the repositories visible to the token, newest
// first, up to one page of 100.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]project.RemoteRepo, error) {
	endpoint := c.baseURL + "/user/repos?per_page=100&sort=updated"

	var repos []repoResponse
	if err := c.getJSON(ctx, "list repositories", endpoint, token, &repos); err != nil {
		return nil, err
	}

	out := make([]project.RemoteRepo, 0, len(repos))
	for _, r := range repos {
		out = append(out, project.NewRemoteRepo(r.FullName, r.Description, r.HTMLURL))
	}
	return out, nil
}

// FetchFiles walks the repository tree depth-first through the contents
// API, returning decoded content for every file that passes the extension
// allow-list, excluded-directory, and size filters.
func (c *Client) FetchFiles(ctx context.Context, token, fullName string) ([]project.RemoteFile, error) {
	var files []project.RemoteFile

	var walk func(path string) error
	walk = func(path string) error {
		items, err := c.listContents(ctx, token, fullName, path)
		if err != nil {
			return err
		}
		for _, item := range items {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			switch item.Type {
			case "dir":
				if err := walk(item.Path); err != nil {
					return err
				}
			case "file":
				if !project.AllowedPath(item.Path) {
					continue
				}
				if item.Size > c.maxFileSize {
					c.logger.Debug("skipping oversized file",
						"repo", fullName, "path", item.Path, "size", item.Size)
					continue
				}
				content, err := c.fetchFileContent(ctx, token, fullName, item.Path)
				if err != nil {
					// One unreadable file does not fail the repository.
					c.logger.Warn("failed to fetch file content",
						"repo", fullName, "path", item.Path, "error", err)
					continue
				}
				files = append(files, project.NewRemoteFile(item.Path, content))
			}
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return files, nil
}

// listContents fetches one directory listing. The contents API returns an
// array for directories and an object for files.
func (c *Client) listContents(ctx context.Context, token, fullName, path string) ([]contentItem, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, escapePath(path))

	var items []contentItem
	if err := c.getJSON(ctx, "list contents", endpoint, token, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) fetchFileContent(ctx context.Context, token, fullName, path string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, fullName, escapePath(path))

	var item contentItem
	if err := c.getJSON(ctx, "fetch file", endpoint, token, &item); err != nil {
		return "", err
	}
	if item.Encoding != "base64" {
		return item.Content, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(item.Content, "\n", ""))
	if err != nil {
		return "", &FetchError{Op: "decode content", Err: err}
	}
	return string(decoded), nil
}

// getJSON performs a GET with auth headers, retrying transient failures
// with exponential backoff, and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, op, endpoint, token string, out any) error {
	delay := c.initialDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying code host request",
				"op", op, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffFactor)
		}

		err := c.doGet(ctx, op, endpoint, token, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
	}
	return lastErr
}

func (c *Client) doGet(ctx context.Context, op, endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: ErrRateLimited}
	case resp.StatusCode >= 400:
		return &FetchError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected response: %s", truncateBody(body))}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return nil
}

// isRetryable reports whether the failure is transient: rate limits,
// server errors, and network timeouts.
func isRetryable(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if fe.StatusCode >= 500 {
			return true
		}
		var netErr net.Error
		if errors.As(fe.Err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		return errors.As(fe.Err, &opErr)
	}
	return false
}

func escapePath(path string) string {
	if path == "" {
		return ""
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func truncateBody(body []byte) string {
	const max = 200
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
