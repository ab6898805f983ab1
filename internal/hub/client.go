// Package hub talks to the dataset hub: repository management, file
// downloads, atomic commits and the datasets server rows API.
package hub

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/util"
)

// RepoTypeDataset is the only repository type this client works with
const RepoTypeDataset = "dataset"

// DefaultRevision is the branch commits are made to
const DefaultRevision = "main"

// Options configures a Client
type Options struct {
	Endpoint  string
	Token     string
	UserAgent string
	Timeout   time.Duration
	Limiter   *util.Limiter
	Transport http.RoundTripper
}

// Client is a hub REST client
type Client struct {
	rest     *resty.Client
	transfer *resty.Client // unauthenticated, for pre-signed LFS URLs
	endpoint string
}

// NewClient creates a hub client. Requests are never retried.
func NewClient(opts Options) *Client {
	endpoint := strings.TrimSuffix(opts.Endpoint, "/")
	return &Client{
		rest:     newRestClient(endpoint, opts, true),
		transfer: newRestClient("", opts, false),
		endpoint: endpoint,
	}
}

func newRestClient(baseURL string, opts Options, auth bool) *resty.Client {
	c := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)
	if baseURL != "" {
		c.SetBaseURL(baseURL)
	}
	if auth && opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}
	if opts.Transport != nil {
		c.SetTransport(opts.Transport)
	}

	if opts.Limiter != nil {
		limiter := opts.Limiter
		c.OnBeforeRequest(func(rc *resty.Client, r *resty.Request) error {
			target := r.URL
			if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
				target = rc.BaseURL
			}
			return limiter.Wait(r.Context(), target)
		})
	}

	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.FromContext(resp.Request.Context()).Debug("hub request",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"elapsed", resp.Time().Round(time.Millisecond))
		return nil
	})
	return c
}

// RepoOptions configures dataset creation
type RepoOptions struct {
	Private bool
}

// repoPath returns the API path prefix for a dataset, e.g. datasets/owner/name
func repoPath(repoID string) string {
	return "datasets/" + repoID
}

// CreateRepo creates a repository. An existing repository yields an
// APIError for which IsConflict is true.
func (c *Client) CreateRepo(ctx context.Context, repoID string, opts RepoOptions) error {
	owner, name, err := SplitRepoID(repoID)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"name":         name,
		"organization": owner,
		"type":         RepoTypeDataset,
		"private":      opts.Private,
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/api/repos/create")
	if err != nil {
		return fmt.Errorf("create repo %s: %w", repoID, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

// UpdateSettings changes a dataset's visibility
func (c *Client) UpdateSettings(ctx context.Context, repoID string, private bool) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetRawPathParam("repo", repoPath(repoID)).
		SetBody(map[string]any{"private": private}).
		Put("/api/{repo}/settings")
	if err != nil {
		return fmt.Errorf("update settings of %s: %w", repoID, err)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

// TreeEntry is a file or directory in a repository
type TreeEntry struct {
	Type string `json:"type"`
	Path string `json:"path"`
	Size int64  `json:"size"`
	OID  string `json:"oid"`
}

// ListFiles lists the files under dir in a dataset, recursively. A missing
// directory lists as empty.
func (c *Client) ListFiles(ctx context.Context, repoID, dir string) ([]TreeEntry, error) {
	next := "/api/" + repoPath(repoID) + "/tree/" + DefaultRevision
	if dir = strings.Trim(dir, "/"); dir != "" {
		next += "/" + escapePath(dir)
	}
	next += "?recursive=true"

	var files []TreeEntry
	for next != "" {
		var page []TreeEntry
		resp, err := c.rest.R().
			SetContext(ctx).
			SetResult(&page).
			Get(next)
		if err != nil {
			return nil, fmt.Errorf("list files of %s: %w", repoID, err)
		}
		if resp.StatusCode() == http.StatusNotFound && len(files) == 0 {
			return nil, nil
		}
		if resp.IsError() {
			return nil, newAPIError(resp)
		}

		for _, e := range page {
			if e.Type == "file" {
				files = append(files, e)
			}
		}
		next = nextLink(resp.Header().Get("Link"))
	}
	return files, nil
}

// Download returns the content of a file at the main revision
func (c *Client) Download(ctx context.Context, repoID, path string) ([]byte, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		Get("/" + repoPath(repoID) + "/resolve/" + DefaultRevision + "/" + escapePath(path))
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", repoID, path, err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp)
	}
	return resp.Body(), nil
}

var linkNextPattern = regexp.MustCompile(`<([^>]+)>\s*;\s*rel="?next"?`)

// nextLink extracts the rel="next" target of a Link header
func nextLink(header string) string {
	if m := linkNextPattern.FindStringSubmatch(header); m != nil {
		return m[1]
	}
	return ""
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// SplitRepoID splits owner/name
func SplitRepoID(repoID string) (string, string, error) {
	owner, name, ok := strings.Cut(repoID, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid repository id %q (want owner/name)", repoID)
	}
	return owner, name, nil
}
