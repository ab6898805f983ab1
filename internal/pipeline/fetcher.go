package pipeline

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/pdevulapally/fakeverifier-data/internal/logger"
	"github.com/pdevulapally/fakeverifier-data/internal/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Fetcher downloads source files. It never retries: callers move on to the
// next candidate instead.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    *util.Limiter
}

// FetcherOptions configures a Fetcher
type FetcherOptions struct {
	Timeout       time.Duration
	UserAgent     string
	MaxBytes      int64
	InsecureTLS   bool
	RespectRobots bool
	HTTPProxy     string
	HTTPSProxy    string
	NoProxy       string
	Limiter       *util.Limiter
}

// NewFetcher creates a new Fetcher with the given options
func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 64 << 20
	}
	transport := util.NewTransport(opts.HTTPProxy, opts.HTTPSProxy, opts.NoProxy)
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed mirrors
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		limiter:   opts.Limiter,
	}
	if opts.RespectRobots {
		f.robots = util.NewRobotsChecker(f.httpClient, opts.UserAgent)
	}
	return f
}

// FetchResult contains the fetched body and response metadata
type FetchResult struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// Fetch retrieves rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
	}

	if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/tab-separated-values,text/plain,application/zip,*/*;q=0.8")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the limit to detect truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", f.maxBytes)
	}

	result := &FetchResult{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}

	logger.FromContext(ctx).Debug("fetched", "url", result.FinalURL, "status", resp.StatusCode,
		"bytes", len(body), "elapsed", time.Since(start).Round(time.Millisecond))

	if title, ok := htmlPage(result.ContentType, body); ok {
		return nil, fmt.Errorf("got an HTML page instead of data (title %q)", title)
	}

	return result, nil
}

// Get returns the body of rawURL
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	result, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return result.Body, nil
}

// htmlPage reports whether a response is a web page rather than a data
// file, returning its title.
func htmlPage(contentType string, body []byte) (string, bool) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	declared := mediaType == "text/html" || mediaType == "application/xhtml+xml"

	head := bytes.TrimSpace(body)
	if len(head) > 512 {
		head = head[:512]
	}
	lower := strings.ToLower(string(head))
	sniffed := strings.HasPrefix(lower, "<!doctype html") || strings.HasPrefix(lower, "<html")

	if !declared && !sniffed {
		return "", false
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", declared
	}
	return findTitle(doc), true
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}
