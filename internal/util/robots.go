package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
)

// RobotsChecker consults robots.txt before a mirror is downloaded. Rules are
// cached per origin for the life of the checker.
type RobotsChecker struct {
	client *http.Client
	agent  string
	token  string

	mu    sync.Mutex
	rules map[string]*robotstxt.RobotsData
}

// NewRobotsChecker creates a checker that fetches robots.txt with client,
// so proxy and timeout settings match the downloads it guards.
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &RobotsChecker{
		client: client,
		agent:  userAgent,
		token:  NormalizeUserAgent(userAgent),
		rules:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched. An origin whose robots.txt
// cannot be read allows everything, and that outcome is cached too.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return false, fmt.Errorf("not an absolute URL: %q", rawURL)
	}

	data := r.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.token), nil
}

func (r *RobotsChecker) rulesFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.Lock()
	data, seen := r.rules[origin]
	r.mu.Unlock()
	if seen {
		return data
	}

	data, err := r.fetch(ctx, origin+"/robots.txt")
	if err != nil && ctx.Err() != nil {
		// Cancellation says nothing about the origin
		return nil
	}

	r.mu.Lock()
	r.rules[origin] = data
	r.mu.Unlock()
	return data
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	return robotstxt.FromResponse(resp)
}

// NormalizeUserAgent reduces a user agent to its product token
func NormalizeUserAgent(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ""
	}
	token, _, _ := strings.Cut(fields[0], "/")
	return token
}
