package fetcher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// ErrRobotsDisallowed is returned when robots.txt forbids a neighbour page.
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

const (
	defaultRobotsTTL   = 24 * time.Hour
	maxRobotsBodyBytes = 512 * 1024
)

// RobotsChecker caches robots.txt rules per origin. A missing, failing or
// unparsable robots.txt allows everything.
type RobotsChecker struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration

	mu    sync.RWMutex
	rules map[string]robotsEntry
}

type robotsEntry struct {
	group     *robotstxt.Group // nil allows all
	fetchedAt time.Time
}

// NewRobotsChecker creates a checker. A zero ttl caches for a day.
func NewRobotsChecker(client *http.Client, userAgent string, ttl time.Duration) *RobotsChecker {
	if ttl == 0 {
		ttl = defaultRobotsTTL
	}
	return &RobotsChecker{
		client:    client,
		userAgent: userAgent,
		ttl:       ttl,
		rules:     make(map[string]robotsEntry),
	}
}

// Allowed reports whether the user agent may fetch u.
func (r *RobotsChecker) Allowed(ctx context.Context, u *url.URL) bool {
	origin := strings.ToLower(u.Scheme + "://" + u.Host)

	r.mu.RLock()
	entry, ok := r.rules[origin]
	r.mu.RUnlock()

	if !ok || time.Since(entry.fetchedAt) > r.ttl {
		entry = robotsEntry{group: r.load(ctx, origin), fetchedAt: time.Now()}
		r.mu.Lock()
		r.rules[origin] = entry
		r.mu.Unlock()
	}

	if entry.group == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return entry.group.Test(path)
}

func (r *RobotsChecker) load(ctx context.Context, origin string) *robotstxt.Group {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", http.NoBody)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.userAgent)
}
