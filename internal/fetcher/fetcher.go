// Package fetcher retrieves HTML pages for scans. Neighbour fetches are
// limited to the origin of the page being scanned, and no fetch reaches an
// internal host.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/httpclient"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
)

// Defaults for Config.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultMaxBytes     = 5 * 1024 * 1024
	DefaultMaxRedirects = 5
	DefaultUserAgent    = "NorthCloud-FormScanner/1.0"
)

// Fetch errors.
var (
	ErrTooLarge         = errors.New("response too large")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrStatus           = errors.New("unexpected status")
)

// Config controls a Fetcher.
type Config struct {
	Timeout      time.Duration
	MaxBytes     int64
	MaxRedirects int
	UserAgent    string
	// AllowPrivateHosts lifts the internal-host gate. Only tests should set it.
	AllowPrivateHosts bool
	RespectRobots     bool
}

// WithDefaults returns a copy of c with zero fields filled in.
func (c Config) WithDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes == 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	return c
}

// Page is a fetched HTML document.
type Page struct {
	URL         string
	HTML        string
	StatusCode  int
	ContentType string
}

// Response is the result shape handed to page consumers: failure is data,
// not an error.
type Response struct {
	Success     bool   `json:"success"`
	HTML        string `json:"html,omitempty"`
	Error       string `json:"error,omitempty"`
	FinalURL    string `json:"final_url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Fetcher retrieves same-origin pages.
type Fetcher struct {
	cfg    Config
	client *http.Client
	robots *RobotsChecker
	log    logger.Logger
}

// New creates a Fetcher. A nil log discards output.
func New(cfg Config, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	cfg = cfg.WithDefaults()

	f := &Fetcher{cfg: cfg, log: log}

	clientCfg := httpclient.Config{
		Timeout:       cfg.Timeout,
		CheckRedirect: f.checkRedirect,
	}
	if !cfg.AllowPrivateHosts {
		clientCfg.DialControl = DenyInternalDial
	}
	f.client = httpclient.New(clientCfg)

	if cfg.RespectRobots {
		f.robots = NewRobotsChecker(f.client, cfg.UserAgent, 0)
	}

	return f
}

// Fetch retrieves target on behalf of a page at origin and reports the
// outcome as a Response.
func (f *Fetcher) Fetch(ctx context.Context, origin, target string) Response {
	page, err := f.Get(ctx, origin, target)
	if err != nil {
		return Response{Error: err.Error()}
	}
	return Response{
		Success:     true,
		HTML:        page.HTML,
		FinalURL:    page.URL,
		ContentType: page.ContentType,
	}
}

// Get retrieves target, which must share origin's scheme, host and port.
// Redirects must stay on that origin too.
func (f *Fetcher) Get(ctx context.Context, origin, target string) (*Page, error) {
	targetURL, err := f.gate(target)
	if err != nil {
		f.log.Warn("Blocked unsafe fetch", logger.String("url", target), logger.Error(err))
		return nil, err
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if !SameOrigin(originURL, targetURL) {
		f.log.Warn("Blocked cross-origin fetch",
			logger.String("url", target),
			logger.String("origin", origin),
		)
		return nil, ErrCrossOrigin
	}

	if f.robots != nil && !f.robots.Allowed(ctx, targetURL) {
		return nil, ErrRobotsDisallowed
	}

	return f.do(ctx, targetURL)
}

// Load retrieves the page a scan starts from. Redirects may leave the
// requested origin, as a browser would follow them; every hop still passes
// the internal-host gate and the hop limit. Page.URL is where it landed.
func (f *Fetcher) Load(ctx context.Context, target string) (*Page, error) {
	targetURL, err := f.gate(target)
	if err != nil {
		f.log.Warn("Blocked unsafe fetch", logger.String("url", target), logger.Error(err))
		return nil, err
	}
	return f.do(context.WithValue(ctx, crossOriginKey{}, true), targetURL)
}

type crossOriginKey struct{}

func (f *Fetcher) do(ctx context.Context, targetURL *url.URL) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", targetURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: HTTP %d", ErrStatus, resp.StatusCode)
	}
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := readLimited(resp.Body, f.cfg.MaxBytes)
	if err != nil {
		return nil, err
	}

	text, err := decodeHTML(body, contentType)
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:         resp.Request.URL.String(),
		HTML:        text,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
	}, nil
}

func (f *Fetcher) gate(target string) (*url.URL, error) {
	if !f.cfg.AllowPrivateHosts {
		return CheckURL(target)
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}
	return u, nil
}

// checkRedirect gates every hop and keeps it within the hop limit. Outside
// Load it also keeps every hop on the first request's origin.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.cfg.MaxRedirects {
		return ErrTooManyRedirects
	}
	if _, err := f.gate(req.URL.String()); err != nil {
		return err
	}
	if crossOK, _ := req.Context().Value(crossOriginKey{}).(bool); crossOK {
		return nil
	}
	if !SameOrigin(via[0].URL, req.URL) {
		return ErrCrossOrigin
	}
	return nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, ErrTooLarge
	}
	return body, nil
}

// decodeHTML converts body to UTF-8 using the declared or sniffed charset.
func decodeHTML(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("decode charset: %w", err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}
	return string(text), nil
}
