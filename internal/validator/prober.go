package validator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober checks whether a URL is reachable. Failures are reported in the
// result, never as a separate error.
type Prober interface {
	Probe(ctx context.Context, rawURL string) domain.ValidationResult
}

// HTTPProber issues HEAD requests.
type HTTPProber struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// NewHTTPProber creates a prober. A zero timeout uses DefaultProbeTimeout.
func NewHTTPProber(client *http.Client, timeout time.Duration, userAgent string) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProber{client: client, timeout: timeout, userAgent: userAgent}
}

// Probe implements Prober. Only a 2xx final status counts as accessible.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) domain.ValidationResult {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, http.NoBody)
	if err != nil {
		return failed(fmt.Errorf("build request: %w", err))
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return failed(err)
	}
	defer resp.Body.Close()

	res := domain.ValidationResult{
		Accessible: resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices,
		Status:     resp.StatusCode,
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		res.ContentType = &ct
	}
	return res
}

func failed(err error) domain.ValidationResult {
	return domain.ValidationResult{Error: err.Error()}
}
