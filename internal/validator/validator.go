// Package validator annotates candidates with the action a consumer can take,
// probing implicit links to learn what they really point at.
package validator

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
)

// Validator owns a URL to result cache for the lifetime of one scan session.
//
// Concurrent probes for the same uncached URL may both hit the network;
// probes are idempotent reads so the duplicate is tolerated.
type Validator struct {
	prober Prober
	log    logger.Logger

	mu    sync.RWMutex
	cache map[string]domain.ValidationResult
}

// New creates a Validator. A nil log discards output.
func New(prober Prober, log logger.Logger) *Validator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Validator{
		prober: prober,
		log:    log,
		cache:  make(map[string]domain.ValidationResult),
	}
}

// Validate sets Action and Badge on every candidate. Implicit candidates are
// probed concurrently; Validate returns once all probes have finished.
func (v *Validator) Validate(ctx context.Context, candidates []*domain.Candidate) {
	var g errgroup.Group

	for _, c := range candidates {
		if !c.IsImplicit {
			c.Action = domain.ActionAnalyze
			c.Badge = domain.BadgeSuccess
			continue
		}

		g.Go(func() error {
			Apply(c, v.Check(ctx, c.URL))
			return nil
		})
	}

	_ = g.Wait()
}

// Check returns the cached result for rawURL, probing on a miss.
func (v *Validator) Check(ctx context.Context, rawURL string) domain.ValidationResult {
	v.mu.RLock()
	res, ok := v.cache[rawURL]
	v.mu.RUnlock()
	if ok {
		return res
	}

	res = v.prober.Probe(ctx, rawURL)
	if !res.Accessible {
		v.log.Debug("Probe failed",
			logger.String("url", rawURL),
			logger.Int("status", res.Status),
			logger.String("error", res.Error),
		)
	}

	v.mu.Lock()
	v.cache[rawURL] = res
	v.mu.Unlock()

	return res
}

// Cached reports how many URLs have a stored result.
func (v *Validator) Cached() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.cache)
}

// Reset drops every cached result.
func (v *Validator) Reset() {
	v.mu.Lock()
	v.cache = make(map[string]domain.ValidationResult)
	v.mu.Unlock()
}

// Apply maps a probe result onto an implicit candidate.
func Apply(c *domain.Candidate, res domain.ValidationResult) {
	switch {
	case !res.Accessible:
		c.Action = domain.ActionNavigate
		c.Badge = domain.BadgeWarning
	case strings.Contains(strings.ToLower(res.ContentTypeOrEmpty()), "pdf"):
		c.Action = domain.ActionAnalyze
		c.Badge = domain.BadgeSuccess
		c.IsImplicit = false
	default:
		c.Action = domain.ActionPeek
		c.Badge = domain.BadgeInfo
	}
}
