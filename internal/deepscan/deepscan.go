// Package deepscan extends a scan to the paginated neighbours of a page.
package deepscan

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/fetcher"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
)

// PageFetcher retrieves a neighbour page on behalf of the page at origin.
type PageFetcher interface {
	Fetch(ctx context.Context, origin, target string) fetcher.Response
}

// Extractor finds candidates in a parsed page.
type Extractor interface {
	Extract(src document.Source) []*domain.Candidate
}

// Validator annotates candidates with their action.
type Validator interface {
	Validate(ctx context.Context, candidates []*domain.Candidate)
}

// Recorder observes neighbour fetch outcomes.
type Recorder interface {
	RecordNeighborFetch(success bool)
}

// Config holds the deep scan limits.
type Config struct {
	MaxPages int
	// RPS paces neighbour fetches. Zero or less disables pacing.
	RPS float64
}

// Orchestrator fetches neighbour pages one at a time and merges their candidates.
type Orchestrator struct {
	fetcher   PageFetcher
	extractor Extractor
	validator Validator
	recorder  Recorder
	limiter   *rate.Limiter
	maxPages  int
	log       logger.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithValidator validates neighbour candidates before they are tagged.
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) { o.validator = v }
}

// WithRecorder reports each neighbour fetch to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// New creates an Orchestrator.
func New(f PageFetcher, ex Extractor, cfg Config, opts ...Option) *Orchestrator {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}

	o := &Orchestrator{
		fetcher:   f,
		extractor: ex,
		limiter:   rate.NewLimiter(limit, 1),
		maxPages:  cfg.MaxPages,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scan finds pagination links in src, the parsed page at pageURL, and
// extracts candidates from each neighbour. A neighbour that cannot be
// fetched or parsed contributes nothing; the remaining neighbours are still
// scanned.
func (o *Orchestrator) Scan(ctx context.Context, pageURL string, src document.Source) *domain.DeepScan {
	origin := pageURL
	targets := FindPaginationLinks(src, o.maxPages)

	result := &domain.DeepScan{
		NoPagination: len(targets) == 0,
		PagesFound:   len(targets),
		Candidates:   make([]*domain.Candidate, 0),
	}

	for _, target := range targets {
		if err := o.limiter.Wait(ctx); err != nil {
			o.log.Warn("Deep scan stopped", logger.String("url", target), logger.Error(err))
			result.FailedPages = append(result.FailedPages, target)
			continue
		}

		found, ok := o.scanNeighbor(ctx, origin, target)
		if o.recorder != nil {
			o.recorder.RecordNeighborFetch(ok)
		}
		if !ok {
			result.FailedPages = append(result.FailedPages, target)
			continue
		}

		result.PagesFetched++
		result.Candidates = append(result.Candidates, found...)
	}

	o.log.Info("Deep scan complete",
		logger.String("origin", origin),
		logger.Int("pages_found", result.PagesFound),
		logger.Int("pages_fetched", result.PagesFetched),
		logger.Int("candidates", len(result.Candidates)),
	)

	return result
}

func (o *Orchestrator) scanNeighbor(ctx context.Context, origin, target string) ([]*domain.Candidate, bool) {
	resp := o.fetcher.Fetch(ctx, origin, target)
	if !resp.Success {
		o.log.Error("Deep scan fetch failed", logger.String("url", target), logger.String("error", resp.Error))
		return nil, false
	}

	base := target
	if resp.FinalURL != "" {
		base = resp.FinalURL
	}

	doc, err := document.ParseString(resp.HTML, base)
	if err != nil {
		o.log.Error("Deep scan parse failed", logger.String("url", target), logger.Error(err))
		return nil, false
	}

	found := o.extractor.Extract(doc)
	if o.validator != nil {
		o.validator.Validate(ctx, found)
	}
	for _, c := range found {
		c.SourcePage = domain.SourceNeighbor
		c.Badge = domain.BadgeDeepScan
	}

	return found, true
}
