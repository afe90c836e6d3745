// Package session ties extraction, validation and deep scanning to one page.
//
// A Session owns all state that lives for the duration of a page view: the
// validation cache, the latest candidate list and the mutation debounce timer.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/classifier"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/deepscan"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/validator"
)

// DefaultDebounce is the quiet period after the last mutation before a re-scan.
const DefaultDebounce = 500 * time.Millisecond

// Scan kinds reported to the Observer.
const (
	KindPage     = "page"
	KindDeep     = "deep"
	KindMutation = "mutation"
)

// Extractor finds candidates in a parsed page.
type Extractor interface {
	Extract(src document.Source) []*domain.Candidate
}

// Observer receives scan measurements.
type Observer interface {
	ObserveScan(kind string, elapsed time.Duration, candidates []*domain.Candidate)
	RecordNeighborFetch(success bool)
}

// UpdateFunc receives the new candidate list after a mutation re-scan that
// changed the candidate count.
type UpdateFunc func(candidates []*domain.Candidate)

// Deps are the collaborators a Session is built from.
type Deps struct {
	Extractor Extractor
	Prober    validator.Prober
	Fetcher   deepscan.PageFetcher
	Observer  Observer
	Logger    logger.Logger
}

// Config tunes a Session.
type Config struct {
	Debounce         time.Duration
	MaxNeighborPages int
	NeighborRPS      float64
	// ScanTimeout bounds a mutation-triggered scan. Zero means no bound.
	ScanTimeout time.Duration
}

// Session scans one page.
type Session struct {
	id        string
	pageURL   string
	cfg       Config
	extractor Extractor
	validator *validator.Validator
	deep      *deepscan.Orchestrator
	observer  Observer
	log       logger.Logger

	mu         sync.Mutex
	candidates []*domain.Candidate
	lastCount  int
	timer      *time.Timer
	pending    document.Source
	onUpdate   UpdateFunc
	closed     bool
}

// New creates a Session for pageURL.
func New(pageURL string, deps Deps, cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}

	id := uuid.NewString()
	log = log.With(logger.String("session_id", id), logger.String("page_url", pageURL))

	s := &Session{
		id:        id,
		pageURL:   pageURL,
		cfg:       cfg,
		extractor: deps.Extractor,
		validator: validator.New(deps.Prober, log),
		observer:  deps.Observer,
		log:       log,
	}

	if deps.Fetcher != nil {
		opts := []deepscan.Option{
			deepscan.WithValidator(s.validator),
			deepscan.WithLogger(log),
		}
		if deps.Observer != nil {
			opts = append(opts, deepscan.WithRecorder(deps.Observer))
		}
		s.deep = deepscan.New(deps.Fetcher, deps.Extractor, deepscan.Config{
			MaxPages: cfg.MaxNeighborPages,
			RPS:      cfg.NeighborRPS,
		}, opts...)
	}

	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// PageURL returns the page this session scans.
func (s *Session) PageURL() string { return s.pageURL }

// OnUpdate registers fn to receive mutation re-scan results.
func (s *Session) OnUpdate(fn UpdateFunc) {
	s.mu.Lock()
	s.onUpdate = fn
	s.mu.Unlock()
}

// Scan extracts and validates candidates from src, replacing the previous list.
func (s *Session) Scan(ctx context.Context, src document.Source) *domain.PageScan {
	candidates := s.scan(ctx, KindPage, src)

	s.mu.Lock()
	s.lastCount = len(candidates)
	s.mu.Unlock()

	return &domain.PageScan{
		ID:         s.id,
		PageURL:    s.pageURL,
		IsPDFPage:  domain.IsPDFURL(s.pageURL),
		Candidates: candidates,
		ScannedAt:  time.Now().UTC(),
	}
}

// DeepScan scans the paginated neighbours of src. It needs a Fetcher; without
// one the result reports no pagination.
func (s *Session) DeepScan(ctx context.Context, src document.Source) *domain.DeepScan {
	if s.deep == nil {
		s.log.Warn("Deep scan requested without a page fetcher")
		return &domain.DeepScan{NoPagination: true, Candidates: make([]*domain.Candidate, 0)}
	}

	start := time.Now()
	res := s.deep.Scan(ctx, s.pageURL, src)
	if s.observer != nil {
		s.observer.ObserveScan(KindDeep, time.Since(start), res.Candidates)
	}
	return res
}

// Candidates returns a copy of the latest candidate list.
func (s *Session) Candidates() []*domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Candidate, len(s.candidates))
	for i, c := range s.candidates {
		out[i] = c.Clone()
	}
	return out
}

// Classify runs the batch classifier over the latest candidate list.
func (s *Session) Classify(locked map[int]bool) classifier.FilterResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return classifier.Filter(s.candidates, locked)
}

// NotifyMutation records that the page changed and now reads as src. A burst
// of notifications within the debounce period triggers a single re-scan of
// the most recent src. Subscribers hear about it only if the candidate count
// changed.
func (s *Session) NotifyMutation(src document.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.pending = src
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, s.rescan)
}

func (s *Session) rescan() {
	s.mu.Lock()
	src := s.pending
	s.pending = nil
	s.timer = nil
	closed := s.closed
	s.mu.Unlock()

	if closed || src == nil {
		return
	}

	ctx := context.Background()
	if s.cfg.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ScanTimeout)
		defer cancel()
	}

	candidates := s.scan(ctx, KindMutation, src)

	s.mu.Lock()
	changed := len(candidates) != s.lastCount
	s.lastCount = len(candidates)
	fn := s.onUpdate
	s.mu.Unlock()

	if !changed {
		s.log.Debug("Mutation re-scan unchanged", logger.Int("candidates", len(candidates)))
		return
	}

	s.log.Info("Candidates updated", logger.Int("candidates", len(candidates)))
	if fn != nil {
		fn(candidates)
	}
}

func (s *Session) scan(ctx context.Context, kind string, src document.Source) []*domain.Candidate {
	start := time.Now()

	candidates := s.extractor.Extract(src)
	s.validator.Validate(ctx, candidates)

	s.mu.Lock()
	s.candidates = candidates
	s.mu.Unlock()

	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveScan(kind, elapsed, candidates)
	}
	s.log.Debug("Scan complete",
		logger.String("kind", kind),
		logger.Int("candidates", len(candidates)),
		logger.Duration("elapsed", elapsed),
	)

	return candidates
}

// Reset clears the candidate list, validation cache and pending re-scan.
func (s *Session) Reset() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
	s.candidates = nil
	s.lastCount = 0
	s.mu.Unlock()

	s.validator.Reset()
}

// Close stops any pending re-scan. Further mutations are ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
