// Package scanner loads pages over HTTP and runs them through a scan session.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/config"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/deepscan"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/extractor"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/fetcher"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/httpclient"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/session"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/store"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/validator"
)

// Service errors.
var (
	ErrInvalidURL = errors.New("invalid page url")
	ErrFetch      = errors.New("fetch page")
)

// PageLoader retrieves the page being scanned and its neighbours.
type PageLoader interface {
	deepscan.PageFetcher
	Load(ctx context.Context, target string) (*fetcher.Page, error)
}

// Service scans pages by URL.
type Service struct {
	loader    PageLoader
	extractor *extractor.Extractor
	prober    validator.Prober
	store     store.Store
	observer  session.Observer
	cfg       session.Config
	log       logger.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStore saves every scan to st.
func WithStore(st store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithObserver reports scan measurements to obs.
func WithObserver(obs session.Observer) Option {
	return func(s *Service) { s.observer = obs }
}

// NewService creates a Service from its collaborators.
func NewService(loader PageLoader, prober validator.Prober, cfg session.Config, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Service{
		loader:    loader,
		extractor: extractor.New(log),
		prober:    prober,
		cfg:       cfg,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds a Service whose fetcher and prober honour cfg.
func FromConfig(cfg *config.Config, log logger.Logger, opts ...Option) *Service {
	loader := fetcher.New(fetcher.Config{
		Timeout:           cfg.Scanner.FetchTimeout,
		MaxBytes:          cfg.Scanner.MaxHTMLBytes,
		MaxRedirects:      cfg.Fetcher.MaxRedirects,
		UserAgent:         cfg.Scanner.UserAgent,
		AllowPrivateHosts: cfg.Fetcher.AllowPrivateHosts,
		RespectRobots:     cfg.Fetcher.RespectRobots,
	}, log)

	probeClient := httpclient.Config{Timeout: cfg.Scanner.ProbeTimeout}
	if !cfg.Fetcher.AllowPrivateHosts {
		probeClient.DialControl = fetcher.DenyInternalDial
	}
	prober := validator.NewHTTPProber(httpclient.New(probeClient), cfg.Scanner.ProbeTimeout, cfg.Scanner.UserAgent)

	return NewService(loader, prober, session.Config{
		Debounce:         cfg.Scanner.Debounce,
		MaxNeighborPages: cfg.Scanner.MaxNeighborPages,
		NeighborRPS:      cfg.Scanner.NeighborRPS,
		ScanTimeout:      cfg.Scanner.FetchTimeout * time.Duration(cfg.Scanner.MaxNeighborPages+1),
	}, log, opts...)
}

// NewSession opens a scan session for pageURL. The caller must Close it.
func (s *Service) NewSession(pageURL string) *session.Session {
	return session.New(pageURL, session.Deps{
		Extractor: s.extractor,
		Prober:    s.prober,
		Fetcher:   s.loader,
		Observer:  s.observer,
		Logger:    s.log,
	}, s.cfg)
}

// Load fetches and parses pageURL, following redirects to wherever the page
// lives. The document is based on the final URL.
func (s *Service) Load(ctx context.Context, pageURL string) (*document.Document, *fetcher.Page, error) {
	page, err := s.loader.Load(ctx, pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	doc, err := document.ParseString(page.HTML, page.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", page.URL, err)
	}
	return doc, page, nil
}

// ScanURL fetches pageURL and scans it, including its paginated neighbours
// when deep is set. A URL that is itself a PDF is reported as such without
// extracting anything.
func (s *Service) ScanURL(ctx context.Context, pageURL string, deep bool) (*domain.PageScan, error) {
	if err := CheckPageURL(pageURL); err != nil {
		return nil, err
	}

	if domain.IsPDFURL(pageURL) {
		return s.save(ctx, pdfPage(pageURL)), nil
	}

	doc, page, err := s.Load(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if domain.IsPDFContentType(page.ContentType) {
		return s.save(ctx, pdfPage(pageURL)), nil
	}

	// Neighbours are checked against the origin the page was served from.
	sess := s.NewSession(page.URL)
	defer sess.Close()

	scan := sess.Scan(ctx, doc)
	if deep {
		scan.DeepScan = sess.DeepScan(ctx, doc)
	}
	scan.PageURL = pageURL
	if page.URL != pageURL {
		scan.FinalURL = page.URL
	}

	s.log.Info("Page scanned",
		logger.String("page_url", pageURL),
		logger.Int("candidates", len(scan.Candidates)),
		logger.Bool("deep", deep),
	)

	return s.save(ctx, scan), nil
}

// Lookup returns the stored scan of pageURL.
func (s *Service) Lookup(ctx context.Context, pageURL string) (*domain.PageScan, error) {
	if s.store == nil {
		return nil, store.ErrNotFound
	}
	return s.store.Get(ctx, pageURL)
}

// Forget removes the stored scan of pageURL.
func (s *Service) Forget(ctx context.Context, pageURL string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, pageURL)
}

func (s *Service) save(ctx context.Context, scan *domain.PageScan) *domain.PageScan {
	if s.store == nil {
		return scan
	}
	if err := s.store.Save(ctx, scan); err != nil {
		s.log.Warn("Failed to store scan",
			logger.String("page_url", scan.PageURL),
			logger.Error(err),
		)
	}
	return scan
}

// CheckPageURL accepts absolute http and https URLs.
func CheckPageURL(pageURL string) error {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}
	return nil
}

func pdfPage(pageURL string) *domain.PageScan {
	return &domain.PageScan{
		ID:         uuid.NewString(),
		PageURL:    pageURL,
		IsPDFPage:  true,
		Candidates: make([]*domain.Candidate, 0),
		ScannedAt:  time.Now().UTC(),
	}
}
