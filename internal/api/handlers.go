package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/classifier"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/scanner"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/store"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeNotFound       = "NOT_FOUND"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// Scanner runs and recalls page scans.
type Scanner interface {
	ScanURL(ctx context.Context, pageURL string, deep bool) (*domain.PageScan, error)
	Lookup(ctx context.Context, pageURL string) (*domain.PageScan, error)
	Forget(ctx context.Context, pageURL string) error
}

// DecisionRecorder counts classifier decisions.
type DecisionRecorder interface {
	RecordDecisions(kept, removed, unchanged int)
}

// ScanRequest is the body of POST /api/v1/scan.
type ScanRequest struct {
	URL  string `binding:"required" json:"url"`
	Deep bool   `json:"deep"`
}

// ClassifyRequest is the body of POST /api/v1/classify. Locked lists the
// indices of candidates the user chose by hand.
type ClassifyRequest struct {
	Candidates []*domain.Candidate `json:"candidates"`
	Locked     []int               `json:"locked"`
}

// ScoreRequest is the body of POST /api/v1/score.
type ScoreRequest struct {
	Text string `json:"text"`
}

// ScoreResponse is the body returned for a ScoreRequest.
type ScoreResponse struct {
	Score int  `json:"score"`
	Keep  bool `json:"keep"`
}

// Handler holds the HTTP handlers.
type Handler struct {
	scanner  Scanner
	recorder DecisionRecorder
	log      logger.Logger
}

// NewHandler creates a handler. recorder may be nil.
func NewHandler(s Scanner, recorder DecisionRecorder, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{scanner: s, recorder: recorder, log: log}
}

// Scan handles POST /api/v1/scan.
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.scan(c, req.URL, req.Deep)
}

// DeepScan handles POST /api/v1/deep-scan. It is Scan with deep forced on.
func (h *Handler) DeepScan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	h.scan(c, req.URL, true)
}

func (h *Handler) scan(c *gin.Context, pageURL string, deep bool) {
	result, err := h.scanner.ScanURL(c.Request.Context(), pageURL, deep)
	if err != nil {
		log := logger.FromContext(c.Request.Context())
		switch {
		case errors.Is(err, scanner.ErrInvalidURL):
			h.respondError(c, http.StatusBadRequest, CodeInvalidRequest, err)
		case errors.Is(err, scanner.ErrFetch):
			log.Warn("Page fetch failed", logger.String("page_url", pageURL), logger.Error(err))
			h.respondError(c, http.StatusBadGateway, CodeFetchFailed, err)
		default:
			log.Error("Scan failed", logger.String("page_url", pageURL), logger.Error(err))
			h.respondError(c, http.StatusInternalServerError, CodeInternal, err)
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// Classify handles POST /api/v1/classify.
func (h *Handler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	locked := make(map[int]bool, len(req.Locked))
	for _, i := range req.Locked {
		locked[i] = true
	}

	result := classifier.Filter(req.Candidates, locked)
	if h.recorder != nil {
		h.recorder.RecordDecisions(result.Kept, result.Removed, len(req.Candidates)-result.Kept-result.Removed)
	}

	c.JSON(http.StatusOK, result)
}

// Score handles POST /api/v1/score.
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	score := classifier.Score(req.Text)
	c.JSON(http.StatusOK, ScoreResponse{Score: score, Keep: classifier.Keeps(score)})
}

// GetScan handles GET /api/v1/scans?url=.
func (h *Handler) GetScan(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		h.respondError(c, http.StatusBadRequest, CodeInvalidRequest, errMissingURL)
		return
	}

	result, err := h.scanner.Lookup(c.Request.Context(), pageURL)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(c, http.StatusNotFound, CodeNotFound, err)
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Error("Scan lookup failed", logger.Error(err))
		h.respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteScan handles DELETE /api/v1/scans?url=.
func (h *Handler) DeleteScan(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		h.respondError(c, http.StatusBadRequest, CodeInvalidRequest, errMissingURL)
		return
	}

	if err := h.scanner.Forget(c.Request.Context(), pageURL); err != nil {
		logger.FromContext(c.Request.Context()).Error("Scan delete failed", logger.Error(err))
		h.respondError(c, http.StatusInternalServerError, CodeInternal, err)
		return
	}

	c.Status(http.StatusNoContent)
}

var errMissingURL = errors.New("url query parameter is required")

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.respondError(c, http.StatusBadRequest, CodeInvalidRequest, errors.New("invalid request body: "+err.Error()))
}

func (h *Handler) respondError(c *gin.Context, status int, code string, err error) {
	_ = c.Error(err)
	c.JSON(status, ErrorResponse{
		Error:     err.Error(),
		Code:      code,
		Timestamp: time.Now(),
	})
}
