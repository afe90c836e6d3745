package domain

import (
	"strings"
	"time"
)

// PageScan is the result of scanning one page, as returned to API and CLI consumers.
type PageScan struct {
	ID         string       `json:"id"`
	PageURL    string       `json:"page_url"`
	FinalURL   string       `json:"final_url,omitempty"`
	IsPDFPage  bool         `json:"is_pdf_page"`
	Candidates []*Candidate `json:"pdfs"`
	DeepScan   *DeepScan    `json:"deep_scan,omitempty"`
	ScannedAt  time.Time    `json:"scanned_at"`
}

// DeepScan summarises a neighbour-page scan.
type DeepScan struct {
	NoPagination bool         `json:"no_pagination"`
	PagesFound   int          `json:"pages_found"`
	PagesFetched int          `json:"pages_fetched"`
	FailedPages  []string     `json:"failed_pages,omitempty"`
	Candidates   []*Candidate `json:"pdfs"`
}

// IsPDFURL reports whether a page URL itself points at a PDF document.
func IsPDFURL(rawURL string) bool {
	return strings.HasSuffix(rawURL, ".pdf") ||
		strings.Contains(rawURL, ".pdf?") ||
		strings.Contains(rawURL, "type=application/pdf")
}

// IsPDFContentType reports whether a Content-Type header names a PDF.
func IsPDFContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/pdf")
}
