package deepscan

import (
	"regexp"
	"slices"
	"strings"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
)

// DefaultMaxPages caps how many neighbour pages one deep scan fetches.
const DefaultMaxPages = 3

var (
	paginationTexts = []string{"next", "previous", "next page", "previous page", ">", "<"}
	pageNumber      = regexp.MustCompile(`^\d+$`)
)

// FindPaginationLinks returns up to limit distinct pagination targets of src in
// document order. A link qualifies by rel="next" or rel="prev", by
// next/previous style text, or by numeric text on an href containing "page".
func FindPaginationLinks(src document.Source, limit int) []string {
	if limit <= 0 {
		limit = DefaultMaxPages
	}

	seen := make(map[string]bool)
	links := make([]string, 0, limit)

	for _, a := range src.Anchors() {
		if len(links) == limit {
			break
		}

		href := a.Href()
		if seen[href] || !isPagination(a) {
			continue
		}
		seen[href] = true
		links = append(links, href)
	}

	return links
}

func isPagination(a document.Anchor) bool {
	rel := strings.ToLower(strings.TrimSpace(a.Rel()))
	if rel == "next" || rel == "prev" {
		return true
	}

	text := strings.ToLower(a.Text())
	if slices.Contains(paginationTexts, text) {
		return true
	}

	return pageNumber.MatchString(text) && strings.Contains(a.Href(), "page")
}
