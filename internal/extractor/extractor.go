// Package extractor finds form and PDF links in a parsed page and groups
// language variants of the same form into one candidate.
package extractor

import (
	"net/url"
	"regexp"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/logger"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/naming"
)

// ImplicitFilename is shown when a link has no last path segment.
const ImplicitFilename = "Implicit Form"

// formKeywords mark a non-PDF link as a likely form when found in its URL or text.
var formKeywords = []string{
	"/form/", "/forms/", "/resource/", "/document/", "form-", "-form",
	"application", "authorization", "instructions", "permit",
	"request", "guide", "manual", "checklist", "agreement",
	"contract", "report", "survey", "plan", "packet",
}

// excludeMarkers disqualify keyword matches. Direct PDFs are never excluded.
var excludeMarkers = []string{".html", ".php", ".aspx", ".jsp", "#", "javascript:"}

var (
	// languageMarker matches a delimiter-bounded language code or a
	// parenthesised language name. Group 2 keeps the trailing delimiter.
	languageMarker = regexp.MustCompile(
		`(?i)[-_](es|sp|vie|chi|rus|zho|kor|tag|hmn)([-_.])|\((Spanish|Español|Vietnamese|Chinese|Russian|Korean|Tagalog)\)`)
	danglingSeparator = regexp.MustCompile(`(?i)[-_]\.pdf$`)
	pdfExtension      = regexp.MustCompile(`(?i)\.pdf$`)
)

// Extractor scans documents for candidates. It is safe for concurrent use.
type Extractor struct {
	mu       sync.Mutex
	keywords *ahocorasick.Matcher
	log      logger.Logger
}

// New creates an Extractor. A nil log discards output.
func New(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Extractor{
		keywords: ahocorasick.NewStringMatcher(formKeywords),
		log:      log,
	}
}

// Extract returns the deduplicated candidates of src, in order of each
// group's first appearance. Validation is left to the caller.
func (e *Extractor) Extract(src document.Source) []*domain.Candidate {
	anchors := src.Anchors()
	groups := make(map[string]*domain.Candidate)
	ordered := make([]*domain.Candidate, 0)
	skipped := 0

	for _, a := range anchors {
		href := a.Href()
		text := a.Text()
		if !e.Accepts(href, text) {
			skipped++
			continue
		}

		raw := RawFilename(href)
		foreign := IsForeignLanguage(raw) || IsForeignLanguage(text)
		direct := IsDirectPDF(href)
		key := GroupKey(raw, text)

		display := raw
		if display == "" {
			display = ImplicitFilename
		}
		name := naming.Resolve(text, raw, a)
		if name == "" {
			name = display
		}

		entry, ok := groups[key]
		if !ok {
			entry = &domain.Candidate{
				URL:               href,
				Filename:          display,
				Text:              name,
				LanguageCount:     1,
				IsPrimaryLanguage: !foreign,
				IsImplicit:        !direct,
				Variations:        []string{display},
				Action:            domain.ActionUnknown,
				GroupKey:          key,
			}
			groups[key] = entry
			ordered = append(ordered, entry)
			continue
		}

		entry.LanguageCount++
		entry.AddVariation(display)
		if !entry.IsPrimaryLanguage && !foreign {
			entry.URL = href
			entry.Filename = display
			entry.Text = name
			entry.IsPrimaryLanguage = true
			entry.IsImplicit = !direct
		}
	}

	e.log.Debug("Extracted candidates",
		logger.String("base_url", src.BaseURL().String()),
		logger.Int("anchors", len(anchors)),
		logger.Int("skipped", skipped),
		logger.Int("candidates", len(ordered)),
	)

	return ordered
}

// Accepts reports whether a link is a direct PDF or a keyword-matched form
// link without an excluded marker.
func (e *Extractor) Accepts(href, text string) bool {
	if href == "" {
		return false
	}
	if IsDirectPDF(href) {
		return true
	}
	return e.hasFormKeyword(href, text) && !IsExcluded(href)
}

func (e *Extractor) hasFormKeyword(href, text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.keywords.Match([]byte(strings.ToLower(href)))) > 0 {
		return true
	}
	return len(e.keywords.Match([]byte(strings.ToLower(text)))) > 0
}

// IsDirectPDF reports whether href ends in .pdf or has .pdf before a query.
func IsDirectPDF(href string) bool {
	lower := strings.ToLower(href)
	return strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, ".pdf?")
}

// IsExcluded reports whether href carries a page extension, fragment or script marker.
func IsExcluded(href string) bool {
	lower := strings.ToLower(href)
	for _, m := range excludeMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// RawFilename returns the last path segment of href with any query removed.
func RawFilename(href string) string {
	seg := href[strings.LastIndex(href, "/")+1:]
	if i := strings.IndexByte(seg, '?'); i >= 0 {
		seg = seg[:i]
	}
	return seg
}

// IsForeignLanguage reports whether s carries a non-primary language marker.
func IsForeignLanguage(s string) bool {
	return languageMarker.MatchString(s) || languageMarker.MatchString(decode(s))
}

// StripLanguage removes the first language marker from a filename, keeping
// the separator that followed a language code:
// "218-es-BECU-Authorization.pdf" becomes "218-BECU-Authorization.pdf".
func StripLanguage(filename string) string {
	loc := languageMarker.FindStringSubmatchIndex(filename)
	if loc == nil {
		return filename
	}

	keep := ""
	if loc[4] >= 0 {
		keep = filename[loc[4]:loc[5]]
	}
	stripped := filename[:loc[0]] + keep + filename[loc[1]:]
	return danglingSeparator.ReplaceAllString(stripped, ".pdf")
}

// GroupKey derives the key language variants share: the decoded filename
// without its language marker or .pdf extension, lower-cased and NFKC
// normalised. Links with no filename are keyed by their text.
func GroupKey(rawFilename, text string) string {
	base := StripLanguage(decode(rawFilename))
	key := strings.TrimSpace(strings.ToLower(pdfExtension.ReplaceAllString(base, "")))
	if key == "" {
		key = strings.TrimSpace(strings.ToLower(text))
	}
	return norm.NFKC.String(key)
}

func decode(s string) string {
	d, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return d
}
