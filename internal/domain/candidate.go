// Package domain holds the data model shared by the scanner components.
package domain

import "slices"

// Action tells a consumer what it can do with a candidate.
type Action string

const (
	ActionUnknown  Action = "unknown"
	ActionAnalyze  Action = "analyze"
	ActionNavigate Action = "navigate"
	ActionPeek     Action = "peek"
)

// Badge is a presentation hint. It carries no semantic state.
type Badge string

const (
	BadgeNone     Badge = ""
	BadgeSuccess  Badge = "success"
	BadgeWarning  Badge = "warning"
	BadgeInfo     Badge = "info"
	BadgeDeepScan Badge = "deep-scan"
)

// SourceNeighbor marks candidates discovered on a paginated neighbour page.
const SourceNeighbor = "Neighbor"

// Candidate is one deduplicated form or document reference found on a page.
//
// Identity fields (URL, Filename, Text, GroupKey) are owned by the extractor;
// the validator only sets Action, Badge and IsImplicit.
type Candidate struct {
	URL               string   `json:"url"`
	Filename          string   `json:"filename"`
	Text              string   `json:"text"`
	LanguageCount     int      `json:"language_count"`
	IsPrimaryLanguage bool     `json:"is_english"`
	IsImplicit        bool     `json:"is_implicit"`
	Variations        []string `json:"variations"`
	Action            Action   `json:"action"`
	Badge             Badge    `json:"badge_type,omitempty"`
	SourcePage        string   `json:"source_page,omitempty"`
	GroupKey          string   `json:"-"`
}

// AddVariation records a raw filename under this candidate, ignoring duplicates.
func (c *Candidate) AddVariation(filename string) {
	if slices.Contains(c.Variations, filename) {
		return
	}
	c.Variations = append(c.Variations, filename)
}

// Clone returns a deep copy of c.
func (c *Candidate) Clone() *Candidate {
	cp := *c
	cp.Variations = slices.Clone(c.Variations)
	return &cp
}

// ValidationResult is the outcome of a reachability probe. It is never persisted.
type ValidationResult struct {
	Accessible  bool    `json:"accessible"`
	ContentType *string `json:"content_type"`
	Status      int     `json:"status"`
	Error       string  `json:"error,omitempty"`
}

// ContentTypeOrEmpty returns the probed content type, or "" when none was reported.
func (r ValidationResult) ContentTypeOrEmpty() string {
	if r.ContentType == nil {
		return ""
	}
	return *r.ContentType
}
