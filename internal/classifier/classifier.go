// Package classifier scores candidate text as actionable or informational.
//
// Every pattern is evaluated against the full haystack and contributions are
// summed, so the score does not depend on pattern order.
package classifier

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

// Decision is the per-index outcome of a batch classification.
type Decision int

const (
	// Unchanged is given to locked indices. It is not a deselect.
	Unchanged Decision = iota
	Keep
	Deselect
)

// String returns the decision name used in API responses.
func (d Decision) String() string {
	switch d {
	case Keep:
		return "keep"
	case Deselect:
		return "deselect"
	default:
		return "unchanged"
	}
}

// MarshalText lets decisions serialise by name.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses a decision name.
func (d *Decision) UnmarshalText(text []byte) error {
	switch string(text) {
	case "keep":
		*d = Keep
	case "deselect":
		*d = Deselect
	case "unchanged":
		*d = Unchanged
	default:
		return fmt.Errorf("unknown decision %q", text)
	}
	return nil
}

// Score returns the summed pattern contributions for text. Empty text scores 0.
func Score(text string) int {
	if text == "" {
		return 0
	}

	score := 0
	for _, p := range informationalPatterns {
		if p.MatchString(text) {
			score--
		}
	}
	if matchesNotice(text) {
		score--
	}
	for _, p := range actionablePatterns {
		if p.MatchString(text) {
			score++
		}
	}

	return score
}

// Keeps reports whether a score selects its candidate. Neutral text is kept.
func Keeps(score int) bool {
	return score >= 0
}

// Haystack joins the display text, raw filename and decoded URL of c.
func Haystack(c *domain.Candidate) string {
	decoded, err := url.PathUnescape(c.URL)
	if err != nil {
		decoded = c.URL
	}
	return strings.Join([]string{c.Text, c.Filename, decoded}, " ")
}

// ScoreCandidate scores every textual signal of c.
func ScoreCandidate(c *domain.Candidate) int {
	if c == nil {
		return 0
	}
	return Score(Haystack(c))
}

// FilterResult is the outcome of Filter.
type FilterResult struct {
	Decisions []Decision `json:"decisions"`
	Kept      int        `json:"kept"`
	Removed   int        `json:"removed"`
}

// Filter classifies each candidate not listed in locked. Locked indices get
// Unchanged and are excluded from the kept and removed counts.
func Filter(candidates []*domain.Candidate, locked map[int]bool) FilterResult {
	res := FilterResult{Decisions: make([]Decision, len(candidates))}

	for i, c := range candidates {
		if locked[i] {
			res.Decisions[i] = Unchanged
			continue
		}

		if Keeps(ScoreCandidate(c)) {
			res.Decisions[i] = Keep
			res.Kept++
		} else {
			res.Decisions[i] = Deselect
			res.Removed++
		}
	}

	return res
}
