// Package naming picks the human-readable label shown for a candidate link.
package naming

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxContextDepth is how many ancestors are searched for surrounding text.
	MaxContextDepth = 3

	minContextLen = 4
	maxContextLen = 80
	truncatedLen  = 77
	ellipsis      = "..."
)

var (
	genericLinkText = regexp.MustCompile(
		`(?i)^(print\s*\(pdf\)|pdf|download(\s+pdf)?|click\s+here|view|open|link|document|file|get\s+form|save|attachment)$`)
	numericFilename = regexp.MustCompile(`(?i)^[P\s\-]*\d[\d\s\-.]*$`)
	pdfSuffix       = regexp.MustCompile(`(?i)\.pdf$`)
	separatorRuns   = regexp.MustCompile(`[-_]+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)
	connectors      = regexp.MustCompile(`(?i)\b(?:or|and)\b|\|`)
)

// ContextSource exposes the direct text of a link's ancestors, nearest first.
// Each entry is the trimmed direct text nodes of one ancestor joined by spaces.
type ContextSource interface {
	AncestorTexts(maxDepth int) []string
}

// IsGeneric reports whether link text is a stock label like "Download" or "Print (PDF)".
func IsGeneric(text string) bool {
	return genericLinkText.MatchString(strings.TrimSpace(text))
}

// IsNumericFilename reports whether a humanised filename is only a code such as "6715" or "P-12 3".
func IsNumericFilename(name string) bool {
	return numericFilename.MatchString(name)
}

// HumanizeFilename decodes a raw path segment and turns it into words:
// "Application-for-Benefits_v2.pdf" becomes "Application for Benefits v2".
// Malformed escapes leave the segment undecoded.
func HumanizeFilename(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	decoded = pdfSuffix.ReplaceAllString(decoded, "")
	decoded = separatorRuns.ReplaceAllString(decoded, " ")
	return collapse(decoded)
}

// Resolve returns the display name for a link.
//
// Non-generic link text wins. Otherwise a descriptive filename is used, then
// ancestor text, then whatever filename form is non-empty.
func Resolve(linkText, rawFilename string, ctx ContextSource) string {
	text := strings.TrimSpace(linkText)
	if text != "" && !IsGeneric(text) {
		return text
	}

	humanized := HumanizeFilename(rawFilename)
	if humanized != "" && !IsNumericFilename(humanized) {
		return humanized
	}

	if ctx != nil {
		if name := contextName(ctx.AncestorTexts(MaxContextDepth)); name != "" {
			return name
		}
	}

	if humanized != "" {
		return humanized
	}
	return rawFilename
}

func contextName(levels []string) string {
	for i, raw := range levels {
		if i >= MaxContextDepth {
			break
		}

		cleaned := collapse(connectors.ReplaceAllString(raw, ""))
		runes := []rune(cleaned)
		if len(runes) < minContextLen || IsGeneric(cleaned) {
			continue
		}

		if len(runes) > maxContextLen {
			return string(runes[:truncatedLen]) + ellipsis
		}
		return cleaned
	}
	return ""
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}
