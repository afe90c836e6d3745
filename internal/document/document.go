// Package document parses HTML pages into the anchor view the scanner works on.
package document

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Source is a parsed page the extractor and deep scanner can read.
type Source interface {
	// BaseURL is the URL relative links resolve against.
	BaseURL() *url.URL
	// Anchors returns every <a href> with a resolvable target, in document order.
	Anchors() []Anchor
}

// Anchor is one link element.
type Anchor interface {
	// Href is the absolute link target.
	Href() string
	// Text is the trimmed text content of the link, descendants included.
	Text() string
	// Rel is the raw rel attribute.
	Rel() string
	// AncestorTexts returns the direct text of up to maxDepth ancestors, nearest first.
	AncestorTexts(maxDepth int) []string
}

// Document is a goquery-backed Source.
type Document struct {
	doc  *goquery.Document
	base *url.URL
}

// Parse reads an HTML page fetched from pageURL. A <base href> in the page,
// resolved against pageURL, overrides pageURL as the base.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, refErr := url.Parse(strings.TrimSpace(href)); refErr == nil {
			base = base.ResolveReference(ref)
		}
	}

	return &Document{doc: doc, base: base}, nil
}

// ParseString is Parse over an in-memory page.
func ParseString(body, pageURL string) (*Document, error) {
	return Parse(strings.NewReader(body), pageURL)
}

// BaseURL implements Source.
func (d *Document) BaseURL() *url.URL {
	u := *d.base
	return &u
}

// Title returns the trimmed page title.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Anchors implements Source. Links whose href cannot be parsed are skipped.
func (d *Document) Anchors() []Anchor {
	sel := d.doc.Find("a[href]")
	anchors := make([]Anchor, 0, sel.Length())

	sel.Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(raw))
		if err != nil {
			return
		}

		rel, _ := s.Attr("rel")
		anchors = append(anchors, &anchor{
			node: s.Nodes[0],
			href: d.base.ResolveReference(ref).String(),
			text: strings.TrimSpace(s.Text()),
			rel:  rel,
		})
	})

	return anchors
}

type anchor struct {
	node *html.Node
	href string
	text string
	rel  string
}

func (a *anchor) Href() string { return a.href }
func (a *anchor) Text() string { return a.text }
func (a *anchor) Rel() string  { return a.rel }

func (a *anchor) AncestorTexts(maxDepth int) []string {
	texts := make([]string, 0, maxDepth)
	for n := a.node.Parent; n != nil && n.Type == html.ElementNode && len(texts) < maxDepth; n = n.Parent {
		texts = append(texts, directText(n))
	}
	return texts
}

// directText joins the non-empty text node children of n, ignoring nested elements.
func directText(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if t := strings.TrimSpace(c.Data); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
