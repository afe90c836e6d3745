package scan

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/classifier"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

// Renderer writes scan results as a table or as JSON.
type Renderer struct {
	out      io.Writer
	json     bool
	classify bool
}

// NewRenderer creates a Renderer writing to out. With classify set, each
// table row also shows the batch classifier's decision.
func NewRenderer(out io.Writer, asJSON, classify bool) *Renderer {
	return &Renderer{out: out, json: asJSON, classify: classify}
}

// RenderScan writes a page scan.
func (r *Renderer) RenderScan(scan *domain.PageScan) error {
	if r.json {
		return r.writeJSON(scan)
	}

	if scan.IsPDFPage {
		_, err := fmt.Fprintf(r.out, "%s is a PDF document\n", scan.PageURL)
		return err
	}

	r.renderTable(scan.PageURL, scan.Candidates)
	if scan.DeepScan != nil {
		r.renderDeep(scan.DeepScan)
	}
	return nil
}

// RenderUpdate writes the candidate list produced by a re-scan.
func (r *Renderer) RenderUpdate(pageURL string, candidates []*domain.Candidate) error {
	if r.json {
		return r.writeJSON(map[string]any{"page_url": pageURL, "pdfs": candidates})
	}
	r.renderTable(pageURL+" (updated)", candidates)
	return nil
}

func (r *Renderer) renderTable(title string, candidates []*domain.Candidate) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)

	header := table.Row{"#", "Action", "Name", "Filename", "Languages", "Source", "URL"}
	if r.classify {
		header = append(header, "Decision")
	}
	t.AppendHeader(header)

	var decisions []classifier.Decision
	if r.classify {
		decisions = classifier.Filter(candidates, nil).Decisions
	}

	for i, c := range candidates {
		source := c.SourcePage
		if source == "" {
			source = "Page"
		}
		row := table.Row{i + 1, c.Action, c.Text, c.Filename, c.LanguageCount, source, c.URL}
		if r.classify {
			row = append(row, decisions[i])
		}
		t.AppendRow(row)
	}

	t.AppendFooter(table.Row{"", "Total", len(candidates)})
	t.Render()
}

func (r *Renderer) renderDeep(deep *domain.DeepScan) {
	if deep.NoPagination {
		fmt.Fprintln(r.out, "No pagination found")
		return
	}

	fmt.Fprintf(r.out, "Deep scan: %d of %d neighbour pages fetched\n", deep.PagesFetched, deep.PagesFound)
	for _, page := range deep.FailedPages {
		fmt.Fprintf(r.out, "  failed: %s\n", page)
	}
	if len(deep.Candidates) > 0 {
		r.renderTable("Neighbour pages", deep.Candidates)
	}
}

func (r *Renderer) writeJSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
