// Package classify implements the classify command.
package classify

import (
	"encoding/json"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/classifier"
)

// Result is the classification of one text.
type Result struct {
	Text  string `json:"text"`
	Score int    `json:"score"`
	Keep  bool   `json:"keep"`
}

// Command returns the classify command.
func Command() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Score link texts as actionable forms or informational documents",
		Long: `Classify scores each argument with the form classifier. Positive scores
are actionable, negative scores informational. A score of zero is kept.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Render(cmd.OutOrStdout(), Classify(args), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

// Classify scores each text.
func Classify(texts []string) []Result {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		score := classifier.Score(text)
		results = append(results, Result{Text: text, Score: score, Keep: classifier.Keeps(score)})
	}
	return results
}

// Render writes results to out as a table or JSON.
func Render(out io.Writer, results []Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Text", "Score", "Decision"})
	for _, r := range results {
		decision := classifier.Deselect
		if r.Keep {
			decision = classifier.Keep
		}
		t.AppendRow(table.Row{r.Text, r.Score, decision})
	}
	t.Render()
	return nil
}
