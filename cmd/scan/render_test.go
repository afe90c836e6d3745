package scan_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/cmd/scan"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

func sampleScan() *domain.PageScan {
	return &domain.PageScan{
		ID:      "scan-1",
		PageURL: "https://bank.test/forms/",
		Candidates: []*domain.Candidate{
			{URL: "https://bank.test/docs/close.pdf", Filename: "close.pdf", Text: "Close Personal Accounts", LanguageCount: 2, Action: domain.ActionAnalyze},
			{URL: "https://bank.test/docs/booklet.pdf", Filename: "booklet.pdf", Text: "Account Agreements Booklet", LanguageCount: 1, Action: domain.ActionAnalyze},
		},
		DeepScan: &domain.DeepScan{
			PagesFound:   2,
			PagesFetched: 1,
			FailedPages:  []string{"https://bank.test/forms/?page=3"},
			Candidates: []*domain.Candidate{
				{URL: "https://bank.test/docs/loan.pdf", Filename: "loan.pdf", Text: "Loan Application", SourcePage: domain.SourceNeighbor},
			},
		},
	}
}

func TestRenderScan_Table(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, scan.NewRenderer(&buf, false, true).RenderScan(sampleScan()))

	out := buf.String()
	assert.Contains(t, out, "Close Personal Accounts")
	assert.Contains(t, out, "keep")
	assert.Contains(t, out, "deselect")
	assert.Contains(t, out, "1 of 2 neighbour pages fetched")
	assert.Contains(t, out, "failed: https://bank.test/forms/?page=3")
	assert.Contains(t, out, "Neighbor")
}

func TestRenderScan_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, scan.NewRenderer(&buf, true, false).RenderScan(sampleScan()))

	var got domain.PageScan
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Len(t, got.Candidates, 2)
	assert.Equal(t, 1, got.DeepScan.PagesFetched)
}

func TestRenderScan_PDFPage(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := scan.NewRenderer(&buf, false, false).RenderScan(&domain.PageScan{PageURL: "https://bank.test/a.pdf", IsPDFPage: true})
	require.NoError(t, err)
	assert.Equal(t, "https://bank.test/a.pdf is a PDF document\n", buf.String())
}

func TestRenderUpdate(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, scan.NewRenderer(&buf, false, false).RenderUpdate("https://bank.test/forms/", sampleScan().Candidates))
	assert.Contains(t, buf.String(), "(updated)")
}
