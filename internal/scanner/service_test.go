package scanner_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/fetcher"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/scanner"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/session"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/store"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/validator"
)

const formsPage = `<html><body>
<a href="/docs/w9.pdf">W-9</a>
<a href="/getform?id=7">Membership Application</a>
<a href="/library/?page=2">2</a>
</body></html>`

const neighbourPage = `<html><body><a href="/docs/loan-application.pdf">Loan Application</a></body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/library/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("page") == "2" {
			_, _ = w.Write([]byte(neighbourPage))
			return
		}
		_, _ = w.Write([]byte(formsPage))
	})
	mux.HandleFunc("/getform", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	})
	mux.HandleFunc("/docs/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
	})
	mux.HandleFunc("/view", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, st store.Store) *scanner.Service {
	t.Helper()

	loader := fetcher.New(fetcher.Config{AllowPrivateHosts: true}, nil)
	prober := validator.NewHTTPProber(nil, 0, "")
	return scanner.NewService(loader, prober, session.Config{NeighborRPS: 100}, nil, scanner.WithStore(st))
}

func TestScanURL_ScansAndStores(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	st := store.NewMemory(0)
	svc := newService(t, st)
	pageURL := srv.URL + "/library/"

	scan, err := svc.ScanURL(context.Background(), pageURL, false)
	require.NoError(t, err)

	assert.False(t, scan.IsPDFPage)
	assert.Nil(t, scan.DeepScan)
	require.Len(t, scan.Candidates, 2)
	assert.Equal(t, srv.URL+"/docs/w9.pdf", scan.Candidates[0].URL)
	assert.Equal(t, domain.ActionAnalyze, scan.Candidates[1].Action)
	assert.False(t, scan.Candidates[1].IsImplicit)

	stored, err := svc.Lookup(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, scan.ID, stored.ID)

	require.NoError(t, svc.Forget(context.Background(), pageURL))
	_, err = svc.Lookup(context.Background(), pageURL)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestScanURL_Deep(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	svc := newService(t, store.NewMemory(0))

	scan, err := svc.ScanURL(context.Background(), srv.URL+"/library/", true)
	require.NoError(t, err)
	require.NotNil(t, scan.DeepScan)

	assert.Equal(t, 1, scan.DeepScan.PagesFound)
	assert.Equal(t, 1, scan.DeepScan.PagesFetched)
	require.Len(t, scan.DeepScan.Candidates, 1)
	assert.Equal(t, domain.SourceNeighbor, scan.DeepScan.Candidates[0].SourcePage)
	assert.Equal(t, srv.URL+"/docs/loan-application.pdf", scan.DeepScan.Candidates[0].URL)
}

func TestScanURL_FollowsRedirectToAnotherOrigin(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	moved := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/library/", http.StatusMovedPermanently)
	}))
	t.Cleanup(moved.Close)

	st := store.NewMemory(0)
	svc := newService(t, st)
	pageURL := moved.URL + "/forms"

	scan, err := svc.ScanURL(context.Background(), pageURL, true)
	require.NoError(t, err)

	assert.Equal(t, pageURL, scan.PageURL)
	assert.Equal(t, srv.URL+"/library/", scan.FinalURL)
	require.Len(t, scan.Candidates, 2)
	assert.Equal(t, srv.URL+"/docs/w9.pdf", scan.Candidates[0].URL)

	require.NotNil(t, scan.DeepScan)
	assert.Equal(t, 1, scan.DeepScan.PagesFetched)
	assert.Empty(t, scan.DeepScan.FailedPages)
	require.Len(t, scan.DeepScan.Candidates, 1)
	assert.Equal(t, srv.URL+"/docs/loan-application.pdf", scan.DeepScan.Candidates[0].URL)

	stored, err := svc.Lookup(context.Background(), pageURL)
	require.NoError(t, err)
	assert.Equal(t, scan.ID, stored.ID)
}

func TestScanURL_PDFPages(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	svc := newService(t, store.NewMemory(0))

	byURL, err := svc.ScanURL(context.Background(), srv.URL+"/docs/form.pdf", false)
	require.NoError(t, err)
	assert.True(t, byURL.IsPDFPage)
	assert.Empty(t, byURL.Candidates)

	byType, err := svc.ScanURL(context.Background(), srv.URL+"/view", false)
	require.NoError(t, err)
	assert.True(t, byType.IsPDFPage)
}

func TestScanURL_Errors(t *testing.T) {
	t.Parallel()

	srv := newSite(t)
	svc := newService(t, nil)

	_, err := svc.ScanURL(context.Background(), "ftp://example.com/forms", false)
	require.ErrorIs(t, err, scanner.ErrInvalidURL)

	_, err = svc.ScanURL(context.Background(), "/forms/", false)
	require.ErrorIs(t, err, scanner.ErrInvalidURL)

	_, err = svc.ScanURL(context.Background(), srv.URL+"/missing", false)
	require.ErrorIs(t, err, scanner.ErrFetch)
}

func TestLookup_WithoutStore(t *testing.T) {
	t.Parallel()

	svc := newService(t, nil)

	_, err := svc.Lookup(context.Background(), "https://example.com/")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, svc.Forget(context.Background(), "https://example.com/"))
}
