package deepscan_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/deepscan"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/document"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/extractor"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/fetcher"
)

const primaryURL = "https://bank.test/forms/"

// fakeFetcher serves canned pages and records requested URLs.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]fetcher.Response
	requests []string
}

func (f *fakeFetcher) Fetch(_ context.Context, origin, target string) fetcher.Response {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, target)
	if origin != primaryURL {
		return fetcher.Response{Error: "unexpected origin " + origin}
	}
	if resp, ok := f.pages[target]; ok {
		return resp
	}
	return fetcher.Response{Error: "not found"}
}

// recorder counts fetch outcomes.
type recorder struct {
	ok, failed int
}

func (r *recorder) RecordNeighborFetch(success bool) {
	if success {
		r.ok++
		return
	}
	r.failed++
}

func parse(t *testing.T, body string) *document.Document {
	t.Helper()

	doc, err := document.ParseString(body, primaryURL)
	require.NoError(t, err)
	return doc
}

func page(body string) fetcher.Response {
	return fetcher.Response{Success: true, HTML: body}
}

func TestFindPaginationLinks(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
		<a href="/about">About</a>
		<a rel="next" href="?page=2">More</a>
		<a href="?page=2">2</a>
		<a href="/list/older"> Previous </a>
		<a href="/archive/3">3</a>
		<a href="?page=4">&gt;</a>`)

	links := deepscan.FindPaginationLinks(doc, 5)

	assert.Equal(t, []string{
		"https://bank.test/forms/?page=2",
		"https://bank.test/list/older",
		"https://bank.test/forms/?page=4",
	}, links)
}

func TestFindPaginationLinks_CapsAtLimit(t *testing.T) {
	t.Parallel()

	doc := parse(t, `
		<a href="?page=1">1</a><a href="?page=2">2</a><a href="?page=3">3</a>
		<a href="?page=4">4</a><a href="?page=5">5</a>`)

	links := deepscan.FindPaginationLinks(doc, 0)

	require.Len(t, links, deepscan.DefaultMaxPages)
	assert.Equal(t, "https://bank.test/forms/?page=1", links[0])
	assert.Equal(t, "https://bank.test/forms/?page=3", links[2])
}

func TestScan_FetchesFirstThreeNeighbours(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]fetcher.Response{
		"https://bank.test/forms/?page=1": page(`<a href="/docs/wire-request.pdf">Wire Request</a>`),
		"https://bank.test/forms/?page=2": page(`<a href="/docs/loan-application.pdf">Loan Application</a>`),
		"https://bank.test/forms/?page=3": page(`<a href="/docs/stop-payment.pdf">Stop Payment</a>`),
		"https://bank.test/forms/?page=4": page(`<a href="/docs/never.pdf">Never</a>`),
	}}
	rec := &recorder{}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{}, deepscan.WithRecorder(rec))

	doc := parse(t, `
		<a href="?page=1">1</a><a href="?page=2">2</a><a href="?page=3">3</a>
		<a href="?page=4">4</a><a href="?page=5">5</a>`)

	res := o.Scan(context.Background(), primaryURL, doc)

	assert.Len(t, f.requests, 3)
	assert.False(t, res.NoPagination)
	assert.Equal(t, 3, res.PagesFound)
	assert.Equal(t, 3, res.PagesFetched)
	assert.Equal(t, 3, rec.ok)
	require.Len(t, res.Candidates, 3)

	for _, c := range res.Candidates {
		assert.Equal(t, domain.SourceNeighbor, c.SourcePage)
		assert.Equal(t, domain.BadgeDeepScan, c.Badge)
	}
	assert.Equal(t, "https://bank.test/docs/wire-request.pdf", res.Candidates[0].URL)
	assert.Equal(t, "https://bank.test/docs/stop-payment.pdf", res.Candidates[2].URL)
}

func TestScan_FailedNeighbourDoesNotAbort(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]fetcher.Response{
		"https://bank.test/forms/?page=2": {Error: "Response too large"},
		"https://bank.test/forms/?page=3": page(`<a href="rel/form.pdf">Membership Form</a>`),
	}}
	rec := &recorder{}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{MaxPages: 3}, deepscan.WithRecorder(rec))

	doc := parse(t, `<a rel="next" href="?page=2">Next</a><a href="?page=3">3</a>`)
	res := o.Scan(context.Background(), primaryURL, doc)

	assert.Equal(t, 2, res.PagesFound)
	assert.Equal(t, 1, res.PagesFetched)
	assert.Equal(t, []string{"https://bank.test/forms/?page=2"}, res.FailedPages)
	assert.Equal(t, 1, rec.failed)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "https://bank.test/forms/rel/form.pdf", res.Candidates[0].URL)
}

func TestScan_UsesFinalURLAsBase(t *testing.T) {
	t.Parallel()

	resp := page(`<a href="form.pdf">Form</a>`)
	resp.FinalURL = "https://bank.test/library/page-2/"
	f := &fakeFetcher{pages: map[string]fetcher.Response{"https://bank.test/forms/?page=2": resp}}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{})

	res := o.Scan(context.Background(), primaryURL, parse(t, `<a href="?page=2">Next</a>`))

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "https://bank.test/library/page-2/form.pdf", res.Candidates[0].URL)
}

func TestScan_NoPagination(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{RPS: 1})

	res := o.Scan(context.Background(), primaryURL, parse(t, `<a href="/about">About</a>`))

	assert.True(t, res.NoPagination)
	assert.Zero(t, res.PagesFound)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, f.requests)
}

func TestScan_CancelledContextSkipsFetches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{RPS: 0.001})

	res := o.Scan(ctx, primaryURL, parse(t, `<a href="?page=2">2</a><a href="?page=3">3</a>`))

	assert.Empty(t, f.requests)
	assert.Len(t, res.FailedPages, 2)
	assert.Zero(t, res.PagesFetched)
}

// stubValidator marks every candidate as navigable.
type stubValidator struct{}

func (stubValidator) Validate(_ context.Context, cs []*domain.Candidate) {
	for _, c := range cs {
		c.Action = domain.ActionNavigate
		c.Badge = domain.BadgeWarning
	}
}

func TestScan_ValidatesThenTags(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]fetcher.Response{
		"https://bank.test/forms/?page=2": page(`<a href="/apply/online-application">Apply</a>`),
	}}
	o := deepscan.New(f, extractor.New(nil), deepscan.Config{}, deepscan.WithValidator(stubValidator{}))

	res := o.Scan(context.Background(), primaryURL, parse(t, `<a href="?page=2">next</a>`))

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, domain.ActionNavigate, res.Candidates[0].Action)
	assert.Equal(t, domain.BadgeDeepScan, res.Candidates[0].Badge)
}
