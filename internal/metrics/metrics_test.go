package metrics_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
	"github.com/jonesrussell/north-cloud/form-scanner/internal/metrics"
)

func TestObserveScan(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.ObserveScan("page", 20*time.Millisecond, []*domain.Candidate{
		{Action: domain.ActionAnalyze},
		{Action: domain.ActionAnalyze},
		{Action: domain.ActionPeek},
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.ScansTotal.WithLabelValues("page")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.CandidatesFound.WithLabelValues("analyze")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CandidatesFound.WithLabelValues("peek")), 0)
}

func TestRecordNeighborFetch(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.RecordNeighborFetch(true)
	m.RecordNeighborFetch(false)
	m.RecordNeighborFetch(false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.NeighborFetches.WithLabelValues("success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.NeighborFetches.WithLabelValues("failure")), 0)
}

func TestRecordDecisionsAndRequests(t *testing.T) {
	t.Parallel()

	m := metrics.New(prometheus.NewRegistry())
	m.RecordDecisions(3, 1, 2)
	m.ObserveRequest(http.MethodPost, "/api/v1/scan", http.StatusOK, time.Millisecond)

	assert.InDelta(t, 3, testutil.ToFloat64(m.ClassifierDecisions.WithLabelValues("keep")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ClassifierDecisions.WithLabelValues("unchanged")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/api/v1/scan", "200")), 0)
}
