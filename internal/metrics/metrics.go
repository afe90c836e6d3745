// Package metrics defines the Prometheus metrics exported by the form scanner.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

const (
	// Namespace is the namespace for all form scanner metrics.
	Namespace = "form_scanner"

	subsystemScan = "scan"
	subsystemHTTP = "http"
)

// Metrics holds the scanner's Prometheus collectors.
type Metrics struct {
	ScansTotal          *prometheus.CounterVec
	ScanDuration        *prometheus.HistogramVec
	CandidatesFound     *prometheus.CounterVec
	NeighborFetches     *prometheus.CounterVec
	ClassifierDecisions *prometheus.CounterVec

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the metrics on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}
	m.initScanMetrics(factory)
	m.initHTTPMetrics(factory)
	return m
}

func (m *Metrics) initScanMetrics(factory promauto.Factory) {
	m.ScansTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemScan,
			Name:      "total",
			Help:      "Scans run, by kind (page, deep, mutation)",
		},
		[]string{"kind"},
	)

	m.ScanDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemScan,
			Name:      "duration_seconds",
			Help:      "Scan duration including validation probes",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"kind"},
	)

	m.CandidatesFound = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemScan,
			Name:      "candidates_total",
			Help:      "Candidates found, by resolved action",
		},
		[]string{"action"},
	)

	m.NeighborFetches = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemScan,
			Name:      "neighbor_fetches_total",
			Help:      "Neighbour page fetches during deep scans, by result",
		},
		[]string{"result"},
	)

	m.ClassifierDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemScan,
			Name:      "classifier_decisions_total",
			Help:      "Batch classifier decisions, by decision",
		},
		[]string{"decision"},
	)
}

func (m *Metrics) initHTTPMetrics(factory promauto.Factory) {
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: subsystemHTTP,
			Name:      "requests_total",
			Help:      "HTTP requests, by route and status",
		},
		[]string{"method", "route", "status"},
	)

	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: subsystemHTTP,
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

// ObserveScan records one completed scan and its candidates.
func (m *Metrics) ObserveScan(kind string, elapsed time.Duration, candidates []*domain.Candidate) {
	m.ScansTotal.WithLabelValues(kind).Inc()
	m.ScanDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	for _, c := range candidates {
		m.CandidatesFound.WithLabelValues(string(c.Action)).Inc()
	}
}

// RecordNeighborFetch counts a deep scan fetch.
func (m *Metrics) RecordNeighborFetch(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.NeighborFetches.WithLabelValues(result).Inc()
}

// RecordDecisions counts batch classifier outcomes.
func (m *Metrics) RecordDecisions(kept, removed, unchanged int) {
	m.ClassifierDecisions.WithLabelValues("keep").Add(float64(kept))
	m.ClassifierDecisions.WithLabelValues("deselect").Add(float64(removed))
	m.ClassifierDecisions.WithLabelValues("unchanged").Add(float64(unchanged))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
