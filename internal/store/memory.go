package store

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/form-scanner/internal/domain"
)

type memoryEntry struct {
	scan      *domain.PageScan
	expiresAt time.Time
}

// Memory is an in-process Store. Expired entries are dropped on read.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates a Memory store. A zero ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, scan *domain.PageScan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[scan.PageURL] = memoryEntry{scan: clone(scan), expiresAt: m.now().Add(m.ttl)}
	return nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, pageURL string) (*domain.PageScan, error) {
	m.mu.RLock()
	entry, ok := m.entries[pageURL]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !m.now().Before(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, pageURL)
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	return clone(entry.scan), nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, pageURL string) error {
	m.mu.Lock()
	delete(m.entries, pageURL)
	m.mu.Unlock()
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// clone copies scan so callers cannot mutate stored candidates.
func clone(scan *domain.PageScan) *domain.PageScan {
	cp := *scan
	cp.Candidates = cloneCandidates(scan.Candidates)
	if scan.DeepScan != nil {
		ds := *scan.DeepScan
		ds.Candidates = cloneCandidates(scan.DeepScan.Candidates)
		ds.FailedPages = append([]string(nil), scan.DeepScan.FailedPages...)
		cp.DeepScan = &ds
	}
	return &cp
}

func cloneCandidates(cs []*domain.Candidate) []*domain.Candidate {
	if cs == nil {
		return nil
	}
	out := make([]*domain.Candidate, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}
	return out
}
