package storage

import (
	"sync"

	"github.com/google/uuid"

	"sym2arb/internal/models"
)

// MockStore is an in-memory Store test double.
type MockStore struct {
	mu         sync.RWMutex
	SaveErr    error
	records    []ScanRecord
	statistics ScanStatistics
}

// NewMockStore returns an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{}
}

// SaveScan records results in memory, honoring a pre-set SaveErr.
func (m *MockStore) SaveScan(runID uuid.UUID, date string, cfg models.StrategyConfig, results []models.ScanResult) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		m.records = append(m.records, ScanRecord{RunID: runID, Date: date, Config: cfg, Result: r})
	}
	m.statistics.TotalResults += len(results)
	if len(results) > 0 {
		m.statistics.TotalScans++
	}
	return nil
}

// GetScansByDate returns the in-memory records matching date.
func (m *MockStore) GetScansByDate(date string) []ScanRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ScanRecord
	for _, r := range m.records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

// GetStatistics returns the in-memory aggregate.
func (m *MockStore) GetStatistics() ScanStatistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statistics
}

// Save is a no-op for the mock.
func (m *MockStore) Save() error { return nil }

// Load is a no-op for the mock.
func (m *MockStore) Load() error { return nil }

var _ Store = (*MockStore)(nil)
