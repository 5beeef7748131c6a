package storage

import (
	"github.com/google/uuid"

	"sym2arb/internal/models"
)

// Store is the persistence contract scan runners and the dashboard
// consume: append a scan run's results, and read them back by date
// or as aggregate statistics.
type Store interface {
	SaveScan(runID uuid.UUID, date string, cfg models.StrategyConfig, results []models.ScanResult) error
	GetScansByDate(date string) []ScanRecord
	GetStatistics() ScanStatistics
	Save() error
	Load() error
}

// Driver names the storage backend selected in configuration.
type Driver string

// Valid Driver values.
const (
	DriverJSON   Driver = "json"
	DriverSQLite Driver = "sqlite"
)

// New constructs a Store for the given driver and path. JSON is the
// teacher's own default; sqlite is opt-in.
func New(driver Driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLiteStore(path)
	case DriverJSON, "":
		return NewJSONStorage(path)
	default:
		return nil, errUnknownDriver(driver)
	}
}

func errUnknownDriver(d Driver) error {
	return &unknownDriverError{driver: d}
}

type unknownDriverError struct{ driver Driver }

func (e *unknownDriverError) Error() string {
	return "storage: unknown driver " + string(e.driver)
}

var _ Store = (*JSONStorage)(nil)
var _ Store = (*SQLiteStore)(nil)
