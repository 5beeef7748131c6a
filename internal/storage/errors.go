package storage

import "errors"

// ErrNoScansForDate names the condition of a date with no persisted
// ScanRecords. No Store method returns it: GetScansByDate reports that
// case as an empty slice.
var ErrNoScansForDate = errors.New("no scans found for date")
