// Package storage persists scan run history: every ranked ScanResult a
// scan produces, tagged with the run that produced it, so a dashboard
// or CLI can list and aggregate past scans.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"sym2arb/internal/models"
)

// ScanRecord wraps one ScanResult with the run metadata needed to
// reconstruct which scan produced it.
type ScanRecord struct {
	RunID      uuid.UUID            `json:"run_id"`
	Date       string               `json:"date"`
	Config     models.StrategyConfig `json:"config"`
	Result     models.ScanResult    `json:"result"`
	RecordedAt time.Time            `json:"recorded_at"`
}

// ScanStatistics aggregates every persisted ScanRecord, mirroring the
// teacher's position-history Statistics shape but over scan results.
type ScanStatistics struct {
	TotalScans    int     `json:"total_scans"`
	TotalResults  int     `json:"total_results"`
	BestCredit    float64 `json:"best_credit"`
	WorstCredit   float64 `json:"worst_credit"`
	BestWorstPnL  float64 `json:"best_worst_pnl_max"`
	WorstWorstPnL float64 `json:"best_worst_pnl_min"`
}

// Data is the complete JSON-file payload.
type Data struct {
	LastUpdated time.Time      `json:"last_updated"`
	Records     []ScanRecord   `json:"records"`
	Statistics  ScanStatistics `json:"statistics"`
	runIDs      map[uuid.UUID]bool
}

// JSONStorage implements Store using an atomically-written JSON file.
type JSONStorage struct {
	data     *Data
	filepath string
	mu       sync.RWMutex
}

// NewJSONStorage opens (or creates) a JSON-file scan store at filePath.
func NewJSONStorage(filePath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filePath,
		data:     &Data{runIDs: make(map[uuid.UUID]bool)},
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return nil, fmt.Errorf("creating parent directory: %w", err)
	}

	if _, err := os.Stat(filePath); err == nil {
		if loadErr := s.Load(); loadErr != nil {
			return nil, fmt.Errorf("loading storage: %w", loadErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat storage file: %w", err)
	}

	return s, nil
}

// Load reads the JSON file from disk, replacing in-memory state.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath) // #nosec G304 -- path is the caller's configured storage file
	if err != nil {
		return err
	}

	var loaded Data
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return err
	}
	loaded.runIDs = make(map[uuid.UUID]bool, len(loaded.Records))
	for _, r := range loaded.Records {
		loaded.runIDs[r.RunID] = true
	}
	s.data = &loaded
	return nil
}

// Save writes the current in-memory state to disk atomically.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveUnsafe()
}

// SaveScan appends every result of one scan run as a ScanRecord,
// updates the aggregate statistics, and persists to disk. runID
// de-duplicates: saving the same runID twice is a no-op for the
// second call's records (idempotent replay safety).
func (s *JSONStorage) SaveScan(runID uuid.UUID, date string, cfg models.StrategyConfig, results []models.ScanResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.runIDs[runID] {
		return nil
	}
	if s.data.runIDs == nil {
		s.data.runIDs = make(map[uuid.UUID]bool)
	}
	s.data.runIDs[runID] = true

	now := time.Now().UTC()
	for _, r := range results {
		s.data.Records = append(s.data.Records, ScanRecord{
			RunID:      runID,
			Date:       date,
			Config:     cfg,
			Result:     r,
			RecordedAt: now,
		})
	}
	s.updateStatistics(results)
	return s.saveUnsafe()
}

func (s *JSONStorage) updateStatistics(results []models.ScanResult) {
	st := &s.data.Statistics
	if len(results) > 0 {
		st.TotalScans++
	}
	for _, r := range results {
		st.TotalResults++
		if st.TotalResults == 1 {
			st.BestCredit, st.WorstCredit = r.CreditAtMax, r.CreditAtMax
			st.BestWorstPnL, st.WorstWorstPnL = r.BestWorstPnL, r.BestWorstPnL
		}
		if r.CreditAtMax > st.BestCredit {
			st.BestCredit = r.CreditAtMax
		}
		if r.CreditAtMax < st.WorstCredit {
			st.WorstCredit = r.CreditAtMax
		}
		if r.BestWorstPnL > st.BestWorstPnL {
			st.BestWorstPnL = r.BestWorstPnL
		}
		if r.BestWorstPnL < st.WorstWorstPnL {
			st.WorstWorstPnL = r.BestWorstPnL
		}
	}
}

// GetScansByDate returns every ScanRecord persisted for date, in the
// order they were recorded.
func (s *JSONStorage) GetScansByDate(date string) []ScanRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ScanRecord
	for _, r := range s.data.Records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out
}

// GetStatistics returns a copy of the current aggregate statistics.
func (s *JSONStorage) GetStatistics() ScanStatistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Statistics
}

// saveUnsafe performs the atomic write-then-rename; callers must hold s.mu.
func (s *JSONStorage) saveUnsafe() error {
	s.data.LastUpdated = time.Now().UTC()

	dir := filepath.Dir(s.filepath)
	f, err := os.CreateTemp(dir, ".storage-*")
	if err != nil {
		return err
	}
	tmpFile := f.Name()

	if err := f.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}

	defer func() {
		if f != nil {
			_ = f.Close()
		}
		if tmpFile != "" {
			_ = os.Remove(tmpFile)
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		f = nil
		return err
	}
	f = nil

	dirSynced := false
	if err := os.Rename(tmpFile, s.filepath); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			if copyErr := s.copyFile(tmpFile, s.filepath); copyErr != nil {
				return fmt.Errorf("failed to copy temp file: %w", copyErr)
			}
			dirSynced = true
		} else {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
	}
	tmpFile = ""

	if !dirSynced {
		if err := s.syncParentDir(); err != nil {
			return fmt.Errorf("failed to sync parent directory: %w", err)
		}
	}

	return nil
}

// copyFile copies src to dst and fsyncs the destination, used as the
// EXDEV fallback when the temp file and target live on different
// filesystems and cannot be renamed atomically.
func (s *JSONStorage) copyFile(src, dst string) error {
	if err := s.validateFilePath(src); err != nil {
		return fmt.Errorf("invalid source path: %w", err)
	}
	if err := s.validateFilePath(dst); err != nil {
		return fmt.Errorf("invalid destination path: %w", err)
	}

	srcFile, err := os.Open(src) // #nosec G304 -- validated above
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	dstDir := filepath.Dir(dst)
	tmpFile, err := os.CreateTemp(dstDir, ".tmp_*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFileName := tmpFile.Name()

	var tempFileClosed bool
	defer func() {
		if !tempFileClosed {
			_ = tmpFile.Close()
		}
		if tmpFileName != "" {
			_ = os.Remove(tmpFileName)
		}
	}()

	if err := tmpFile.Chmod(srcInfo.Mode()); err != nil {
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := io.Copy(tmpFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	tempFileClosed = true

	if err := os.Rename(tmpFileName, dst); err != nil {
		return fmt.Errorf("failed to rename temp file to destination: %w", err)
	}

	if err := s.validateFilePath(dstDir); err != nil {
		return fmt.Errorf("invalid destination directory path: %w", err)
	}
	// #nosec G304 -- path validated above
	if dir, err := os.Open(dstDir); err == nil {
		defer func() { _ = dir.Close() }()
		if syncErr := dir.Sync(); syncErr != nil {
			return fmt.Errorf("failed to fsync destination directory: %w", syncErr)
		}
	}
	tmpFileName = ""

	return nil
}

// validateFilePath rejects any path resolving outside the storage
// file's own directory, guarding the EXDEV fallback against symlink
// traversal.
func (s *JSONStorage) validateFilePath(path string) error {
	storageRoot := filepath.Dir(s.filepath)
	storageRootAbs, err := filepath.Abs(filepath.Clean(storageRoot))
	if err != nil {
		return fmt.Errorf("failed to resolve storage root: %w", err)
	}
	storageRootResolved, err := filepath.EvalSymlinks(storageRootAbs)
	if err != nil {
		return fmt.Errorf("failed to resolve symlinks in storage root: %w", err)
	}

	targetAbs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to resolve target path: %w", err)
	}

	var targetResolved string
	if _, statErr := os.Stat(targetAbs); statErr == nil {
		resolved, err := filepath.EvalSymlinks(targetAbs)
		if err != nil {
			return fmt.Errorf("failed to resolve symlinks in target: %w", err)
		}
		targetResolved = resolved
	} else if os.IsNotExist(statErr) {
		parentResolved, perr := filepath.EvalSymlinks(filepath.Dir(targetAbs))
		if perr != nil {
			return fmt.Errorf("failed to resolve symlinks in target parent: %w", perr)
		}
		targetResolved = filepath.Join(parentResolved, filepath.Base(targetAbs))
	} else {
		return fmt.Errorf("failed to stat target path: %w", statErr)
	}

	relPath, err := filepath.Rel(storageRootResolved, targetResolved)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("path escapes storage directory: %s (resolved to: %s)", path, targetResolved)
	}
	return nil
}

func (s *JSONStorage) syncParentDir() error {
	parentDir := filepath.Dir(s.filepath)
	dir, err := os.Open(parentDir) // #nosec G304 -- storage root, validated at construction
	if err != nil {
		return err
	}
	defer func() { _ = dir.Close() }()
	return dir.Sync()
}
