package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
)

func sampleResult(credit, worst float64) models.ScanResult {
	return models.ScanResult{
		Sym1Strike:   600,
		Sym2Strike:   6000,
		CreditAtMax:  credit,
		BestWorstPnL: worst,
		Sym1Volume:   100,
		Sym2Volume:   200,
		LiquidityOK:  true,
	}
}

func TestNewJSONStorage_CreatesDirAndLoadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "scans.json")

	s, err := NewJSONStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveScan(uuid.New(), "20260101", models.StrategyConfig{}, []models.ScanResult{sampleResult(500, -200)}))

	reopened, err := NewJSONStorage(path)
	require.NoError(t, err)
	require.Len(t, reopened.GetScansByDate("20260101"), 1)
}

func TestSaveScan_IsIdempotentPerRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s, err := NewJSONStorage(path)
	require.NoError(t, err)

	runID := uuid.New()
	results := []models.ScanResult{sampleResult(500, -200), sampleResult(400, -300)}
	require.NoError(t, s.SaveScan(runID, "20260101", models.StrategyConfig{}, results))
	require.NoError(t, s.SaveScan(runID, "20260101", models.StrategyConfig{}, results))

	require.Len(t, s.GetScansByDate("20260101"), 2)
	require.Equal(t, 1, s.GetStatistics().TotalScans)
}

func TestSaveScan_UpdatesStatistics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s, err := NewJSONStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveScan(uuid.New(), "20260101", models.StrategyConfig{}, []models.ScanResult{
		sampleResult(500, -200),
		sampleResult(800, -50),
	}))

	stats := s.GetStatistics()
	require.Equal(t, 1, stats.TotalScans)
	require.Equal(t, 2, stats.TotalResults)
	require.Equal(t, 800.0, stats.BestCredit)
	require.Equal(t, 500.0, stats.WorstCredit)
	require.Equal(t, -50.0, stats.BestWorstPnL)
	require.Equal(t, -200.0, stats.WorstWorstPnL)
}

func TestGetScansByDate_FiltersByDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s, err := NewJSONStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveScan(uuid.New(), "20260101", models.StrategyConfig{}, []models.ScanResult{sampleResult(1, 1)}))
	require.NoError(t, s.SaveScan(uuid.New(), "20260102", models.StrategyConfig{}, []models.ScanResult{sampleResult(2, 2), sampleResult(3, 3)}))

	require.Len(t, s.GetScansByDate("20260101"), 1)
	require.Len(t, s.GetScansByDate("20260102"), 2)
	require.Empty(t, s.GetScansByDate("20260103"))
}

func TestSaveUnsafe_WritesIndentedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.json")
	s, err := NewJSONStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveScan(uuid.New(), "20260101", models.StrategyConfig{}, []models.ScanResult{sampleResult(1, -1)}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Data
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Records, 1)
	require.Contains(t, string(raw), "  \"run_id\"")
}

func TestValidateFilePath_RejectsEscape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scans.json")
	s, err := NewJSONStorage(path)
	require.NoError(t, err)

	require.NoError(t, s.validateFilePath(filepath.Join(dir, "ok.tmp")))
	require.Error(t, s.validateFilePath(filepath.Join(dir, "..", "escape.tmp")))
}

func TestNewJSONStorage_FailsWhenParentIsAFile(t *testing.T) {
	// A path whose parent is a file (not a directory) cannot be stat'd
	// as a directory; MkdirAll should surface that as an error.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewJSONStorage(filepath.Join(blocker, "scans.json"))
	require.Error(t, err)
}
