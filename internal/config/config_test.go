package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sym2arb/internal/models"
)

func validStrategyYAML() string {
	return `
data_root: /data/sym2arb
strategy:
  sym1: SPY
  sym2: SPX
  qty_ratio: 10
  strike_step_sym2: 5
  strategy_type: full
  call_direction: sellSym2_buySym1
  put_direction: sellSym1_buySym2
broker:
  provider: tradier
  api_key: test-key
  account_id: test-account
  sandbox: true
storage:
  driver: json
  path: scans.json
dashboard:
  enabled: true
  port: 9847
log_level: info
`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeTempConfig(t, validStrategyYAML())
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "SPY", cfg.Strategy.Sym1)
	require.Equal(t, "SPX", cfg.Strategy.Sym2)
	require.Equal(t, 10, cfg.Strategy.QtyRatio)
	require.Equal(t, models.StrategyFull, cfg.Strategy.StrategyType)
	require.Equal(t, "json", cfg.Storage.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
}

func TestLoad_UnknownField(t *testing.T) {
	path := writeTempConfig(t, validStrategyYAML()+"\nbogus_field: true\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidStrategyType(t *testing.T) {
	bad := `
data_root: /data/sym2arb
strategy:
  sym1: SPY
  sym2: SPX
  qty_ratio: 10
  strike_step_sym2: 5
  strategy_type: bogus
  call_direction: sellSym2_buySym1
  put_direction: sellSym1_buySym2
`
	path := writeTempConfig(t, bad)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SYM2ARB_API_KEY", "expanded-key")
	content := `
data_root: /data/sym2arb
strategy:
  sym1: SPY
  sym2: SPX
  qty_ratio: 10
  strike_step_sym2: 5
  strategy_type: calls_only
  call_direction: sellSym2_buySym1
  put_direction: sellSym1_buySym2
broker:
  provider: tradier
  api_key: ${SYM2ARB_API_KEY}
  account_id: test-account
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "expanded-key", cfg.Broker.APIKey)
}

func TestNormalize_Defaults(t *testing.T) {
	content := `
data_root: /data/sym2arb
strategy:
  sym1: SPY
  sym2: XSP
  qty_ratio: 1
  strike_step_sym2: 1
  strategy_type: puts_only
  call_direction: sellSym2_buySym1
  put_direction: sellSym1_buySym2
`
	path := writeTempConfig(t, content)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.Storage.Driver)
	require.Equal(t, "scans.json", cfg.Storage.Path)
	require.Equal(t, 9847, cfg.Dashboard.Port)
}

func TestConstantsTable_MatchesSpec(t *testing.T) {
	table := ConstantsTable()
	want := map[string]float64{
		"QTY_RATIO_SPX":            10,
		"QTY_RATIO_DEFAULT":        1,
		"STRIKE_STEP_SPX":          5,
		"STRIKE_STEP_DEFAULT":      1,
		"MONEYNESS_WARN_THRESHOLD": 0.05,
		"SCANNER_PAIR_TOLERANCE":   0.005,
		"WIDE_SPREAD_THRESHOLD":    20,
		"MARGIN_RATE":              0.20,
		"GRID_PRICE_POINTS":        50,
		"GRID_PRICE_RANGE_PCT":     0.05,
		"DEFAULT_MIN_VOLUME":       10,
	}
	require.Equal(t, want, table)
	require.Len(t, GridBasisDriftLevels, 3)
}
