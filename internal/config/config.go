// Package config is the single source of the numeric constants and
// process-scope settings the analytical core and its surrounding
// services read at startup. Nothing here mutates after Load returns.
package config

import (
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	yaml "gopkg.in/yaml.v3"

	"sym2arb/internal/models"
)

// Numeric constants governing pricing, position, and scanner behavior.
// These never change at runtime; ConstantsTable exposes them by name
// so a sync test can assert the code and the documentation never
// drift apart.
const (
	MoneynessWarnThreshold = 0.05  // percent; UI warning only
	ScannerPairTolerance   = 0.005 // fraction; scanner pair-matching admissibility
	WideSpreadThreshold    = 20.0  // percent
	MarginRate             = 0.20
	GridPricePoints        = 50
	GridPriceRangePct      = 0.05
	DefaultMinVolume       = 10
)

// GridBasisDriftLevels are the fractional basis-drift scenarios swept
// by internal/pnl.BestWorstCase. Three levels x 50 price points = 150
// scenarios.
var GridBasisDriftLevels = []float64{-0.001, 0.0, 0.001}

// ConstantsTable returns every named numeric constant keyed by its
// documented identifier, for a sync test to assert against.
func ConstantsTable() map[string]float64 {
	return map[string]float64{
		"QTY_RATIO_SPX":            models.QtyRatioSPX,
		"QTY_RATIO_DEFAULT":        models.QtyRatioDefault,
		"STRIKE_STEP_SPX":          models.StrikeStepSPX,
		"STRIKE_STEP_DEFAULT":      models.StrikeStepDefault,
		"MONEYNESS_WARN_THRESHOLD": MoneynessWarnThreshold,
		"SCANNER_PAIR_TOLERANCE":   ScannerPairTolerance,
		"WIDE_SPREAD_THRESHOLD":    WideSpreadThreshold,
		"MARGIN_RATE":              MarginRate,
		"GRID_PRICE_POINTS":        GridPricePoints,
		"GRID_PRICE_RANGE_PCT":     GridPriceRangePct,
		"DEFAULT_MIN_VOLUME":       DefaultMinVolume,
	}
}

// RuntimeConfig is the process-scope configuration for a scanner or
// paper/live-execution run: where market data lives, which pair to
// analyze, broker credentials, and the dashboard surface. It is loaded
// once at startup and never mutated afterward.
type RuntimeConfig struct {
	DataRoot  string                `yaml:"data_root" validate:"required"`
	Strategy  models.StrategyConfig `yaml:"strategy" validate:"required"`
	Broker    BrokerConfig          `yaml:"broker"`
	Storage   StorageConfig         `yaml:"storage"`
	Dashboard DashboardConfig       `yaml:"dashboard"`
	LogLevel  string                `yaml:"log_level"`
}

// BrokerConfig carries the settings the BrokerAdapter implementer needs
// to reach a concrete broker; the analytical core never inspects these
// beyond passing them through at construction.
type BrokerConfig struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	AccountID string `yaml:"account_id"`
	Sandbox   bool   `yaml:"sandbox"`
}

// StorageConfig selects and configures the scan/position persistence
// backend.
type StorageConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=json sqlite"` // "json" (default) or "sqlite"
	Path   string `yaml:"path"`
}

// DashboardConfig configures the optional HTTP surface exposing scan
// history and Prometheus metrics.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port" validate:"omitempty,min=1,max=65535"`
}

var validate = validator.New()

// Load reads, expands, decodes, defaults, and validates a RuntimeConfig
// from a YAML file at path. Environment variables of the form $VAR or
// ${VAR} are expanded before parsing.
func Load(path string) (*RuntimeConfig, error) {
	if path == "" {
		path = "config.yaml"
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied config file
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg RuntimeConfig
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	cfg.normalize()

	if err := cfg.Strategy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// normalize fills in zero-value fields with a sane production default
// rather than failing validation outright.
func (c *RuntimeConfig) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = "info"
	}
	if strings.TrimSpace(c.Storage.Driver) == "" {
		c.Storage.Driver = "json"
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		if c.Storage.Driver == "sqlite" {
			c.Storage.Path = "scans.db"
		} else {
			c.Storage.Path = "scans.json"
		}
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 9847
	}
}
