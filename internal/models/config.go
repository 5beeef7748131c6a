package models

import "fmt"

// Symbol-class constants governing StrategyConfig derivation.
const (
	QtyRatioSPX       = 10
	QtyRatioDefault   = 1
	StrikeStepSPX     = 5.0
	StrikeStepDefault = 1.0
)

// StrategyType selects which leg pairs a Position carries.
type StrategyType string

// Valid StrategyType values.
const (
	StrategyFull      StrategyType = "full"
	StrategyCallsOnly StrategyType = "calls_only"
	StrategyPutsOnly  StrategyType = "puts_only"
)

// Direction selects which symbol is sold and which is bought within a
// spread (call spread or put spread).
type Direction string

// Valid Direction values.
const (
	DirSellSym2BuySym1 Direction = "sellSym2_buySym1"
	DirSellSym1BuySym2 Direction = "sellSym1_buySym2"
)

// StrategyConfig is immutable for the life of an analysis.
type StrategyConfig struct {
	Sym1           string       `yaml:"sym1" validate:"required"`
	Sym2           string       `yaml:"sym2" validate:"required"`
	QtyRatio       int          `yaml:"qty_ratio" validate:"required,gt=0"`
	StrikeStepSym2 float64      `yaml:"strike_step_sym2" validate:"required,gt=0"`
	StrategyType   StrategyType `yaml:"strategy_type" validate:"required,oneof=full calls_only puts_only"`
	CallDirection  Direction    `yaml:"call_direction" validate:"required,oneof=sellSym2_buySym1 sellSym1_buySym2"`
	PutDirection   Direction    `yaml:"put_direction" validate:"required,oneof=sellSym1_buySym2 sellSym2_buySym1"`
}

// NewStrategyConfig constructs a StrategyConfig, deriving QtyRatio and
// StrikeStepSym2 from whether sym2 is the SPX-class $5-stride symbol,
// and validates every invariant. Construction failures return
// ErrInvalidArgument.
func NewStrategyConfig(sym1, sym2 string, sym2IsSPXClass bool, strategyType StrategyType, callDir, putDir Direction) (StrategyConfig, error) {
	cfg := StrategyConfig{
		Sym1:          sym1,
		Sym2:          sym2,
		StrategyType:  strategyType,
		CallDirection: callDir,
		PutDirection:  putDir,
	}
	if sym2IsSPXClass {
		cfg.QtyRatio = QtyRatioSPX
		cfg.StrikeStepSym2 = StrikeStepSPX
	} else {
		cfg.QtyRatio = QtyRatioDefault
		cfg.StrikeStepSym2 = StrikeStepDefault
	}
	if err := cfg.Validate(); err != nil {
		return StrategyConfig{}, err
	}
	return cfg, nil
}

// Validate checks the invariants.
func (c StrategyConfig) Validate() error {
	if c.Sym1 == "" || c.Sym2 == "" {
		return fmt.Errorf("%w: sym1 and sym2 are required", ErrInvalidArgument)
	}
	if c.QtyRatio <= 0 {
		return fmt.Errorf("%w: qty_ratio must be positive, got %d", ErrInvalidArgument, c.QtyRatio)
	}
	if c.StrikeStepSym2 <= 0 {
		return fmt.Errorf("%w: strike_step_sym2 must be positive, got %g", ErrInvalidArgument, c.StrikeStepSym2)
	}
	switch c.StrategyType {
	case StrategyFull, StrategyCallsOnly, StrategyPutsOnly:
	default:
		return fmt.Errorf("%w: unknown strategy_type %q", ErrInvalidArgument, c.StrategyType)
	}
	switch c.CallDirection {
	case DirSellSym2BuySym1, DirSellSym1BuySym2:
	default:
		return fmt.Errorf("%w: unknown call_direction %q", ErrInvalidArgument, c.CallDirection)
	}
	switch c.PutDirection {
	case DirSellSym1BuySym2, DirSellSym2BuySym1:
	default:
		return fmt.Errorf("%w: unknown put_direction %q", ErrInvalidArgument, c.PutDirection)
	}
	return nil
}
