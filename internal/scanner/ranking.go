package scanner

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"

	"sym2arb/internal/models"
)

// rankingFunctions exposes the handful of math helpers a ranking
// expression is likely to need; govaluate has no builtin abs/min/max.
var rankingFunctions = map[string]govaluate.ExpressionFunction{
	"abs": func(args ...interface{}) (interface{}, error) {
		return math.Abs(args[0].(float64)), nil
	},
	"min": func(args ...interface{}) (interface{}, error) {
		return math.Min(args[0].(float64), args[1].(float64)), nil
	},
	"max": func(args ...interface{}) (interface{}, error) {
		return math.Max(args[0].(float64), args[1].(float64)), nil
	},
}

// CustomRank applies an operator-supplied govaluate expression to every
// result and returns them ordered descending by the expression's value,
// tie-breaking the same way as the three mandated orderings. This view
// is additive: it never replaces BySafety/ByProfit/ByRiskReward.
//
// The expression may reference: credit, worst, risk_reward,
// moneyness_diff_pct, sym1_volume, sym2_volume, and call abs/min/max.
func CustomRank(results []models.ScanResult, expr string) ([]models.ScanResult, error) {
	exp, err := govaluate.NewEvaluableExpressionWithFunctions(expr, rankingFunctions)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ranking expression: %v", models.ErrInvalidArgument, err)
	}

	type scored struct {
		result models.ScanResult
		score  float64
	}
	scoredResults := make([]scored, 0, len(results))
	for _, r := range results {
		params := map[string]interface{}{
			"credit":             r.CreditAtMax,
			"worst":              r.BestWorstPnL,
			"risk_reward":        r.RiskReward(),
			"moneyness_diff_pct": r.MoneynessDiffPct,
			"sym1_volume":        float64(r.Sym1Volume),
			"sym2_volume":        float64(r.Sym2Volume),
		}
		val, err := exp.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("%w: ranking expression evaluation failed: %v", models.ErrInvalidArgument, err)
		}
		score, ok := val.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: ranking expression must produce a number", models.ErrInvalidArgument)
		}
		scoredResults = append(scoredResults, scored{result: r, score: score})
	}

	sort.SliceStable(scoredResults, func(i, j int) bool {
		return rankLess(scoredResults[i].score, scoredResults[j].score, scoredResults[i].result, scoredResults[j].result)
	})

	out := make([]models.ScanResult, len(scoredResults))
	for i, s := range scoredResults {
		out[i] = s.result
	}
	return out, nil
}
