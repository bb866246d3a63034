package progress

import "math"

// Two overall-progress formulas coexist on purpose. The multi-path
// summary weights quizzes 60/40 over challenges; the single-path module
// screen shows a plain average. Different screens depend on each, so they
// stay as two named functions instead of one blessed rule.

// WeightedPathProgress combines category percentages for the multi-path
// summary view: quizzes weighted 60%, challenges 40%.
func WeightedPathProgress(quizPct, challengePct int) int {
	return int(math.Round(float64(quizPct)*0.6 + float64(challengePct)*0.4))
}

// AverageModuleProgress combines category percentages for single-path
// module screens: simple average.
func AverageModuleProgress(quizPct, challengePct int) int {
	return int(math.Round(float64(quizPct+challengePct) / 2))
}

// PathComplete applies the completion rule for a path: the combined
// percentage must be exactly 100 (over-attempting off-catalog items can
// push a category past 100, which does not count as complete).
func PathComplete(progress int) bool {
	return progress == 100
}
