package progress

import (
	"math"
	"sort"
)

// ComputeCategoryProgress reduces a slice of raw attempts (already scoped
// to one user, category and kind) into a deduplicated progress summary.
//
// Dedup rule: one representative attempt per item id, the most recent by
// SubmittedAt. The representative decides the item's correctness; item
// presence alone decides completion. totalItems comes from the static
// catalog, never from the attempts themselves.
//
// CompletedCount can exceed totalItems when a user has attempted item ids
// outside the expected catalog; ProgressPct then exceeds 100 and callers
// clamp only for display.
func ComputeCategoryProgress(attempts []Attempt, totalItems int) (CategoryProgress, error) {
	if totalItems <= 0 {
		return CategoryProgress{}, &ConfigurationError{Msg: "totalItems must be positive"}
	}

	latest := make(map[string]Attempt, len(attempts))
	for _, a := range attempts {
		prev, ok := latest[a.ItemID]
		if !ok || a.SubmittedAt.After(prev.SubmittedAt) {
			latest[a.ItemID] = a
		}
	}

	cp := CategoryProgress{
		CompletedItemIDs: make([]string, 0, len(latest)),
		CorrectItemIDs:   []string{},
	}
	for id, a := range latest {
		cp.CompletedItemIDs = append(cp.CompletedItemIDs, id)
		if a.Correct {
			cp.CorrectItemIDs = append(cp.CorrectItemIDs, id)
		}
	}
	sort.Strings(cp.CompletedItemIDs)
	sort.Strings(cp.CorrectItemIDs)

	cp.CompletedCount = len(cp.CompletedItemIDs)
	cp.CorrectCount = len(cp.CorrectItemIDs)
	cp.ProgressPct = Percent(cp.CompletedCount, totalItems)
	cp.CorrectPct = Percent(cp.CorrectCount, totalItems)
	return cp, nil
}

// Percent is the rounding policy used everywhere a ratio becomes a
// displayed percentage: round half away from zero, which for the
// non-negative inputs here is round-half-up.
func Percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// AnyAttempted reports completion under the "any submission completes the
// module" policy used by single-shot flows.
func AnyAttempted(completedCount int) bool {
	return completedCount > 0
}

// AllAttempted reports completion under the stricter "every item has at
// least one attempt" policy used by multi-item flows. Both predicates are
// real product behavior; call sites choose explicitly.
func AllAttempted(completedCount, totalItems int) bool {
	return totalItems > 0 && completedCount >= totalItems
}
