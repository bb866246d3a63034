package progress

import "math"

// Achievement is a named badge derived from a user's activity. Awards are
// recomputed on read from attempts, path progress and the ledger; nothing
// is stored.
type Achievement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// EvaluateAchievements returns the user's earned badges in a stable
// order. attemptCount is the raw (non-deduplicated) number of
// submissions.
func EvaluateAchievements(attemptCount int, paths []PathProgress, ledger Ledger) []Achievement {
	var out []Achievement
	award := func(id, title string, ok bool) {
		if ok {
			out = append(out, Achievement{ID: id, Title: title})
		}
	}

	completed := 0
	for _, p := range paths {
		if p.IsComplete {
			completed++
		}
	}

	award("first-steps", "First Steps", attemptCount >= 1)
	award("persistent", "Persistent Learner", attemptCount >= 10)
	award("path-finder", "Path Finder", completed >= 1)
	award("all-paths", "Security Graduate", len(paths) > 0 && completed == len(paths))
	award("xp-1000", "XP Collector", ledger.TotalXP >= 1000)
	award("xp-5000", "XP Hoarder", ledger.TotalXP >= 5000)
	award("week-streak", "Regular Visitor", ledger.ActiveDays >= 7)
	return out
}

// SecurityScore is the composite dashboard figure: 40% completed-path
// ratio, 30% XP against a 10000-XP ceiling, 30% achievements against a
// ten-badge ceiling. Each term is scaled in-formula, so the usual range
// is 0-100.
func SecurityScore(completedPaths, totalPaths, totalXP, achievements int) int {
	if totalPaths < 1 {
		totalPaths = 1
	}
	score := float64(completedPaths)/float64(totalPaths)*40 +
		float64(totalXP)/10000*30 +
		float64(achievements)/10*30
	return int(math.Round(score))
}
