package progress

import (
	"time"

	"github.com/securelearn/securelearn-backend/internal/catalog"
)

// Attempt is one submitted answer to a quiz question or challenge item.
// Rows are append-only: repeated attempts at the same item each get their
// own row, and dedup happens at read time in the scoring engine.
type Attempt struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	ItemID      string             `json:"item_id"`
	Kind        catalog.ModuleKind `json:"kind"`
	Category    string             `json:"category"` // learning-path id
	Correct     bool               `json:"correct"`
	SubmittedAt time.Time          `json:"submitted_at"`
}

// ModuleCompletion is the per-(user, module) completion record. Completed
// is monotonic: the engine sets it true and never resets it.
type ModuleCompletion struct {
	UserID    string    `json:"user_id"`
	ModuleID  string    `json:"module_id"`
	Completed bool      `json:"completed"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger is the per-user XP and activity counters.
type Ledger struct {
	UserID       string    `json:"user_id"`
	TotalXP      int       `json:"total_xp"`
	ActiveDays   int       `json:"active_days"`
	LastActiveAt time.Time `json:"last_active_at"`
}

// CategoryProgress is the scoring engine's deduplicated summary for one
// (user, category, kind) slice of attempts.
type CategoryProgress struct {
	CompletedCount   int      `json:"completed_count"`
	CorrectCount     int      `json:"correct_count"`
	ProgressPct      int      `json:"progress_pct"` // completed/total; may exceed 100
	CorrectPct       int      `json:"correct_pct"`  // correct/total
	CompletedItemIDs []string `json:"completed_item_ids"`
	CorrectItemIDs   []string `json:"correct_item_ids"`
}

// PathProgress is one path's aggregate view for a user.
type PathProgress struct {
	PathID            string `json:"path_id"`
	Progress          int    `json:"progress"`
	QuizProgress      int    `json:"quiz_progress"`
	ChallengeProgress int    `json:"challenge_progress"`
	IsComplete        bool   `json:"is_complete"`
}

// ModuleState pairs a catalog module with its stored completion flag.
// The computed percentage and the stored flag can disagree; both are
// reported as-is.
type ModuleState struct {
	ModuleID  string `json:"module_id"`
	Completed bool   `json:"completed"`
	Score     int    `json:"score"`
}

// SettleResult is what a settle operation reports back to the submitter.
type SettleResult struct {
	Success         bool `json:"success"`
	CompletedCount  int  `json:"completed_count"`
	TotalItems      int  `json:"total_items"`
	OverallScorePct int  `json:"overall_score_pct"`
}

// CategoryStatus is the per-category progress view served to the UI.
type CategoryStatus struct {
	CompletedItemIDs []string `json:"completed_item_ids"`
	CorrectItemIDs   []string `json:"correct_item_ids"`
	ModuleCompleted  bool     `json:"module_completed"`
	ProgressPct      int      `json:"progress_pct"`
	CompletedCount   int      `json:"completed_count"`
	CorrectCount     int      `json:"correct_count"`
	TotalItems       int      `json:"total_items"`
}

// Summary is the dashboard roll-up for one user.
type Summary struct {
	TotalXP       int            `json:"total_xp"`
	ActiveDays    int            `json:"active_days"`
	SecurityScore int            `json:"security_score"`
	PathProgress  []PathProgress `json:"path_progress"`
	Achievements  []Achievement  `json:"achievements"`
}

// XP rewards per raw attempt. Repeated attempts at the same item each
// grant XP; the reward is per submission, not per distinct item.
const (
	XPCorrect   = 50
	XPIncorrect = 10
)

// Reward returns the XP granted for one attempt.
func Reward(correct bool) int {
	if correct {
		return XPCorrect
	}
	return XPIncorrect
}
