package progress

import (
	"context"
	"time"

	"github.com/securelearn/securelearn-backend/internal/catalog"
)

// Store is the persistence contract the engine is written against. The
// engine never does read-modify-write for counters: XP and active-day
// updates are atomic store-side operations so concurrent submissions from
// multiple devices converge.
type Store interface {
	// AppendAttempt writes one attempt row. Rows are never mutated or
	// deleted afterwards.
	AppendAttempt(ctx context.Context, a Attempt) error

	// ListAttempts returns all attempts for (user, kind, category),
	// oldest first.
	ListAttempts(ctx context.Context, userID string, kind catalog.ModuleKind, category string) ([]Attempt, error)

	// ListAllAttempts returns every attempt for a user, oldest first.
	ListAllAttempts(ctx context.Context, userID string) ([]Attempt, error)

	// CountAttempts returns the raw (non-deduplicated) attempt count for
	// a user.
	CountAttempts(ctx context.Context, userID string) (int, error)

	// UpsertCompletion atomically inserts or updates the completion row
	// for (user, module), setting completed=true and the given score.
	// Must use the store's native upsert keyed on (user_id, module_id).
	UpsertCompletion(ctx context.Context, userID, moduleID string, score int) error

	// GetCompletion fetches one completion row; ok=false when absent.
	GetCompletion(ctx context.Context, userID, moduleID string) (ModuleCompletion, bool, error)

	// ListCompletions returns all completion rows for a user.
	ListCompletions(ctx context.Context, userID string) ([]ModuleCompletion, error)

	// AddXP atomically increments the user's XP counter by delta.
	AddXP(ctx context.Context, userID string, delta int) error

	// GetLedger fetches the user's XP/activity counters.
	GetLedger(ctx context.Context, userID string) (Ledger, error)

	// MarkActiveDay increments active_days and stamps last_active_at,
	// guarded so it applies at most once per calendar day: the update
	// only fires when the stored last_active_at is before dayStart.
	MarkActiveDay(ctx context.Context, userID string, now, dayStart time.Time) error
}
