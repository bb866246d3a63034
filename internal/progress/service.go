package progress

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/securelearn/securelearn-backend/internal/catalog"
)

// Service is the completion & XP coordinator: it reacts to submitted
// attempts, drives the idempotent completion upserts and XP accrual, and
// answers progress queries. It is request-scoped — all state lives in the
// Store.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceWithClock is for tests that need a fixed clock.
func NewServiceWithClock(store Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

func validateSubmission(userID, itemID, category string) error {
	switch {
	case userID == "":
		return &ValidationError{Field: "userId", Msg: "required"}
	case itemID == "":
		return &ValidationError{Field: "itemId", Msg: "required"}
	case category == "":
		return &ValidationError{Field: "type", Msg: "required"}
	}
	return nil
}

// SubmitResult appends one attempt without settling completion or XP.
// Used by the scenario flow, which tracks completion through the module
// upsert endpoint instead.
func (s *Service) SubmitResult(ctx context.Context, userID, itemID string, kind catalog.ModuleKind, category string, correct bool) (Attempt, error) {
	if err := validateSubmission(userID, itemID, category); err != nil {
		return Attempt{}, err
	}
	a := Attempt{
		ID:          uuid.NewString(),
		UserID:      userID,
		ItemID:      itemID,
		Kind:        kind,
		Category:    category,
		Correct:     correct,
		SubmittedAt: s.now(),
	}
	if err := s.store.AppendAttempt(ctx, a); err != nil {
		return Attempt{}, storageErr("append attempt", err)
	}
	return a, nil
}

// RecordAttemptAndSettle appends one attempt and performs the follow-up
// side effects in order: full recompute of the category score, module
// completion upsert, XP accrual. Each step is independently idempotent,
// so on a storage failure the caller can retry the whole operation.
//
// The completion upsert fires on every qualifying submission — completed
// means "the module has been attempted", not "passed". XP is granted per
// raw attempt, so re-answering the same item earns the reward again; that
// is deliberate product policy, not a dedup bug.
func (s *Service) RecordAttemptAndSettle(ctx context.Context, userID, itemID string, kind catalog.ModuleKind, category, pathID string, correct bool) (SettleResult, error) {
	if err := validateSubmission(userID, itemID, category); err != nil {
		return SettleResult{}, err
	}
	if _, ok := catalog.PathByID(pathID); !ok {
		return SettleResult{}, &NotFoundError{Kind: "path", ID: pathID}
	}
	total, ok := catalog.TotalItems(pathID, kind)
	if !ok {
		return SettleResult{}, &NotFoundError{Kind: "path", ID: pathID}
	}

	if _, err := s.SubmitResult(ctx, userID, itemID, kind, category, correct); err != nil {
		return SettleResult{}, err
	}

	// Full recompute over all attempts so far: correct under duplicate
	// and out-of-order submissions, unlike an incremental counter.
	attempts, err := s.store.ListAttempts(ctx, userID, kind, category)
	if err != nil {
		return SettleResult{}, storageErr("list attempts", err)
	}
	cp, err := ComputeCategoryProgress(attempts, total)
	if err != nil {
		return SettleResult{}, err
	}

	// Unknown (path, kind) pairs are untracked: the attempt still counts,
	// completion and XP settlement are skipped.
	if mod, ok := catalog.ModuleFor(pathID, kind); ok {
		if err := s.store.UpsertCompletion(ctx, userID, mod.ID, cp.CorrectPct); err != nil {
			return SettleResult{}, storageErr("upsert completion", err)
		}
		if err := s.store.AddXP(ctx, userID, Reward(correct)); err != nil {
			return SettleResult{}, storageErr("add xp", err)
		}
	}

	return SettleResult{
		Success:         true,
		CompletedCount:  cp.CompletedCount,
		TotalItems:      total,
		OverallScorePct: cp.CorrectPct,
	}, nil
}

// GetCategoryProgress answers the per-category progress screen: which
// items the user has attempted, which were correct (latest attempt
// decides), and whether the matching module's stored completion flag is
// set. The computed percentage and the stored flag can disagree; both are
// reported as-is.
func (s *Service) GetCategoryProgress(ctx context.Context, userID string, kind catalog.ModuleKind, category string) (CategoryStatus, error) {
	if userID == "" {
		return CategoryStatus{}, &ValidationError{Field: "userId", Msg: "required"}
	}
	if category == "" {
		return CategoryStatus{}, &ValidationError{Field: "type", Msg: "required"}
	}
	total, ok := catalog.TotalItems(category, kind)
	if !ok {
		return CategoryStatus{}, &NotFoundError{Kind: "path", ID: category}
	}

	attempts, err := s.store.ListAttempts(ctx, userID, kind, category)
	if err != nil {
		return CategoryStatus{}, storageErr("list attempts", err)
	}
	cp, err := ComputeCategoryProgress(attempts, total)
	if err != nil {
		return CategoryStatus{}, err
	}

	st := CategoryStatus{
		CompletedItemIDs: cp.CompletedItemIDs,
		CorrectItemIDs:   cp.CorrectItemIDs,
		ProgressPct:      cp.ProgressPct,
		CompletedCount:   cp.CompletedCount,
		CorrectCount:     cp.CorrectCount,
		TotalItems:       total,
	}
	if mod, ok := catalog.ModuleFor(category, kind); ok {
		mc, found, err := s.store.GetCompletion(ctx, userID, mod.ID)
		if err != nil {
			return CategoryStatus{}, storageErr("get completion", err)
		}
		st.ModuleCompleted = found && mc.Completed
	}
	return st, nil
}

// computePathProgress builds one path's category percentages from a
// pre-fetched attempt set.
func (s *Service) computePathProgress(path catalog.Path, attempts []Attempt) (quizPct, challengePct int, err error) {
	var quiz, challenge []Attempt
	for _, a := range attempts {
		if a.Category != path.ID {
			continue
		}
		switch a.Kind {
		case catalog.KindQuiz:
			quiz = append(quiz, a)
		case catalog.KindChallenge:
			challenge = append(challenge, a)
		}
	}
	qp, err := ComputeCategoryProgress(quiz, path.TotalQuizItems)
	if err != nil {
		return 0, 0, err
	}
	cp, err := ComputeCategoryProgress(challenge, path.TotalChallengeItems)
	if err != nil {
		return 0, 0, err
	}
	return qp.ProgressPct, cp.ProgressPct, nil
}

// GetPathProgressMap produces the multi-path summary: one weighted
// percentage per path, keyed by path id.
func (s *Service) GetPathProgressMap(ctx context.Context, userID string) (map[string]PathProgress, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Msg: "required"}
	}
	attempts, err := s.store.ListAllAttempts(ctx, userID)
	if err != nil {
		return nil, storageErr("list attempts", err)
	}

	out := make(map[string]PathProgress, len(catalog.Paths()))
	for _, p := range catalog.Paths() {
		qp, cp, err := s.computePathProgress(p, attempts)
		if err != nil {
			return nil, err
		}
		overall := WeightedPathProgress(qp, cp)
		out[p.ID] = PathProgress{
			PathID:            p.ID,
			Progress:          overall,
			QuizProgress:      qp,
			ChallengeProgress: cp,
			IsComplete:        PathComplete(overall),
		}
	}
	return out, nil
}

// GetPathModuleProgress answers the single-path module screen, which uses
// the simple-average formula rather than the weighted one. It also
// reports the stored completion flags for the path's modules.
func (s *Service) GetPathModuleProgress(ctx context.Context, userID, pathID string) (PathProgress, []ModuleState, error) {
	if userID == "" {
		return PathProgress{}, nil, &ValidationError{Field: "userId", Msg: "required"}
	}
	path, ok := catalog.PathByID(pathID)
	if !ok {
		return PathProgress{}, nil, &NotFoundError{Kind: "path", ID: pathID}
	}
	attempts, err := s.store.ListAllAttempts(ctx, userID)
	if err != nil {
		return PathProgress{}, nil, storageErr("list attempts", err)
	}
	qp, cp, err := s.computePathProgress(path, attempts)
	if err != nil {
		return PathProgress{}, nil, err
	}
	overall := AverageModuleProgress(qp, cp)
	pp := PathProgress{
		PathID:            path.ID,
		Progress:          overall,
		QuizProgress:      qp,
		ChallengeProgress: cp,
		IsComplete:        PathComplete(overall),
	}

	mods, err := catalog.Modules(path.ID)
	if err != nil {
		return PathProgress{}, nil, &NotFoundError{Kind: "path", ID: pathID}
	}
	states := make([]ModuleState, 0, len(mods))
	for _, m := range mods {
		mc, found, err := s.store.GetCompletion(ctx, userID, m.ID)
		if err != nil {
			return PathProgress{}, nil, storageErr("get completion", err)
		}
		st := ModuleState{ModuleID: m.ID}
		if found {
			st.Completed = mc.Completed
			st.Score = mc.Score
		}
		states = append(states, st)
	}
	return pp, states, nil
}

// ModuleUpdate is the acknowledgement for a direct completion upsert.
type ModuleUpdate struct {
	Success  bool   `json:"success"`
	ModuleID string `json:"module_id"`
	Score    int    `json:"score"`
}

// UpdateModuleProgress is the direct completion upsert used by challenge
// and scenario flows that compute their own score.
func (s *Service) UpdateModuleProgress(ctx context.Context, userID, moduleID string, score int) (ModuleUpdate, error) {
	if userID == "" {
		return ModuleUpdate{}, &ValidationError{Field: "userId", Msg: "required"}
	}
	if moduleID == "" {
		return ModuleUpdate{}, &ValidationError{Field: "moduleId", Msg: "required"}
	}
	if _, ok := catalog.ModuleByID(moduleID); !ok {
		return ModuleUpdate{}, &NotFoundError{Kind: "module", ID: moduleID}
	}
	if err := s.store.UpsertCompletion(ctx, userID, moduleID, score); err != nil {
		return ModuleUpdate{}, storageErr("upsert completion", err)
	}
	return ModuleUpdate{Success: true, ModuleID: moduleID, Score: score}, nil
}

// CheckAndUpdateActiveDays bumps the user's active-day counter when the
// calendar day has rolled over since their last activity. Safe to call
// any number of times within a day; only the first call takes effect.
func (s *Service) CheckAndUpdateActiveDays(ctx context.Context, userID string) error {
	if userID == "" {
		return &ValidationError{Field: "userId", Msg: "required"}
	}
	ledger, err := s.store.GetLedger(ctx, userID)
	if err != nil {
		return storageErr("get ledger", err)
	}
	now := s.now()
	y, m, d := now.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if !ledger.LastActiveAt.Before(dayStart) {
		return nil
	}
	if err := s.store.MarkActiveDay(ctx, userID, now, dayStart); err != nil {
		return storageErr("mark active day", err)
	}
	return nil
}

// GetUserProgressSummary assembles the dashboard roll-up: XP, activity,
// per-path progress, achievements and the composite security score.
func (s *Service) GetUserProgressSummary(ctx context.Context, userID string) (Summary, error) {
	if userID == "" {
		return Summary{}, &ValidationError{Field: "userId", Msg: "required"}
	}
	ledger, err := s.store.GetLedger(ctx, userID)
	if err != nil {
		return Summary{}, storageErr("get ledger", err)
	}
	pathMap, err := s.GetPathProgressMap(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	attemptCount, err := s.store.CountAttempts(ctx, userID)
	if err != nil {
		return Summary{}, storageErr("count attempts", err)
	}

	paths := make([]PathProgress, 0, len(pathMap))
	for _, pp := range pathMap {
		paths = append(paths, pp)
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].PathID < paths[j].PathID })

	completed := 0
	for _, pp := range paths {
		if pp.IsComplete {
			completed++
		}
	}
	achievements := EvaluateAchievements(attemptCount, paths, ledger)

	return Summary{
		TotalXP:       ledger.TotalXP,
		ActiveDays:    ledger.ActiveDays,
		SecurityScore: SecurityScore(completed, len(paths), ledger.TotalXP, len(achievements)),
		PathProgress:  paths,
		Achievements:  achievements,
	}, nil
}
