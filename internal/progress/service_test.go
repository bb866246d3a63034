package progress_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/securelearn/securelearn-backend/internal/catalog"
	"github.com/securelearn/securelearn-backend/internal/progress"
)

/* ---------------- In-memory fake that satisfies progress.Store ---------------- */

type fakeStore struct {
	mu          sync.Mutex
	attempts    []progress.Attempt
	completions map[string]progress.ModuleCompletion // key: userID|moduleID
	ledgers     map[string]progress.Ledger

	failOn string // when set, the named op returns an error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		completions: map[string]progress.ModuleCompletion{},
		ledgers:     map[string]progress.Ledger{},
	}
}

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return fmt.Errorf("%s unavailable", op)
	}
	return nil
}

func (s *fakeStore) AppendAttempt(_ context.Context, a progress.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("append"); err != nil {
		return err
	}
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *fakeStore) ListAttempts(_ context.Context, userID string, kind catalog.ModuleKind, category string) ([]progress.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list"); err != nil {
		return nil, err
	}
	var out []progress.Attempt
	for _, a := range s.attempts {
		if a.UserID == userID && a.Kind == kind && a.Category == category {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) ListAllAttempts(_ context.Context, userID string) ([]progress.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("list"); err != nil {
		return nil, err
	}
	var out []progress.Attempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) CountAttempts(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.attempts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpsertCompletion(_ context.Context, userID, moduleID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("upsert"); err != nil {
		return err
	}
	s.completions[userID+"|"+moduleID] = progress.ModuleCompletion{
		UserID: userID, ModuleID: moduleID, Completed: true, Score: score, UpdatedAt: time.Now(),
	}
	return nil
}

func (s *fakeStore) GetCompletion(_ context.Context, userID, moduleID string) (progress.ModuleCompletion, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mc, ok := s.completions[userID+"|"+moduleID]
	return mc, ok, nil
}

func (s *fakeStore) ListCompletions(_ context.Context, userID string) ([]progress.ModuleCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []progress.ModuleCompletion
	for _, mc := range s.completions {
		if mc.UserID == userID {
			out = append(out, mc)
		}
	}
	return out, nil
}

func (s *fakeStore) AddXP(_ context.Context, userID string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("xp"); err != nil {
		return err
	}
	l := s.ledgers[userID]
	l.UserID = userID
	l.TotalXP += delta
	s.ledgers[userID] = l
	return nil
}

func (s *fakeStore) GetLedger(_ context.Context, userID string) (progress.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		return progress.Ledger{}, fmt.Errorf("user %q not found", userID)
	}
	return l, nil
}

func (s *fakeStore) MarkActiveDay(_ context.Context, userID string, now, dayStart time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.ledgers[userID]
	if !ok {
		return fmt.Errorf("user %q not found", userID)
	}
	if l.LastActiveAt.Before(dayStart) {
		l.ActiveDays++
		l.LastActiveAt = now
		s.ledgers[userID] = l
	}
	return nil
}

func (s *fakeStore) seedUser(userID string, lastActive time.Time) {
	s.ledgers[userID] = progress.Ledger{UserID: userID, ActiveDays: 1, LastActiveAt: lastActive}
}

/* ---------------- Tests ---------------- */

func newTestService(s *fakeStore, now time.Time) *progress.Service {
	return progress.NewServiceWithClock(s, func() time.Time { return now })
}

// Walks the password path end to end: 4 distinct correct quizzes and one
// correct challenge, then the second challenge answered incorrectly.
func TestPasswordPathScenario(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	svc := newTestService(store, time.Now())

	for i := 1; i <= 4; i++ {
		item := fmt.Sprintf("pw-q%d", i)
		if _, err := svc.RecordAttemptAndSettle(ctx, "u1", item, catalog.KindQuiz, "password", "password", true); err != nil {
			t.Fatalf("quiz %d: %v", i, err)
		}
	}
	res, err := svc.RecordAttemptAndSettle(ctx, "u1", "pw-c1", catalog.KindChallenge, "password", "password", true)
	if err != nil {
		t.Fatalf("challenge 1: %v", err)
	}
	if res.CompletedCount != 1 || res.TotalItems != 2 {
		t.Errorf("challenge settle = %+v, want 1 of 2 completed", res)
	}

	m, err := svc.GetPathProgressMap(ctx, "u1")
	if err != nil {
		t.Fatalf("path map: %v", err)
	}
	pw := m["password"]
	if pw.QuizProgress != 100 || pw.ChallengeProgress != 50 {
		t.Errorf("quiz/challenge = %d/%d, want 100/50", pw.QuizProgress, pw.ChallengeProgress)
	}
	if pw.Progress != 80 {
		t.Errorf("weighted progress = %d, want 80", pw.Progress)
	}
	if pw.IsComplete {
		t.Error("path complete at 80%, want incomplete")
	}

	// Second challenge item answered incorrectly: completion counts
	// presence, not correctness.
	if _, err := svc.RecordAttemptAndSettle(ctx, "u1", "pw-c2", catalog.KindChallenge, "password", "password", false); err != nil {
		t.Fatalf("challenge 2: %v", err)
	}
	m, err = svc.GetPathProgressMap(ctx, "u1")
	if err != nil {
		t.Fatalf("path map: %v", err)
	}
	pw = m["password"]
	if pw.ChallengeProgress != 100 {
		t.Errorf("challenge progress = %d, want 100 (completed, not correct-weighted)", pw.ChallengeProgress)
	}
	if pw.Progress != 100 || !pw.IsComplete {
		t.Errorf("progress = %d complete=%v, want 100/true", pw.Progress, pw.IsComplete)
	}

	st, err := svc.GetCategoryProgress(ctx, "u1", catalog.KindChallenge, "password")
	if err != nil {
		t.Fatalf("category progress: %v", err)
	}
	if st.CorrectCount != 1 {
		t.Errorf("challenge CorrectCount = %d, want 1 of 2", st.CorrectCount)
	}
	if !st.ModuleCompleted {
		t.Error("challenge module should be marked completed after settle")
	}
}

// Repeating the identical submission leaves completedCount unchanged but
// still grants XP: the reward is per raw attempt, never deduplicated.
func TestResubmissionKeepsCountGrantsXP(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	svc := newTestService(store, time.Now())

	first, err := svc.RecordAttemptAndSettle(ctx, "u1", "q1", catalog.KindQuiz, "phishing", "phishing", true)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	xpAfterFirst := store.ledgers["u1"].TotalXP

	second, err := svc.RecordAttemptAndSettle(ctx, "u1", "q1", catalog.KindQuiz, "phishing", "phishing", true)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.CompletedCount != first.CompletedCount {
		t.Errorf("completedCount changed %d -> %d on duplicate submission", first.CompletedCount, second.CompletedCount)
	}
	if got := store.ledgers["u1"].TotalXP; got != xpAfterFirst+progress.XPCorrect {
		t.Errorf("totalXP = %d, want %d (+%d per attempt)", got, xpAfterFirst+progress.XPCorrect, progress.XPCorrect)
	}
}

func TestXPRewardPolicy(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	svc := newTestService(store, time.Now())

	if _, err := svc.RecordAttemptAndSettle(ctx, "u1", "q1", catalog.KindQuiz, "social", "social", true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RecordAttemptAndSettle(ctx, "u1", "q2", catalog.KindQuiz, "social", "social", false); err != nil {
		t.Fatal(err)
	}
	if got := store.ledgers["u1"].TotalXP; got != progress.XPCorrect+progress.XPIncorrect {
		t.Errorf("totalXP = %d, want %d", got, progress.XPCorrect+progress.XPIncorrect)
	}
}

func TestActiveDaysOncePerCalendarDay(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	yesterday := time.Date(2026, 8, 29, 23, 50, 0, 0, time.UTC)
	today := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	store.seedUser("u1", yesterday)
	svc := newTestService(store, today)

	for i := 0; i < 5; i++ {
		if err := svc.CheckAndUpdateActiveDays(ctx, "u1"); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := store.ledgers["u1"].ActiveDays; got != 2 {
		t.Errorf("activeDays = %d, want 2 (exactly one increment per day)", got)
	}
	if !store.ledgers["u1"].LastActiveAt.Equal(today) {
		t.Errorf("lastActiveAt = %v, want %v", store.ledgers["u1"].LastActiveAt, today)
	}
}

func TestRecordAttemptUnknownPath(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	_, err := svc.RecordAttemptAndSettle(ctx, "u1", "q1", catalog.KindQuiz, "crypto", "crypto", true)
	var nf *progress.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError for unknown path, got %v", err)
	}
	if len(store.attempts) != 0 {
		t.Error("no attempt may be written when the path lookup fails")
	}
}

func TestUpdateModuleProgress(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	res, err := svc.UpdateModuleProgress(ctx, "u1", "data-challenge", 85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.ModuleID != "data-challenge" || res.Score != 85 {
		t.Errorf("result = %+v", res)
	}
	mc, ok, _ := store.GetCompletion(ctx, "u1", "data-challenge")
	if !ok || !mc.Completed || mc.Score != 85 {
		t.Errorf("completion = %+v ok=%v", mc, ok)
	}

	_, err = svc.UpdateModuleProgress(ctx, "u1", "no-such-module", 10)
	var nf *progress.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError for unknown module, got %v", err)
	}
}

func TestStorageErrorsAreTyped(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	store.failOn = "xp"
	svc := newTestService(store, time.Now())

	_, err := svc.RecordAttemptAndSettle(ctx, "u1", "q1", catalog.KindQuiz, "data", "data", true)
	var se *progress.StorageError
	if !errors.As(err, &se) {
		t.Fatalf("want StorageError, got %v", err)
	}
	// The earlier steps committed; a retry of the whole operation is safe
	// because each step is idempotent.
	if len(store.attempts) != 1 {
		t.Errorf("attempt rows = %d, want 1", len(store.attempts))
	}
}

func TestValidationRejectsBeforeSideEffects(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, time.Now())

	_, err := svc.RecordAttemptAndSettle(ctx, "", "q1", catalog.KindQuiz, "data", "data", true)
	var ve *progress.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(store.attempts) != 0 {
		t.Error("validation failure must not write attempts")
	}
}

func TestUserProgressSummary(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	svc := newTestService(store, time.Now())

	// Complete the whole password path.
	for i := 1; i <= 4; i++ {
		item := fmt.Sprintf("pw-q%d", i)
		if _, err := svc.RecordAttemptAndSettle(ctx, "u1", item, catalog.KindQuiz, "password", "password", true); err != nil {
			t.Fatal(err)
		}
	}
	for i := 1; i <= 2; i++ {
		item := fmt.Sprintf("pw-c%d", i)
		if _, err := svc.RecordAttemptAndSettle(ctx, "u1", item, catalog.KindChallenge, "password", "password", true); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := svc.GetUserProgressSummary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.TotalXP != 6*progress.XPCorrect {
		t.Errorf("totalXP = %d, want %d", sum.TotalXP, 6*progress.XPCorrect)
	}
	if len(sum.PathProgress) != 4 {
		t.Fatalf("pathProgress entries = %d, want 4", len(sum.PathProgress))
	}
	completed := 0
	for _, pp := range sum.PathProgress {
		if pp.IsComplete {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("completed paths = %d, want 1", completed)
	}
	want := progress.SecurityScore(1, 4, sum.TotalXP, len(sum.Achievements))
	if sum.SecurityScore != want {
		t.Errorf("securityScore = %d, want %d", sum.SecurityScore, want)
	}
	if len(sum.Achievements) == 0 {
		t.Error("want at least one achievement after completing a path")
	}
}

func TestSecurityScoreFormula(t *testing.T) {
	tests := []struct {
		completed, total, xp, achievements, want int
	}{
		{0, 4, 0, 0, 0},
		{4, 4, 10000, 10, 100},
		{2, 4, 5000, 5, 50}, // 20 + 15 + 15
		{1, 4, 300, 3, 20},  // 10 + 0.9 + 9 = 19.9
		{0, 0, 0, 0, 0},     // totalPaths guarded to 1
	}
	for _, tt := range tests {
		got := progress.SecurityScore(tt.completed, tt.total, tt.xp, tt.achievements)
		if got != tt.want {
			t.Errorf("SecurityScore(%d,%d,%d,%d) = %d, want %d",
				tt.completed, tt.total, tt.xp, tt.achievements, got, tt.want)
		}
	}
}

// N concurrent settles for distinct items must not lose attempt rows or
// XP increments.
func TestConcurrentSettlesConverge(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seedUser("u1", time.Now())
	svc := newTestService(store, time.Now())

	const n = 5 // data path has 5 quiz items
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := fmt.Sprintf("dq%d", i)
			_, err := svc.RecordAttemptAndSettle(ctx, "u1", item, catalog.KindQuiz, "data", "data", true)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent settle: %v", err)
		}
	}

	st, err := svc.GetCategoryProgress(ctx, "u1", catalog.KindQuiz, "data")
	if err != nil {
		t.Fatalf("category progress: %v", err)
	}
	if st.CompletedCount != n {
		t.Errorf("completedCount = %d, want %d (no lost writes)", st.CompletedCount, n)
	}
	if got := store.ledgers["u1"].TotalXP; got != n*progress.XPCorrect {
		t.Errorf("totalXP = %d, want %d (no lost increments)", got, n*progress.XPCorrect)
	}
}
