package progress

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/securelearn/securelearn-backend/internal/catalog"
)

// SQLStore implements Store over database/sql. The same statements run
// against Postgres (pgx stdlib) and SQLite (modernc); both accept $n
// placeholders and ON CONFLICT upserts. Timestamps are stored as Unix
// seconds.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) AppendAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id,user_id,item_id,kind,category,correct,submitted_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.UserID, a.ItemID, string(a.Kind), a.Category, a.Correct, a.SubmittedAt.Unix())
	return err
}

func (s *SQLStore) ListAttempts(ctx context.Context, userID string, kind catalog.ModuleKind, category string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,user_id,item_id,kind,category,correct,submitted_at
		   FROM attempts
		  WHERE user_id=$1 AND kind=$2 AND category=$3
		  ORDER BY submitted_at ASC, id ASC`,
		userID, string(kind), category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func (s *SQLStore) ListAllAttempts(ctx context.Context, userID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,user_id,item_id,kind,category,correct,submitted_at
		   FROM attempts
		  WHERE user_id=$1
		  ORDER BY submitted_at ASC, id ASC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAttempts(rows)
}

func scanAttempts(rows *sql.Rows) ([]Attempt, error) {
	var out []Attempt
	for rows.Next() {
		var a Attempt
		var kind string
		var ts int64
		if err := rows.Scan(&a.ID, &a.UserID, &a.ItemID, &kind, &a.Category, &a.Correct, &ts); err != nil {
			return nil, err
		}
		a.Kind = catalog.ModuleKind(kind)
		a.SubmittedAt = time.Unix(ts, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountAttempts(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE user_id=$1`, userID).Scan(&n)
	return n, err
}

// UpsertCompletion relies on the unique (user_id, module_id) key so
// concurrent writers converge instead of losing updates. Completed only
// ever moves to true.
func (s *SQLStore) UpsertCompletion(ctx context.Context, userID, moduleID string, score int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO module_completions (user_id,module_id,completed,score,updated_at)
		 VALUES ($1,$2,TRUE,$3,$4)
		 ON CONFLICT (user_id,module_id) DO UPDATE
		   SET completed=TRUE, score=EXCLUDED.score, updated_at=EXCLUDED.updated_at`,
		userID, moduleID, score, time.Now().Unix())
	return err
}

func (s *SQLStore) GetCompletion(ctx context.Context, userID, moduleID string) (ModuleCompletion, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id,module_id,completed,score,updated_at
		   FROM module_completions
		  WHERE user_id=$1 AND module_id=$2`,
		userID, moduleID)
	mc, err := scanCompletion(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return ModuleCompletion{}, false, nil
	}
	if err != nil {
		return ModuleCompletion{}, false, err
	}
	return mc, true, nil
}

func (s *SQLStore) ListCompletions(ctx context.Context, userID string) ([]ModuleCompletion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id,module_id,completed,score,updated_at
		   FROM module_completions
		  WHERE user_id=$1`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ModuleCompletion
	for rows.Next() {
		mc, err := scanCompletion(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, mc)
	}
	return out, rows.Err()
}

func scanCompletion(scan func(...any) error) (ModuleCompletion, error) {
	var mc ModuleCompletion
	var ts int64
	if err := scan(&mc.UserID, &mc.ModuleID, &mc.Completed, &mc.Score, &ts); err != nil {
		return ModuleCompletion{}, err
	}
	mc.UpdatedAt = time.Unix(ts, 0)
	return mc, nil
}

// AddXP is a store-side increment, not read-modify-write, so concurrent
// submissions never lose XP.
func (s *SQLStore) AddXP(ctx context.Context, userID string, delta int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET total_xp = total_xp + $2 WHERE id=$1`,
		userID, delta)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func (s *SQLStore) GetLedger(ctx context.Context, userID string) (Ledger, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,total_xp,active_days,last_active_at FROM users WHERE id=$1`,
		userID)
	var l Ledger
	var ts int64
	if err := row.Scan(&l.UserID, &l.TotalXP, &l.ActiveDays, &ts); err != nil {
		return Ledger{}, err
	}
	l.LastActiveAt = time.Unix(ts, 0)
	return l, nil
}

// MarkActiveDay bumps the day counter at most once per calendar day: the
// WHERE clause only matches while last_active_at is still before today's
// start, so repeated calls (or racing requests) settle on one increment.
func (s *SQLStore) MarkActiveDay(ctx context.Context, userID string, now, dayStart time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users
		    SET active_days = active_days + 1, last_active_at = $2
		  WHERE id=$1 AND last_active_at < $3`,
		userID, now.Unix(), dayStart.Unix())
	return err
}
