package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cesizen/cesizen/internal/domain"
)

// sqlStore holds the queries both drivers share. Queries are written with
// ? placeholders and rewritten by bind for drivers that number them.
type sqlStore struct {
	db       *sql.DB
	numbered bool

	// afterExplicitID runs after an exercise is written with a caller
	// supplied id, so generated ids keep clear of it.
	afterExplicitID func(ctx context.Context) error
}

func (s *sqlStore) bind(query string) string {
	if !s.numbered {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) SaveExercise(ctx context.Context, e *domain.Exercise) error {
	if e.ID == 0 {
		query := s.bind(`
			INSERT INTO exercises (name, duration_inspiration, duration_apnea, duration_expiration, number_cycles)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`)
		err := s.db.QueryRowContext(ctx, query,
			e.Name,
			e.DurationInspiration,
			e.DurationApnea,
			e.DurationExpiration,
			e.NumberCycles,
		).Scan(&e.ID)
		return errors.Wrap(err, "insert exercise")
	}

	query := s.bind(`
		INSERT INTO exercises (id, name, duration_inspiration, duration_apnea, duration_expiration, number_cycles)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			duration_inspiration = excluded.duration_inspiration,
			duration_apnea = excluded.duration_apnea,
			duration_expiration = excluded.duration_expiration,
			number_cycles = excluded.number_cycles
	`)
	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.Name,
		e.DurationInspiration,
		e.DurationApnea,
		e.DurationExpiration,
		e.NumberCycles,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert exercise %d", e.ID)
	}

	if s.afterExplicitID != nil {
		return s.afterExplicitID(ctx)
	}
	return nil
}

func (s *sqlStore) ListExercises(ctx context.Context) ([]domain.Exercise, error) {
	query := `SELECT ` + exerciseColumns + ` FROM exercises ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "list exercises")
	}
	defer rows.Close()

	var exercises []domain.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan exercise")
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

func (s *sqlStore) GetExercise(ctx context.Context, id int64) (*domain.Exercise, error) {
	query := s.bind(`SELECT ` + exerciseColumns + ` FROM exercises WHERE id = ?`)

	e, err := scanExercise(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrExerciseNotFound, "exercise %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get exercise %d", id)
	}
	return e, nil
}

func (s *sqlStore) SaveExerciseLog(ctx context.Context, l *domain.ExerciseLog) error {
	query := s.bind(`
		INSERT INTO exercise_logs (` + logColumns + `, breathing_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		l.ID,
		l.UserID,
		l.ExerciseID,
		l.ExerciseName,
		string(l.Status),
		l.CyclesCompleted,
		l.PausedSeconds,
		l.StartedAt.UTC(),
		l.EndedAt.UTC(),
		l.BreathingSeconds(),
	)
	return errors.Wrapf(err, "save exercise log %s", l.ID)
}

func (s *sqlStore) GetLogsByUser(ctx context.Context, userID string) ([]domain.ExerciseLog, error) {
	query := s.bind(`
		SELECT ` + logColumns + `
		FROM exercise_logs
		WHERE user_id = ?
		ORDER BY ended_at DESC
	`)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "logs of %s", userID)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (s *sqlStore) GetRecentLogs(ctx context.Context, userID string, since time.Time) ([]domain.ExerciseLog, error) {
	query := s.bind(`
		SELECT ` + logColumns + `
		FROM exercise_logs
		WHERE user_id = ? AND ended_at >= ?
		ORDER BY ended_at DESC
	`)

	rows, err := s.db.QueryContext(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, errors.Wrapf(err, "recent logs of %s", userID)
	}
	defer rows.Close()

	return scanLogs(rows)
}

func (s *sqlStore) GetLogStats(ctx context.Context, userID string) (*LogStats, error) {
	query := s.bind(`
		SELECT
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END) AS completed,
			SUM(breathing_seconds) AS breathing
		FROM exercise_logs
		WHERE user_id = ?
	`)

	var stats LogStats
	var completed, breathing sql.NullInt64

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalSessions,
		&completed,
		&breathing,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "stats of %s", userID)
	}

	if completed.Valid {
		stats.CompletedCount = int(completed.Int64)
	}
	if breathing.Valid {
		stats.TotalBreathingSec = int(breathing.Int64)
	}
	if stats.TotalSessions == 0 {
		return &stats, nil
	}
	stats.CompletionRate = float64(stats.CompletedCount) / float64(stats.TotalSessions) * 100

	favourite := s.bind(`
		SELECT exercise_name
		FROM exercise_logs
		WHERE user_id = ?
		GROUP BY exercise_name
		ORDER BY COUNT(*) DESC, exercise_name
		LIMIT 1
	`)
	if err := s.db.QueryRowContext(ctx, favourite, userID).Scan(&stats.FavouriteExercise); err != nil {
		return nil, errors.Wrapf(err, "favourite exercise of %s", userID)
	}

	return &stats, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func scanLogs(rows *sql.Rows) ([]domain.ExerciseLog, error) {
	var logs []domain.ExerciseLog

	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan exercise log")
		}
		logs = append(logs, *l)
	}

	return logs, rows.Err()
}
