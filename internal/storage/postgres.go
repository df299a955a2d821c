package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/lib/pq"
)

type PostgresRepository struct {
	sqlStore
}

func NewPostgresRepository(connStr string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	repo := &PostgresRepository{sqlStore{db: db, numbered: true}}
	repo.afterExplicitID = repo.syncExerciseSequence

	if err := repo.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS exercises (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		duration_inspiration INTEGER NOT NULL,
		duration_apnea INTEGER NOT NULL,
		duration_expiration INTEGER NOT NULL,
		number_cycles INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exercise_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		exercise_id BIGINT NOT NULL,
		exercise_name TEXT NOT NULL,
		status TEXT NOT NULL,
		cycles_completed INTEGER NOT NULL,
		paused_seconds INTEGER NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL,
		breathing_seconds INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_user_id ON exercise_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_logs_ended_at ON exercise_logs(ended_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "create postgres schema")
}

func (r *PostgresRepository) syncExerciseSequence(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('exercises', 'id'), (SELECT MAX(id) FROM exercises))`)
	return errors.Wrap(err, "sync exercise id sequence")
}
