package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	sqlStore
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// sqlite serialises writers; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	repo := &SQLiteRepository{sqlStore{db: db}}
	if err := repo.createTables(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS exercises (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		duration_inspiration INTEGER NOT NULL,
		duration_apnea INTEGER NOT NULL,
		duration_expiration INTEGER NOT NULL,
		number_cycles INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exercise_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		exercise_id INTEGER NOT NULL,
		exercise_name TEXT NOT NULL,
		status TEXT NOT NULL,
		cycles_completed INTEGER NOT NULL,
		paused_seconds INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		breathing_seconds INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_user_id ON exercise_logs(user_id);
	CREATE INDEX IF NOT EXISTS idx_logs_ended_at ON exercise_logs(ended_at);
	`

	_, err := r.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "create sqlite schema")
}
