package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesizen/cesizen/internal/domain"
	"github.com/cesizen/cesizen/internal/storage"
)

func newTestRepository(t *testing.T) storage.Repository {
	t.Helper()

	repo, err := storage.Open("sqlite3", filepath.Join(t.TempDir(), "cesizen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := storage.Open("mysql", "whatever")
	assert.Error(t, err)
}

func TestSQLiteRepository_Exercises(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	seeded := &domain.Exercise{ID: 748, Name: "7-4-8", DurationInspiration: 7, DurationApnea: 4, DurationExpiration: 8, NumberCycles: 15}
	require.NoError(t, repo.SaveExercise(ctx, seeded))

	fresh := &domain.Exercise{Name: "Cohérence", DurationInspiration: 5, DurationExpiration: 5, NumberCycles: 30}
	require.NoError(t, repo.SaveExercise(ctx, fresh))
	assert.Greater(t, fresh.ID, int64(748))

	got, err := repo.GetExercise(ctx, 748)
	require.NoError(t, err)
	assert.Equal(t, *seeded, *got)

	seeded.NumberCycles = 10
	require.NoError(t, repo.SaveExercise(ctx, seeded))

	list, err := repo.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(748), list[0].ID)
	assert.Equal(t, 10, list[0].NumberCycles)
	assert.Equal(t, "Cohérence", list[1].Name)
}

func TestSQLiteRepository_GetExerciseNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetExercise(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestSQLiteRepository_Logs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	e := &domain.Exercise{ID: 1, Name: "7-4-8", DurationInspiration: 7, DurationApnea: 4, DurationExpiration: 8, NumberCycles: 15}

	old := domain.NewExerciseLog("", "alice", e, domain.LogCompleted, base, base.Add(5*time.Minute))
	old.CyclesCompleted = 15
	recent := domain.NewExerciseLog("", "alice", e, domain.LogAbandoned, base.Add(24*time.Hour), base.Add(24*time.Hour+time.Minute))
	recent.CyclesCompleted = 2
	recent.PausedSeconds = 20
	other := domain.NewExerciseLog("", "bob", e, domain.LogCompleted, base, base.Add(time.Minute))

	for _, l := range []*domain.ExerciseLog{old, recent, other} {
		require.NoError(t, repo.SaveExerciseLog(ctx, l))
	}

	logs, err := repo.GetLogsByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, recent.ID, logs[0].ID)
	assert.Equal(t, domain.LogAbandoned, logs[0].Status)
	assert.Equal(t, 20, logs[0].PausedSeconds)
	assert.True(t, logs[0].StartedAt.Equal(recent.StartedAt))
	assert.Equal(t, old.ID, logs[1].ID)

	since, err := repo.GetRecentLogs(ctx, "alice", base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, recent.ID, since[0].ID)

	none, err := repo.GetLogsByUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRepository_LogStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	long := &domain.Exercise{ID: 1, Name: "7-4-8"}
	short := &domain.Exercise{ID: 2, Name: "5-5"}

	logs := []*domain.ExerciseLog{
		domain.NewExerciseLog("", "alice", long, domain.LogCompleted, base, base.Add(5*time.Minute)),
		domain.NewExerciseLog("", "alice", long, domain.LogAbandoned, base, base.Add(time.Minute)),
		domain.NewExerciseLog("", "alice", short, domain.LogCompleted, base, base.Add(2*time.Minute)),
		domain.NewExerciseLog("", "alice", long, domain.LogCompleted, base, base.Add(time.Minute)),
	}
	logs[1].PausedSeconds = 30
	for _, l := range logs {
		require.NoError(t, repo.SaveExerciseLog(ctx, l))
	}

	stats, err := repo.GetLogStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalSessions)
	assert.Equal(t, 3, stats.CompletedCount)
	assert.InDelta(t, 75.0, stats.CompletionRate, 0.001)
	assert.Equal(t, 300+30+120+60, stats.TotalBreathingSec)
	assert.Equal(t, "7-4-8", stats.FavouriteExercise)

	empty, err := repo.GetLogStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalSessions)
	assert.Zero(t, empty.CompletionRate)
	assert.Empty(t, empty.FavouriteExercise)
}
