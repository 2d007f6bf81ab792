package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/style-studio/backend/internal/models"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.duckdb"), Options{Threads: 1, MemoryLimit: "128MB"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(id, style string, kind models.MediaKind, status models.JobStatus, dur int64, at time.Time) models.HistoryRecord {
	return models.HistoryRecord{
		JobID:      id,
		Style:      style,
		Kind:       kind,
		InputSize:  1000,
		OutputSize: 800,
		DurationMs: dur,
		Status:     status,
		CreatedAt:  at,
	}
}

func TestStore_RecordAndStats(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, rec := range []models.HistoryRecord{
		record("1", "cartoon", models.MediaImage, models.JobStatusComplete, 100, base),
		record("2", "cartoon", models.MediaVideo, models.JobStatusComplete, 300, base.Add(time.Second)),
		record("3", "cartoon", models.MediaImage, models.JobStatusError, 200, base.Add(2*time.Second)),
		record("4", "sketch", models.MediaImage, models.JobStatusComplete, 50, base.Add(3*time.Second)),
	} {
		require.NoError(t, store.Record(ctx, rec))
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, models.StyleStats{
		Style:         "cartoon",
		Total:         3,
		Failed:        1,
		Videos:        1,
		AvgDurationMs: 200,
		BytesIn:       3000,
		BytesOut:      2400,
	}, stats[0])
	assert.Equal(t, "sketch", stats[1].Style)
	assert.Equal(t, int64(1), stats[1].Total)
}

func TestStore_Recent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.Record(ctx, record(id, "anime", models.MediaImage, models.JobStatusComplete, 10, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "new", recent[0].JobID)
	assert.Equal(t, "mid", recent[1].JobID)
	assert.Equal(t, models.MediaImage, recent[0].Kind)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestStore_RecordReplaces(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.Record(ctx, record("x", "ghibli", models.MediaImage, models.JobStatusError, 10, now)))
	require.NoError(t, store.Record(ctx, record("x", "ghibli", models.MediaImage, models.JobStatusComplete, 10, now)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Total)
	assert.Equal(t, int64(0), stats[0].Failed)
}

func TestStore_RecordJobListener(t *testing.T) {
	store := createTestStore(t)
	created := time.Now().Add(-2 * time.Second)
	done := time.Now()
	store.RecordJob(models.Job{
		ID:          "job-1",
		Style:       "watercolor",
		Kind:        models.MediaImage,
		Status:      models.JobStatusComplete,
		InputSize:   10,
		OutputSize:  20,
		CreatedAt:   created,
		CompletedAt: &done,
	})

	recent, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.GreaterOrEqual(t, recent[0].DurationMs, int64(1900))
}

func TestOpen_InMemory(t *testing.T) {
	store, err := Open("", Options{})
	require.NoError(t, err)
	defer store.Close()

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestOpen_MemoryLimit(t *testing.T) {
	for _, limit := range []string{"256MB", "1.5GB", "512 MiB", "1gb"} {
		store, err := Open("", Options{MemoryLimit: limit})
		require.NoError(t, err, limit)
		require.NoError(t, store.Close())
	}

	for _, limit := range []string{"256MB'; DROP TABLE jobs; --", "lots", "MB", "-1GB"} {
		_, err := Open("", Options{MemoryLimit: limit})
		assert.Error(t, err, limit)
	}
}
