package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jjudge-oj/imageforms/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type repository interface {
	List(ctx context.Context, collection string) ([]types.StoredRecord, error)
	Get(ctx context.Context, collection, id string) (types.StoredRecord, error)
	Create(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error)
	Update(ctx context.Context, rec types.StoredRecord) (types.StoredRecord, error)
	Delete(ctx context.Context, collection, id string) error
}

func repositories(t *testing.T) map[string]repository {
	t.Helper()
	sqliteRepo, err := NewSQLiteRecordRepository(
		GetSqliteDialector(filepath.Join(t.TempDir(), "records.db")), logger.Silent,
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteRepo.Close() })

	return map[string]repository{
		"memory": NewMemoryRecordRepository(),
		"sqlite": sqliteRepo,
	}
}

func TestRecordRepositoryLifecycle(t *testing.T) {
	for name, repo := range repositories(t) {
		repo := repo
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for _, id := range []string{"c", "a", "b"} {
				_, err := repo.Create(ctx, types.StoredRecord{
					ID:           id,
					Collection:   "multiple",
					Name:         "name-" + id,
					Email:        id + "@x.com",
					PasswordHash: "hash",
					ImageKeys:    []string{"k-" + id},
				})
				require.NoError(t, err)
			}
			_, err := repo.Create(ctx, types.StoredRecord{ID: "z", Collection: "single", Name: "z", Email: "z@x.com"})
			require.NoError(t, err)

			list, err := repo.List(ctx, "multiple")
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "c", list[0].ID)
			assert.Equal(t, "a", list[1].ID)
			assert.Equal(t, "b", list[2].ID)
			assert.Equal(t, []string{"k-a"}, list[1].ImageKeys)

			got, err := repo.Get(ctx, "multiple", "a")
			require.NoError(t, err)
			assert.Equal(t, "name-a", got.Name)
			assert.Equal(t, "hash", got.PasswordHash)
			assert.False(t, got.CreatedAt.IsZero())

			_, err = repo.Get(ctx, "single", "a")
			assert.ErrorIs(t, err, ErrNotFound)

			got.Name = "renamed"
			got.Content = []string{"one", "two"}
			updated, err := repo.Update(ctx, got)
			require.NoError(t, err)
			assert.Equal(t, "renamed", updated.Name)

			again, err := repo.Get(ctx, "multiple", "a")
			require.NoError(t, err)
			assert.Equal(t, "renamed", again.Name)
			assert.Equal(t, []string{"one", "two"}, again.Content)

			list, err = repo.List(ctx, "multiple")
			require.NoError(t, err)
			assert.Equal(t, "a", list[1].ID, "update keeps position")

			_, err = repo.Update(ctx, types.StoredRecord{ID: "missing", Collection: "multiple"})
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, repo.Delete(ctx, "multiple", "a"))
			assert.ErrorIs(t, repo.Delete(ctx, "multiple", "a"), ErrNotFound)

			list, err = repo.List(ctx, "multiple")
			require.NoError(t, err)
			assert.Len(t, list, 2)

			empty, err := repo.List(ctx, "content")
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)
		})
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRecordRepository()
	_, err := repo.Create(ctx, types.StoredRecord{ID: "a", Collection: "content", Content: []string{"x"}})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "content", "a")
	require.NoError(t, err)
	got.Content[0] = "mutated"

	again, err := repo.Get(ctx, "content", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, again.Content)
}
