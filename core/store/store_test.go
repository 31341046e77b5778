package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"records-manager/core/database"
	"records-manager/core/reconcile"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type widget struct {
	reconcile.SystemFields
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   ":memory:",
	})
	require.NoError(t, err)

	s := NewGormStore(db)
	require.NoError(t, s.Migrate())
	return s
}

func TestGormStore_SetMany(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates with generated and natural keys", func(t *testing.T) {
		s := setupStore(t)
		res, err := s.SetMany(ctx, "widgets", "alice", []Write{
			{Fields: map[string]any{"code": "A"}, Provenance: "manual"},
			{Key: "B-1", Fields: map[string]any{"code": "B"}},
		})
		require.NoError(t, err)
		require.Equal(t, 2, res.Applied())
		assert.Len(t, res.IDs[0], 36)
		assert.Equal(t, "B-1", res.IDs[1])

		doc, err := s.GetByKey(ctx, "widgets", res.IDs[0])
		require.NoError(t, err)
		assert.Equal(t, "alice", doc.CreatedBy)
		assert.Equal(t, "manual", doc.Provenance)
		assert.JSONEq(t, `{"code":"A"}`, string(doc.Body))
	})

	t.Run("Natural key upsert converges", func(t *testing.T) {
		s := setupStore(t)
		for i := 0; i < 2; i++ {
			_, err := s.SetMany(ctx, "widgets", "alice", []Write{{Key: "S1", Fields: map[string]any{"name": fmt.Sprint("v", i)}}})
			require.NoError(t, err)
		}
		docs, err := s.GetAll(ctx, "widgets", true)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.JSONEq(t, `{"name":"v1"}`, string(docs[0].Body))
	})

	t.Run("Patch merges fields and reports missing targets", func(t *testing.T) {
		s := setupStore(t)
		_, err := s.SetMany(ctx, "widgets", "alice", []Write{{Key: "W1", Fields: map[string]any{"code": "A", "name": "old"}}})
		require.NoError(t, err)

		res, err := s.SetMany(ctx, "widgets", "bob", []Write{
			{Key: "W1", Patch: true, Fields: map[string]any{"name": "new", "id": "hijack"}},
			{Key: "gone", Patch: true, Fields: map[string]any{"name": "x"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"W1"}, res.IDs)
		assert.Equal(t, []string{"gone"}, res.Missing)

		doc, err := s.GetByKey(ctx, "widgets", "W1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"code":"A","name":"new"}`, string(doc.Body))
		assert.Equal(t, "bob", doc.UpdatedBy)
		assert.Equal(t, "alice", doc.CreatedBy)
	})

	t.Run("Restore clears soft delete", func(t *testing.T) {
		s := setupStore(t)
		_, err := s.SetMany(ctx, "widgets", "alice", []Write{{Key: "W1", Fields: map[string]any{"code": "A"}}})
		require.NoError(t, err)
		_, err = s.SoftDelete(ctx, "widgets", "W1", "alice")
		require.NoError(t, err)

		n, err := s.Count(ctx, "widgets")
		require.NoError(t, err)
		assert.Zero(t, n)

		_, err = s.SetMany(ctx, "widgets", "alice", []Write{{Key: "W1", Patch: true, Restore: true, Fields: map[string]any{"code": "A"}}})
		require.NoError(t, err)
		live, err := s.GetAll(ctx, "widgets", false)
		require.NoError(t, err)
		assert.Len(t, live, 1)
	})
}

func TestGormStore_SetManyIsAtomic(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `documents`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `documents`").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	s := NewGormStore(db)
	_, err = s.SetMany(context.Background(), "widgets", "alice", []Write{
		{Fields: map[string]any{"code": "A"}},
		{Fields: map[string]any{"code": "B"}},
	})
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_PurgeAll(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	_, err := s.SetMany(ctx, "widgets", "a", []Write{{Fields: map[string]any{}}, {Fields: map[string]any{}}})
	require.NoError(t, err)
	_, err = s.SetMany(ctx, "other", "a", []Write{{Fields: map[string]any{}}})
	require.NoError(t, err)

	n, err := s.PurgeAll(ctx, "widgets")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := s.Count(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, int64(1), left)
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) }
	repo := NewRepository[widget](s, reconcile.KindAdvisor)

	created, err := repo.Create(ctx, "alice", "", &widget{Code: "A", Name: "first", Count: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Count)
	assert.Equal(t, "alice", created.CreatedBy)

	patched, err := repo.Patch(ctx, "bob", created.ID, map[string]any{"name": "second"})
	require.NoError(t, err)
	assert.Equal(t, "second", patched.Name)
	assert.Equal(t, "A", patched.Code)

	_, err = repo.Patch(ctx, "bob", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	deleted, err := repo.Delete(ctx, "bob", created.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)

	live, err := repo.All(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, live)

	all, err := repo.All(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsDeleted)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
