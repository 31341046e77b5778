package commit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"records-manager/core/audit"
	"records-manager/core/database"
	"records-manager/core/reconcile"
	"records-manager/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type item struct {
	reconcile.SystemFields
	Code string `json:"code"`
	Name string `json:"name"`
}

type itemAdapter struct {
	natural bool
}

func (a itemAdapter) Kind() reconcile.EntityKind { return reconcile.KindStudent }

func (a itemAdapter) MatchKeys() []reconcile.MatchKey[*item] {
	return []reconcile.MatchKey[*item]{{Name: "code", Extract: func(r *item) string { return reconcile.Exact(r.Code) }}}
}

func (a itemAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (a itemAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.Resurrect }

func (a itemAdapter) Merge(in, ex *item) *item {
	out := *ex
	out.Name = reconcile.Overlay(in.Name, ex.Name)
	out.IsDeleted = false
	return &out
}

func (a itemAdapter) Prepare(in *item) *item {
	out := *in
	return &out
}

func (a itemAdapter) NaturalKey(r *item) string {
	if a.natural {
		return r.Code
	}
	return ""
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetAll(ctx context.Context, collection string, includeDeleted bool) ([]store.Document, error) {
	args := m.Called(ctx, collection, includeDeleted)
	return args.Get(0).([]store.Document), args.Error(1)
}

func (m *mockStore) GetByKey(ctx context.Context, collection, id string) (*store.Document, error) {
	args := m.Called(ctx, collection, id)
	doc, _ := args.Get(0).(*store.Document)
	return doc, args.Error(1)
}

func (m *mockStore) SetMany(ctx context.Context, collection, actor string, writes []store.Write) (store.WriteResult, error) {
	args := m.Called(ctx, collection, actor, writes)
	if fn, ok := args.Get(0).(func(context.Context, string, string, []store.Write) store.WriteResult); ok {
		return fn(ctx, collection, actor, writes), args.Error(1)
	}
	return args.Get(0).(store.WriteResult), args.Error(1)
}

func (m *mockStore) SoftDelete(ctx context.Context, collection, id, actor string) (*store.Document, error) {
	args := m.Called(ctx, collection, id, actor)
	doc, _ := args.Get(0).(*store.Document)
	return doc, args.Error(1)
}

func (m *mockStore) PurgeAll(ctx context.Context, collection string) (int64, error) {
	args := m.Called(ctx, collection)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Count(ctx context.Context, collection string) (int64, error) {
	args := m.Called(ctx, collection)
	return args.Get(0).(int64), args.Error(1)
}

func insertPlan(n int) *reconcile.Plan[*item] {
	batch := make([]*item, n)
	for i := range batch {
		batch[i] = &item{Code: fmt.Sprintf("C%04d", i), Name: "n"}
	}
	return reconcile.BuildPlan[*item](itemAdapter{}, batch, nil)
}

func okResult(writes []store.Write) store.WriteResult {
	ids := make([]string, len(writes))
	for i := range writes {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return store.WriteResult{IDs: ids}
}

func TestCommit_Chunking(t *testing.T) {
	ms := new(mockStore)
	var sizes []int
	ms.On("SetMany", mock.Anything, "graduate_students", "alice", mock.Anything).
		Return(func(ctx context.Context, c, a string, w []store.Write) store.WriteResult {
			sizes = append(sizes, len(w))
			return okResult(w)
		}, nil)

	exec := NewExecutor(ms, nil, Config{}, zap.NewNop())
	assert.Equal(t, MaxChunkSize, exec.ChunkSize())

	var progress [][2]int
	res, err := Commit(context.Background(), exec, reconcile.Adapter[*item](itemAdapter{}), insertPlan(1200), Options{
		Actor:   "alice",
		OnChunk: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	require.NoError(t, err)

	assert.Equal(t, []int{500, 500, 200}, sizes)
	assert.Equal(t, 1200, res.Inserted)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, [][2]int{{500, 1200}, {1000, 1200}, {1200, 1200}}, progress)
}

func TestCommit_ChunkSizeClamp(t *testing.T) {
	assert.Equal(t, 500, Config{ChunkSize: 10000}.chunkSize())
	assert.Equal(t, 50, Config{ChunkSize: 50}.chunkSize())
	assert.Equal(t, 500, Config{ChunkSize: -1}.chunkSize())
}

func TestCommit_CancelledBetweenChunks(t *testing.T) {
	ms := new(mockStore)
	ms.On("SetMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(ctx context.Context, c, a string, w []store.Write) store.WriteResult { return okResult(w) }, nil)

	_, sink := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	exec := NewExecutor(ms, audit.NewRecorder(sink, zap.NewNop()), Config{ChunkSize: 10}, zap.NewNop())

	res, err := Commit(ctx, exec, reconcile.Adapter[*item](itemAdapter{}), insertPlan(25), Options{
		Actor:   "alice",
		OnChunk: func(done, total int) { cancel() },
	})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 10, res.Inserted)
	ms.AssertNumberOfCalls(t, "SetMany", 1)

	entries, err := sink.Recent(context.Background(), audit.Filter{Collection: "graduate_students"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusFailure, entries[0].Status)
	assert.Equal(t, "alice", entries[0].Actor)
	assert.Contains(t, entries[0].ErrorMessage, "after 10 of 25 writes")
	assert.Contains(t, string(entries[0].Details), `"new_count":10`)
	assert.Contains(t, string(entries[0].Details), `"planned_new":25`)
}

func TestCommit_ChunkFailure(t *testing.T) {
	ms := new(mockStore)
	ms.On("SetMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(ctx context.Context, c, a string, w []store.Write) store.WriteResult { return okResult(w) }, nil).Once()
	ms.On("SetMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(store.WriteResult{}, errors.New("deadline exceeded")).Once()

	_, sink := setup(t)
	exec := NewExecutor(ms, audit.NewRecorder(sink, zap.NewNop()), Config{ChunkSize: 5}, zap.NewNop())
	res, err := Commit(context.Background(), exec, reconcile.Adapter[*item](itemAdapter{}), insertPlan(12), Options{
		AuditDetails: map[string]any{"source": "backup.json"},
	})
	assert.ErrorContains(t, err, "chunk 2")
	assert.Equal(t, 5, res.Inserted)

	entries, err := sink.Recent(context.Background(), audit.Filter{Collection: "graduate_students"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.StatusFailure, entries[0].Status)
	assert.Contains(t, entries[0].ErrorMessage, "deadline exceeded")
	assert.Contains(t, string(entries[0].Details), `"new_count":5`)
	assert.Contains(t, string(entries[0].Details), `"chunks":1`)
	assert.Contains(t, string(entries[0].Details), `"source":"backup.json"`)
}

func setup(t *testing.T) (*store.GormStore, *audit.GormSink) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	s := store.NewGormStore(db)
	require.NoError(t, s.Migrate())
	sink := audit.NewGormSink(db)
	require.NoError(t, sink.Migrate())
	return s, sink
}

func TestCommit_EndToEnd(t *testing.T) {
	ctx := context.Background()
	s, sink := setup(t)
	repo := store.NewRepository[item](s, reconcile.KindStudent)
	exec := NewExecutor(s, audit.NewRecorder(sink, zap.NewNop()), Config{}, zap.NewNop())
	adapter := itemAdapter{natural: true}

	batch := []*item{{Code: "S1", Name: "one"}, {Code: "S2", Name: "two"}}

	plan := reconcile.BuildPlan[*item](adapter, batch, nil)
	res, err := Commit(ctx, exec, reconcile.Adapter[*item](adapter), plan, Options{Actor: "alice", Provenance: reconcile.ProvenanceJSON})
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2"}, res.InsertedIDs)

	// Second run against the post-commit store writes no new records.
	existing, err := repo.All(ctx, true)
	require.NoError(t, err)
	again := reconcile.BuildPlan[*item](adapter, batch, existing)
	assert.Empty(t, again.Inserts)
	require.Len(t, again.Updates, 2)
	for _, u := range again.Updates {
		assert.Empty(t, u.Changed)
	}
	_, err = Commit(ctx, exec, reconcile.Adapter[*item](adapter), again, Options{Actor: "alice"})
	require.NoError(t, err)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stored, err := repo.Get(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, reconcile.ProvenanceJSON, stored.Provenance)

	entries, err := sink.Recent(ctx, audit.Filter{Collection: "graduate_students"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionImport, entries[0].Action)
	assert.Equal(t, "alice", entries[0].Actor)
}

func TestCommit_MissingTargetIsPartial(t *testing.T) {
	ctx := context.Background()
	s, _ := setup(t)
	repo := store.NewRepository[item](s, reconcile.KindStudent)

	a, err := repo.Create(ctx, "alice", "", &item{Code: "S1", Name: "one"})
	require.NoError(t, err)
	b, err := repo.Create(ctx, "alice", "", &item{Code: "S2", Name: "two"})
	require.NoError(t, err)

	existing, err := repo.All(ctx, true)
	require.NoError(t, err)
	plan := reconcile.BuildPlan[*item](itemAdapter{}, []*item{{Code: "S1", Name: "uno"}, {Code: "S2", Name: "dos"}}, existing)
	require.Len(t, plan.Updates, 2)

	// S2 disappears between planning and commit.
	_, err = s.PurgeAll(ctx, "graduate_students")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "alice", a.ID, a)
	require.NoError(t, err)

	exec := NewExecutor(s, nil, Config{}, zap.NewNop())
	res, err := Commit(ctx, exec, reconcile.Adapter[*item](itemAdapter{}), plan, Options{Actor: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, b.ID, res.Failures[0].ID)
	assert.ErrorIs(t, res.Failures[0], ErrPartialCommit)
	assert.True(t, res.Failures[0].Retryable())

	got, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Name)
}
