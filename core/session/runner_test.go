package session

import (
	"context"
	"errors"
	"testing"

	"records-manager/core/audit"
	"records-manager/core/commit"
	"records-manager/core/database"
	"records-manager/core/fetch"
	"records-manager/core/reconcile"
	"records-manager/core/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type paper struct {
	reconcile.SystemFields
	EID   string `json:"eid"`
	Title string `json:"title" validate:"notblank"`
	Note  string `json:"note"`
}

type paperAdapter struct{}

func (paperAdapter) Kind() reconcile.EntityKind { return reconcile.KindResearch }

func (paperAdapter) MatchKeys() []reconcile.MatchKey[*paper] {
	return []reconcile.MatchKey[*paper]{{Name: "eid", Extract: func(p *paper) string { return reconcile.Exact(p.EID) }}}
}

func (paperAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (paperAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.TreatAsNew }

func (paperAdapter) Merge(in, ex *paper) *paper {
	out := *ex
	out.Title = in.Title
	out.Note = reconcile.Overlay(in.Note, ex.Note)
	return &out
}

func (paperAdapter) Prepare(in *paper) *paper {
	out := *in
	out.Note = reconcile.Default(in.Note, "Imported via Bulk Sync")
	return &out
}

func (paperAdapter) NaturalKey(*paper) string { return "" }

type mockDiagnostics struct {
	mock.Mock
}

func (m *mockDiagnostics) Save(ctx context.Context, s *Session) (string, error) {
	args := m.Called(ctx, s)
	return args.String(0), args.Error(1)
}

type fixture struct {
	runner    *Runner
	repo      *store.Repository[paper, *paper]
	summaries *GormSummaryStore
	sink      *MemorySink
	diag      *mockDiagnostics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	docs := store.NewGormStore(db)
	require.NoError(t, docs.Migrate())
	auditSink := audit.NewGormSink(db)
	require.NoError(t, auditSink.Migrate())
	summaries := NewGormSummaryStore(db)
	require.NoError(t, summaries.Migrate())

	exec := commit.NewExecutor(docs, audit.NewRecorder(auditSink, zap.NewNop()), commit.Config{}, zap.NewNop())
	sink := NewMemorySink()
	diag := &mockDiagnostics{}
	return &fixture{
		runner:    NewRunner(exec, summaries, sink, diag, zap.NewNop()),
		repo:      store.NewRepository[paper](docs, reconcile.KindResearch),
		summaries: summaries,
		sink:      sink,
		diag:      diag,
	}
}

func (f *fixture) job(fetchFn func(ctx context.Context, s *Session) ([]*paper, error)) Job[*paper] {
	return Job[*paper]{
		Adapter:    paperAdapter{},
		Params:     Params{Kind: reconcile.KindResearch, Scope: "vet", Year: "2024", Query: "AF-ID(60021944)"},
		Provenance: reconcile.ProvenanceExternal,
		Fetch:      fetchFn,
		Existing: func(ctx context.Context) ([]*paper, error) {
			return f.repo.All(ctx, false)
		},
	}
}

// pagedAPI serves papers EID-0..EID-(total-1); failAt forces an error on that call.
func pagedAPI(total, failAt int) (fetch.PageFunc[*paper], *int) {
	calls := 0
	return func(ctx context.Context, offset, size int) (fetch.Page[*paper], error) {
		calls++
		if calls == failAt {
			return fetch.Page[*paper]{}, errors.New("connection reset")
		}
		var items []*paper
		for i := offset; i < min(offset+size, total); i++ {
			items = append(items, &paper{EID: "EID-" + string(rune('A'+i/26)) + string(rune('a'+i%26)), Title: "Paper"})
		}
		return fetch.Page[*paper]{Items: items, Total: total}, nil
	}, &calls
}

func bulkFetch(pages fetch.PageFunc[*paper], expected int) func(ctx context.Context, s *Session) ([]*paper, error) {
	return func(ctx context.Context, s *Session) ([]*paper, error) {
		c := fetch.New(pages, fetch.Options{
			OnPage: func(e fetch.PageEvent) {
				s.Progress(ctx, 5+35*e.Accumulated/max(e.Expected, 1), "page fetched")
			},
		})
		return c.FetchAll(ctx, expected)
	}
}

func TestRun_Completed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	existing, err := f.repo.Create(ctx, "alice", "", &paper{EID: "EID-Aa", Title: "Old", Note: "curated"})
	require.NoError(t, err)

	pages, calls := pagedAPI(60, 0)
	s := f.runner.Start("vet", "alice")
	out, err := Run(ctx, f.runner, s, f.job(bulkFetch(pages, 60)))
	require.NoError(t, err)
	assert.Equal(t, 3, *calls)

	assert.Equal(t, PhaseCompleted, s.Phase())
	assert.Equal(t, 100, s.Percent())
	require.NotNil(t, out.Summary)
	assert.Equal(t, 60, out.Summary.TotalFetched)
	assert.Equal(t, 59, out.Summary.NewCount)
	assert.Equal(t, 1, out.Summary.UpdateCount)
	assert.Equal(t, "alice", out.Summary.User)
	assert.Equal(t, "AF-ID(60021944)", out.Summary.Query)

	history, err := f.runner.History(ctx, reconcile.KindResearch, 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	got, err := f.repo.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paper", got.Title)
	assert.Equal(t, "curated", got.Note)

	var phases []Phase
	events, err := f.runner.Replay(ctx, s.ID)
	require.NoError(t, err)
	for i, e := range events {
		if i == 0 || events[i-1].Phase != e.Phase {
			phases = append(phases, e.Phase)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, e.Percent, events[i-1].Percent)
		}
	}
	assert.Equal(t, []Phase{PhaseFetching, PhaseReconciling, PhaseCommitting, PhaseCompleted}, phases)
	f.diag.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	// A second identical run inserts nothing.
	pages, _ = pagedAPI(60, 0)
	again, err := Run(ctx, f.runner, f.runner.Start("vet", "alice"), f.job(bulkFetch(pages, 60)))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Summary.NewCount)
	assert.Equal(t, 60, again.Summary.UpdateCount)
}

func TestRun_TransportFailureLeavesNoSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.diag.On("Save", mock.Anything, mock.Anything).Return("diagnostics/sync/x.json", nil)

	pages, calls := pagedAPI(60, 2)
	s := f.runner.Start("vet", "alice")
	out, err := Run(ctx, f.runner, s, f.job(bulkFetch(pages, 60)))
	require.Error(t, err)
	assert.ErrorIs(t, err, fetch.ErrTransport)
	assert.Equal(t, 2, *calls)

	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Nil(t, out.Summary)
	assert.Equal(t, "diagnostics/sync/x.json", out.DiagnosticKey)

	history, err := f.summaries.Recent(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, history)

	events, err := f.sink.Replay(ctx, s.ID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, LevelError, events[len(events)-1].Level)

	n, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "nothing is committed when fetching fails")
	f.diag.AssertExpectations(t)
}

func TestRun_SingleRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	one := func(ctx context.Context, s *Session) ([]*paper, error) {
		return []*paper{{EID: "2-s2.0-1", Title: "Single"}}, nil
	}
	out, err := Run(ctx, f.runner, f.runner.Start("Single Import", "alice"), f.job(one))
	require.NoError(t, err)
	assert.Equal(t, 1, out.Summary.TotalFetched)
	assert.Equal(t, 1, out.Summary.NewCount)
	assert.Equal(t, 0, out.Summary.UpdateCount)

	out, err = Run(ctx, f.runner, f.runner.Start("Single Update", "alice"), f.job(one))
	require.NoError(t, err)
	assert.Equal(t, 0, out.Summary.NewCount)
	assert.Equal(t, 1, out.Summary.UpdateCount)
}

func TestRun_CancelledBeforeCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(t)
	f.diag.On("Save", mock.Anything, mock.Anything).Return("", errors.New("bucket missing"))

	job := f.job(func(ctx context.Context, s *Session) ([]*paper, error) {
		return []*paper{{EID: "E1", Title: "T"}}, nil
	})
	job.Existing = func(context.Context) ([]*paper, error) {
		recs, err := f.repo.All(context.Background(), false)
		cancel()
		return recs, err
	}
	s := f.runner.Start("vet", "alice")
	out, err := Run(ctx, f.runner, s, job)
	assert.ErrorIs(t, err, commit.ErrCancelled)
	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Empty(t, out.DiagnosticKey)

	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunner_Tracking(t *testing.T) {
	f := newFixture(t)
	first := f.runner.Start("a", "alice")
	for i := 0; i < maxTracked; i++ {
		f.runner.Start("b", "bob")
	}
	_, ok := f.runner.Session(first.ID)
	assert.False(t, ok, "oldest sessions are evicted")
}

func TestRun_SummaryKeepsPlanCountsOnPartialCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	job := f.job(func(ctx context.Context, s *Session) ([]*paper, error) {
		return []*paper{{EID: "E-1", Title: "Updated"}, {EID: "E-2", Title: "New"}}, nil
	})
	// The snapshot still lists a record that is gone by commit time.
	job.Existing = func(ctx context.Context) ([]*paper, error) {
		return []*paper{{SystemFields: reconcile.SystemFields{ID: "ghost"}, EID: "E-1", Title: "Old"}}, nil
	}

	out, err := Run(ctx, f.runner, f.runner.Start("vet", "alice"), job)
	require.NoError(t, err)
	require.Len(t, out.Commit.Failures, 1)
	assert.Equal(t, 1, out.Commit.Inserted)
	assert.Zero(t, out.Commit.Updated)

	sum := out.Summary
	require.NotNil(t, sum)
	assert.Equal(t, 1, sum.NewCount)
	assert.Equal(t, 1, sum.UpdateCount)
	assert.Equal(t, sum.TotalFetched, sum.NewCount+sum.UpdateCount+sum.SkipCount)
	assert.Contains(t, string(sum.Details), `"failed":1`)
	assert.Contains(t, string(sum.Details), `"updated":0`)
}
