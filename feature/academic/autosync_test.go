package academic

import (
	"context"
	"sync"
	"testing"

	"records-manager/core/fetch"
	"records-manager/core/reconcile"
	"records-manager/core/session"
	"records-manager/feature/research/scopus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthors serves results per rendered query; queries in fail answer 503.
type fakeAuthors struct {
	mu      sync.Mutex
	results map[string][]scopus.Publication
	fail    map[string]bool
	queries []string
}

func (f *fakeAuthors) Search(ctx context.Context, s scopus.Search, start, count int) (*scopus.Result, error) {
	q, err := s.Build()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.fail[q] {
		return nil, &scopus.APIError{Status: 503, Body: "unavailable"}
	}
	pubs := f.results[q]
	res := &scopus.Result{Query: q, Start: start, Total: len(pubs)}
	if start < len(pubs) {
		res.Entries = pubs[start:min(start+count, len(pubs))]
	}
	return res, nil
}

func (f *fakeAuthors) Pages(s scopus.Search) fetch.PageFunc[scopus.Publication] {
	return func(ctx context.Context, offset, pageSize int) (fetch.Page[scopus.Publication], error) {
		res, err := f.Search(ctx, s, offset, pageSize)
		if err != nil {
			return fetch.Page[scopus.Publication]{}, err
		}
		return fetch.Page[scopus.Publication]{Items: res.Entries, Total: res.Total}, nil
	}
}

func (f *fakeAuthors) PageSize() int { return 2 }
func (f *fakeAuthors) Ceiling() int  { return 1000 }

func advisorScopus() *fakeAuthors {
	return &fakeAuthors{
		results: map[string][]scopus.Publication{
			"AU-ID(111)": {
				{EID: "E-1", Title: "Canine Parvovirus Survey", Subtype: "Article", CoverDate: "2022-02-01"},
				{EID: "E-2", Title: "Feline Study", Subtype: "Article", CoverDate: "2023-05-01", Journal: "Vet J",
					Volume: "12", Issue: "3", PageRange: "1-9", Authors: "Somchai J., Rak S."},
				{EID: "E-3", Title: "Review of Zoonoses", Subtype: "Review", CoverDate: "2024-01-01"},
			},
			"AUTHOR-NAME(Rak, Suda) AND AFFIL(Kasetsart)": {
				{EID: "E-2", Title: "Feline Study", Subtype: "Article", CoverDate: "2023-05-01"},
			},
		},
		fail: map[string]bool{"AU-ID(999)": true},
	}
}

func seedAdvisors(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	for _, a := range []*Advisor{
		{AdvisorID: "A1", FullName: "Dr. Somchai", ScopusID: "111"},
		{AdvisorID: "A2", FullName: "Dr. Suda", FirstName: "Suda", LastName: "Rak"},
		{AdvisorID: "A3", FullName: "Dr. Nobody"},
		{AdvisorID: "A4", FullName: "Dr. Broken", ScopusID: "999"},
	} {
		_, err := env.svc.advisors.Create(ctx, "seed", a.AdvisorID, a)
		require.NoError(t, err)
	}
	_, err := env.svc.publications.Create(ctx, "seed", "", &Publication{StudentID: "A1", Title: "canine parvovirus survey"})
	require.NoError(t, err)
}

func peopleByID(out *AutoSyncOutcome) map[string]PersonResult {
	m := make(map[string]PersonResult, len(out.People))
	for _, p := range out.People {
		m[p.ID] = p
	}
	return m
}

func TestService_AutoSyncAdvisors(t *testing.T) {
	ctx := context.Background()
	api := advisorScopus()
	env := setupSearchService(t, nil, api)
	seedAdvisors(t, env)

	out, err := env.svc.AutoSync(ctx, "alice", "advisors")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseCompleted, out.Session.Phase())

	people := peopleByID(out)
	require.Len(t, people, 4)
	assert.Equal(t, PersonResult{ID: "A1", Name: "Dr. Somchai", Query: "AU-ID(111)", Status: PersonSynced, Found: 3, Added: 2}, people["A1"])
	assert.Equal(t, PersonSynced, people["A2"].Status)
	assert.Equal(t, "AUTHOR-NAME(Rak, Suda) AND AFFIL(Kasetsart)", people["A2"].Query)
	assert.Equal(t, 1, people["A2"].Added)
	assert.Equal(t, PersonSkipped, people["A3"].Status)
	assert.Equal(t, PersonFailed, people["A4"].Status)
	assert.Contains(t, people["A4"].Error, "503")

	require.NotNil(t, out.Summary)
	assert.Equal(t, SummaryKindAutoSync, out.Summary.Kind)
	assert.Equal(t, 4, out.Summary.TotalFetched)
	assert.Equal(t, 3, out.Summary.NewCount)
	assert.Equal(t, 1, out.Summary.SkipCount)
	ps := out.Publications.Plan
	assert.True(t, ps.New+ps.Updated+ps.Skipped+ps.Rejected == ps.Total)
	assert.Equal(t, 3, out.Publications.Commit.Inserted)
	assert.Equal(t, "People searched: 2, skipped 1, failed 1", out.Lines[1])

	var warned []string
	for _, e := range out.Session.Events() {
		if e.Level == session.LevelWarn {
			warned = append(warned, e.Message)
		}
	}
	assert.Len(t, warned, 2)

	pubs, err := env.svc.publications.All(ctx, false)
	require.NoError(t, err)
	require.Len(t, pubs, 4)
	var feline *Publication
	for _, p := range pubs {
		switch {
		case p.StudentID == "A1" && p.Title == "Feline Study":
			feline = p
		case p.Title == "Review of Zoonoses":
			assert.Equal(t, "Other", p.PublicationType)
		}
	}
	require.NotNil(t, feline)
	assert.Equal(t, "Journal", feline.PublicationType)
	assert.Equal(t, SourceScopus, feline.DatabaseSource)
	assert.Equal(t, 2023, feline.Year)
	assert.Equal(t, "Vet J", feline.JournalName)
	assert.Equal(t, "12", feline.Volume)
	assert.Equal(t, "3", feline.Issue)
	assert.Equal(t, "1-9", feline.Pages)
	assert.Equal(t, []string{"Somchai J.", "Rak S."}, feline.Authors)
	assert.Equal(t, reconcile.ProvenanceExternal, feline.Provenance)

	history, err := env.svc.AutoSyncHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "alice", history[0].User)
	assert.Equal(t, "advisors", history[0].Query)
}

func TestService_AutoSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := setupSearchService(t, nil, advisorScopus())
	seedAdvisors(t, env)

	_, err := env.svc.AutoSync(ctx, "alice", "advisors")
	require.NoError(t, err)
	out, err := env.svc.AutoSync(ctx, "alice", "advisors")
	require.NoError(t, err)

	assert.Equal(t, 0, out.Summary.NewCount)
	assert.Equal(t, 4, out.Summary.SkipCount)
	for _, p := range out.People {
		assert.Zero(t, p.Added, p.ID)
	}
	pubs, err := env.svc.publications.All(ctx, false)
	require.NoError(t, err)
	assert.Len(t, pubs, 4)
}

func TestService_AutoSyncStudents(t *testing.T) {
	ctx := context.Background()
	api := &fakeAuthors{results: map[string][]scopus.Publication{
		"AUTHOR-NAME(Jaidee, Somchai) AND AFFIL(Kasetsart)": {
			{EID: "E-9", Title: "Duck Influenza", Subtype: "Article", CoverDate: "2024-03-01"},
		},
	}}
	env := setupSearchService(t, nil, api)
	_, err := env.svc.students.Create(ctx, "seed", "6401", &Student{StudentID: "6401", FullNameTH: "สมชาย ใจดี", FirstNameEN: "Somchai", LastNameEN: "Jaidee"})
	require.NoError(t, err)

	out, err := env.svc.AutoSync(ctx, "alice", "students")
	require.NoError(t, err)
	require.Len(t, out.People, 1)
	assert.Equal(t, 1, out.People[0].Added)

	pubs, err := env.svc.publications.All(ctx, false)
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, "6401", pubs[0].StudentID)
	assert.Equal(t, 2024, pubs[0].Year)
}

func TestService_AutoSyncRejectsRequest(t *testing.T) {
	ctx := context.Background()

	_, err := setupService(t, nil).svc.AutoSync(ctx, "alice", "advisors")
	assert.ErrorIs(t, err, ErrAutoSyncDisabled)

	env := setupSearchService(t, nil, advisorScopus())
	_, err = env.svc.AutoSync(ctx, "alice", "publications")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestService_AutoSyncCancelled(t *testing.T) {
	api := advisorScopus()
	env := setupSearchService(t, nil, api)
	seedAdvisors(t, env)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := env.svc.AutoSync(ctx, "alice", "advisors")
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Equal(t, session.PhaseFailed, out.Session.Phase())

	pubs, err := env.svc.publications.All(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, pubs, 1)
	assert.Empty(t, api.queries)
}
