package academic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"records-manager/core/commit"
	"records-manager/core/fetch"
	"records-manager/core/reconcile"
	"records-manager/core/session"
	"records-manager/core/utils"
	"records-manager/feature/research/scopus"

	"go.uber.org/zap"
)

// Scopus auto-sync run identity, stored on the run summary.
const (
	SummaryKindAutoSync = "academic_autosync"
	ScopeAutoSync       = "Scopus Auto Sync"
)

// SourceScopus is the database_source of auto-synced publications.
const SourceScopus = "Scopus"

// nameAffiliation scopes author name searches to the university.
const nameAffiliation = "Kasetsart"

// Per-person auto-sync results.
const (
	PersonSynced  = "synced"
	PersonSkipped = "skipped"
	PersonFailed  = "failed"
)

// ErrAutoSyncDisabled is returned when no Scopus client is configured.
var ErrAutoSyncDisabled = errors.New("scopus auto-sync is not configured")

// AuthorSearcher is the part of the Scopus client the auto-sync uses.
type AuthorSearcher interface {
	Search(ctx context.Context, s scopus.Search, start, count int) (*scopus.Result, error)
	Pages(s scopus.Search) fetch.PageFunc[scopus.Publication]
	PageSize() int
	Ceiling() int
}

// PersonResult is what the auto-sync did for one student or advisor.
type PersonResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Query  string `json:"query,omitempty"`
	Status string `json:"status"`
	Found  int    `json:"found"`
	Added  int    `json:"added"`
	Error  string `json:"error,omitempty"`
}

// AutoSyncOutcome is the result of one auto-sync. On failure it holds whatever was reached.
type AutoSyncOutcome struct {
	Session       *session.Session `json:"-"`
	SessionID     string           `json:"session_id"`
	Kind          string           `json:"kind"`
	Summary       *session.Summary `json:"summary,omitempty"`
	People        []PersonResult   `json:"people"`
	Publications  KindResult       `json:"publications"`
	Lines         []string         `json:"lines"`
	DiagnosticKey string           `json:"diagnostic_key,omitempty"`
}

// author is a student or advisor whose publications are looked up.
type author struct {
	id       string
	name     string
	scopusID string
	first    string
	last     string
}

// search picks the author's Scopus id, then the English name within the
// university. It reports false when neither is known.
func (a author) search() (scopus.Search, bool) {
	if id := strings.TrimSpace(a.scopusID); id != "" {
		return scopus.Search{AuthorID: id}, true
	}
	first, last := strings.TrimSpace(a.first), strings.TrimSpace(a.last)
	if first == "" || last == "" {
		return scopus.Search{}, false
	}
	return scopus.Search{
		Query: fmt.Sprintf("AUTHOR-NAME(%s, %s) AND AFFIL(%s)", last, first, nameAffiliation),
	}, true
}

// AutoSync looks up the Scopus publications of every student or advisor and
// adds the ones they do not have yet, in one session. A person without a
// Scopus id or English name is skipped; a failed lookup is logged and the run
// continues with the next person.
func (s *Service) AutoSync(ctx context.Context, actor, name string) (*AutoSyncOutcome, error) {
	if s.scopus == nil {
		return nil, ErrAutoSyncDisabled
	}
	kind, err := managedKind(name)
	if err != nil {
		return nil, err
	}
	if kind != reconcile.KindStudent && kind != reconcile.KindAdvisor {
		return nil, fmt.Errorf("%w: auto-sync runs for students or advisors, not %s", ErrUnsupportedKind, kind)
	}

	sess := s.runner.Start(ScopeAutoSync, actor)
	out := &AutoSyncOutcome{Session: sess, SessionID: sess.ID, Kind: string(kind)}
	if err := s.autoSync(ctx, sess, kind, out); err != nil {
		out.DiagnosticKey = s.runner.Abort(ctx, sess, err)
		return out, err
	}
	s.logger.Info("Scopus auto-sync completed",
		zap.String("session_id", sess.ID),
		zap.String("kind", string(kind)),
		zap.Int("people", len(out.People)),
		zap.Int("new", out.Summary.NewCount),
	)
	return out, nil
}

func (s *Service) autoSync(ctx context.Context, sess *session.Session, kind reconcile.EntityKind, out *AutoSyncOutcome) error {
	if err := sess.Advance(ctx, session.PhaseFetching, 5, fmt.Sprintf("Loading %s", kind.Collection())); err != nil {
		return err
	}
	authors, err := s.authors(ctx, kind)
	if err != nil {
		return err
	}
	sess.Infof(ctx, "Searching Scopus for %d %s", len(authors), kind.Collection())

	var batch []*Publication
	for i, a := range authors {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := PersonResult{ID: a.id, Name: a.name}
		search, ok := a.search()
		if !ok {
			res.Status = PersonSkipped
			res.Error = "no Scopus ID or English name"
			sess.Warnf(ctx, "Skipped %s: %s", a.name, res.Error)
			out.People = append(out.People, res)
			continue
		}
		res.Query, _ = search.Build()

		pubs, err := s.searchAuthor(ctx, sess, search)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			res.Status = PersonFailed
			res.Error = err.Error()
			sess.Warnf(ctx, "Failed %s: %v", a.name, err)
			out.People = append(out.People, res)
			continue
		}
		res.Status = PersonSynced
		res.Found = len(pubs)
		for _, p := range pubs {
			batch = append(batch, publicationFrom(a.id, p))
		}
		out.People = append(out.People, res)
		sess.Progress(ctx, 5+60*(i+1)/len(authors), fmt.Sprintf("%s: %d publications found", a.name, len(pubs)))
	}

	if err := sess.Advance(ctx, session.PhaseReconciling, 70, "Checking for publications already on record"); err != nil {
		return err
	}
	plan, err := session.PlanBatch[*Publication](ctx, sess, PublicationAdapter{}, batch, withDeleted(s.publications.All), 75)
	if err != nil {
		return err
	}

	added := make(map[string]int)
	for _, p := range plan.Inserts {
		added[p.StudentID]++
	}
	for i := range out.People {
		out.People[i].Added = added[out.People[i].ID]
	}

	if err := sess.Advance(ctx, session.PhaseCommitting, 80, "Saving publications"); err != nil {
		return err
	}
	opts := commit.Options{Actor: sess.Actor, Provenance: reconcile.ProvenanceExternal}
	out.Publications, err = commitKind[*Publication](ctx, s.runner, sess, PublicationAdapter{}, plan, opts, SourceScopus, 80, 95)
	if err != nil {
		return err
	}

	sum, err := autoSyncSummary(kind, len(batch), out)
	if err != nil {
		return err
	}
	for _, line := range out.Lines[1:] {
		sess.Infof(ctx, "%s", line)
	}
	if err := s.runner.Finish(ctx, sess, sum, out.Lines[0]); err != nil {
		return err
	}
	out.Summary = sum
	return nil
}

func (s *Service) authors(ctx context.Context, kind reconcile.EntityKind) ([]author, error) {
	var out []author
	if kind == reconcile.KindStudent {
		students, err := s.students.All(ctx, false)
		if err != nil {
			return nil, err
		}
		for _, st := range students {
			out = append(out, author{
				id:       st.StudentID,
				name:     reconcile.Default(st.FullNameTH, st.StudentID),
				scopusID: st.ScopusID,
				first:    st.FirstNameEN,
				last:     st.LastNameEN,
			})
		}
		return out, nil
	}

	advisors, err := s.advisors.All(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, a := range advisors {
		out = append(out, author{
			id:       reconcile.Default(a.AdvisorID, a.ID),
			name:     a.FullName,
			scopusID: a.ScopusID,
			first:    a.FirstName,
			last:     a.LastName,
		})
	}
	return out, nil
}

// searchAuthor fetches every result of one author search.
func (s *Service) searchAuthor(ctx context.Context, sess *session.Session, search scopus.Search) ([]scopus.Publication, error) {
	first, err := s.scopus.Search(ctx, search, 0, 1)
	if err != nil {
		return nil, &fetch.TransportError{Offset: 0, Err: err}
	}
	if first.Total <= 0 {
		return nil, nil
	}

	ctrl := fetch.New(s.scopus.Pages(search), fetch.Options{
		PageSize: s.scopus.PageSize(),
		Ceiling:  s.scopus.Ceiling(),
		Logger:   s.logger,
	})
	pubs, err := ctrl.FetchAll(ctx, first.Total)
	if err != nil {
		return nil, err
	}
	if ctrl.Truncated() {
		sess.Warnf(ctx, "Scopus serves at most %d results per query; %d of %d fetched", s.scopus.Ceiling()+s.scopus.PageSize(), len(pubs), first.Total)
	}
	return pubs, nil
}

// publicationFrom converts a search entry into a publication owned by ownerID.
func publicationFrom(ownerID string, p scopus.Publication) *Publication {
	typ := "Other"
	if strings.EqualFold(p.Subtype, "Article") {
		typ = DefaultPublicationType
	}
	var authors []string
	for _, name := range strings.Split(p.Authors, ",") {
		if name = strings.TrimSpace(name); name != "" {
			authors = append(authors, name)
		}
	}
	return &Publication{
		StudentID:       ownerID,
		Title:           p.Title,
		JournalName:     p.Journal,
		PublicationDate: p.CoverDate,
		PublicationType: typ,
		Authors:         authors,
		Year:            utils.ToInt(p.Year()),
		Volume:          p.Volume,
		Issue:           p.Issue,
		Pages:           p.PageRange,
		DatabaseSource:  SourceScopus,
	}
}

func autoSyncSummary(kind reconcile.EntityKind, found int, out *AutoSyncOutcome) (*session.Summary, error) {
	var synced, skipped, failed int
	for _, p := range out.People {
		switch p.Status {
		case PersonSynced:
			synced++
		case PersonSkipped:
			skipped++
		case PersonFailed:
			failed++
		}
	}
	pub := out.Publications
	var inserted int
	if pub.Commit != nil {
		inserted = pub.Commit.Inserted
	}
	out.Lines = []string{
		fmt.Sprintf("Auto-sync completed: %d new publications", inserted),
		fmt.Sprintf("People searched: %d, skipped %d, failed %d", synced, skipped, failed),
		fmt.Sprintf("Publications found: %d, already on record %d", found, pub.Plan.Skipped),
	}

	details, err := json.Marshal(map[string]any{
		"people":       out.People,
		"publications": pub,
		"lines":        out.Lines,
		"inserted":     inserted,
	})
	if err != nil {
		return nil, err
	}
	return &session.Summary{
		Kind:         SummaryKindAutoSync,
		Scope:        ScopeAutoSync,
		Query:        kind.Collection(),
		TotalFetched: found,
		NewCount:     pub.Plan.New,
		UpdateCount:  pub.Plan.Updated,
		SkipCount:    pub.Plan.Skipped,
		Details:      details,
	}, nil
}

// AutoSyncHistory returns recent auto-sync summaries.
func (s *Service) AutoSyncHistory(ctx context.Context, limit int) ([]session.Summary, error) {
	return s.runner.History(ctx, SummaryKindAutoSync, limit)
}
