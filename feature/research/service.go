package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"records-manager/core/audit"
	"records-manager/core/fetch"
	"records-manager/core/reconcile"
	"records-manager/core/session"
	"records-manager/core/store"
	"records-manager/feature/research/scopus"

	"go.uber.org/zap"
)

// Search result statuses.
const (
	StatusNew       = "new"
	StatusDuplicate = "duplicate"
)

// Single-record run scopes.
const (
	ScopeSingleImport = "Single Import"
	ScopeSingleUpdate = "Single Update"
)

// ErrSessionNotFound is returned for unknown or expired sync sessions.
var ErrSessionNotFound = errors.New("sync session not found")

// Searcher is the part of the Scopus client the service needs.
type Searcher interface {
	Search(ctx context.Context, s scopus.Search, start, count int) (*scopus.Result, error)
	Pages(s scopus.Search) fetch.PageFunc[scopus.Publication]
	PageSize() int
	Ceiling() int
	DefaultAffiliation() string
}

// Service handles research records and their Scopus synchronization.
type Service struct {
	repo   *store.Repository[Record, *Record]
	runner *session.Runner
	audit  *audit.Recorder
	client Searcher
	logger *zap.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a research service.
func NewService(s store.Store, runner *session.Runner, recorder *audit.Recorder, client Searcher, logger *zap.Logger) *Service {
	return &Service{
		repo:    store.NewRepository[Record](s, reconcile.KindResearch),
		runner:  runner,
		audit:   recorder,
		client:  client,
		logger:  logger,
		cancels: make(map[string]context.CancelFunc),
	}
}

// List returns all research records.
func (s *Service) List(ctx context.Context, includeDeleted bool) ([]*Record, error) {
	return s.repo.All(ctx, includeDeleted)
}

// Get returns one research record.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// Create stores a manually entered record.
func (s *Service) Create(ctx context.Context, actor string, rec *Record) (*Record, error) {
	collection := reconcile.KindResearch.Collection()
	if errs := reconcile.Validate(reconcile.KindResearch, 0, rec); len(errs) > 0 {
		return nil, errs[0]
	}
	rec = Adapter{}.Prepare(rec)
	rec.Provenance = reconcile.ProvenanceManual

	created, err := s.repo.Create(ctx, actor, "", rec)
	if err != nil {
		s.audit.Failure(ctx, audit.ActionCreate, collection, "", actor, map[string]any{"title": rec.Title}, err)
		return nil, err
	}
	s.audit.Success(ctx, audit.ActionCreate, collection, created.ID, actor, map[string]any{
		"title":      created.Title,
		"scopus_eid": created.ScopusEID,
	})
	return created, nil
}

// Update patches the given fields of a record. System fields in fields are ignored.
func (s *Service) Update(ctx context.Context, actor, id string, fields map[string]any) (*Record, error) {
	collection := reconcile.KindResearch.Collection()
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	beforeFields, err := reconcile.Fields(before)
	if err != nil {
		return nil, err
	}

	patch := make(map[string]any, len(fields))
	merged := make(map[string]any, len(beforeFields))
	for k, v := range beforeFields {
		merged[k] = v
	}
	for k, v := range fields {
		if reconcile.IsSystemField(k) {
			continue
		}
		patch[k] = v
		merged[k] = v
	}

	candidate, err := decodeRecord(merged)
	if err != nil {
		return nil, &reconcile.ValidationError{Kind: reconcile.KindResearch, Field: "record", Message: err.Error()}
	}
	if errs := reconcile.Validate(reconcile.KindResearch, 0, candidate); len(errs) > 0 {
		return nil, errs[0]
	}

	updated, err := s.repo.Patch(ctx, actor, id, patch)
	if err != nil {
		s.audit.Failure(ctx, audit.ActionUpdate, collection, id, actor, map[string]any{"fields": keys(patch)}, err)
		return nil, err
	}
	afterFields, err := reconcile.Fields(updated)
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, audit.ActionUpdate, collection, id, actor, map[string]any{
		"changed": reconcile.ChangedFields(beforeFields, afterFields),
	})
	return updated, nil
}

// Delete soft-deletes a record.
func (s *Service) Delete(ctx context.Context, actor, id string) (*Record, error) {
	collection := reconcile.KindResearch.Collection()
	deleted, err := s.repo.Delete(ctx, actor, id)
	if err != nil {
		s.audit.Failure(ctx, audit.ActionDelete, collection, id, actor, nil, err)
		return nil, err
	}
	s.audit.Success(ctx, audit.ActionDelete, collection, id, actor, map[string]any{
		"title":      deleted.Title,
		"scopus_eid": deleted.ScopusEID,
		"doi":        deleted.DOI,
	})
	return deleted, nil
}

// SearchRequest is one page of an interactive search.
type SearchRequest struct {
	scopus.Search
	Offset int `json:"offset"`
}

// SearchItem is a search entry tagged against the local store.
type SearchItem struct {
	scopus.Publication
	Status    string `json:"status"`
	LocalID   string `json:"local_id,omitempty"`
	Ambiguous bool   `json:"ambiguous,omitempty"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	Total      int          `json:"total"`
	Offset     int          `json:"offset"`
	NextOffset int          `json:"next_offset"`
	HasMore    bool         `json:"has_more"`
	Truncated  bool         `json:"truncated"`
	Items      []SearchItem `json:"items"`
}

// Search fetches one page at req.Offset and tags every entry as new or duplicate
// using the same identity rules as a sync.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	if req.Affiliation == "" {
		req.Affiliation = s.client.DefaultAffiliation()
	}
	if _, err := req.Search.Build(); err != nil {
		return nil, err
	}

	ctrl := fetch.New(s.client.Pages(req.Search), fetch.Options{
		PageSize: s.client.PageSize(),
		Ceiling:  s.client.Ceiling(),
		Logger:   s.logger,
	})
	ctrl.Seek(req.Offset, 0)
	page, err := ctrl.FetchNext(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.All(ctx, false)
	if err != nil {
		return nil, err
	}
	ix := reconcile.BuildIndex[*Record](Adapter{}, existing)

	out := &SearchResult{
		Total:      page.Total,
		Offset:     req.Offset,
		NextOffset: ctrl.Offset(),
		HasMore:    ctrl.HasMore(),
		Truncated:  ctrl.Truncated(),
		Items:      make([]SearchItem, 0, len(page.Items)),
	}
	for _, p := range page.Items {
		item := SearchItem{Publication: p, Status: StatusNew}
		res := reconcile.Resolve(FromPublication(p), ix)
		switch {
		case res.Found:
			item.Status = StatusDuplicate
			item.LocalID = res.Match.ID
		case res.Ambiguous():
			item.Ambiguous = true
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// Import runs the single-record path for one search entry: a new entry is
// inserted, a known one updated. Either way one run summary is written.
func (s *Service) Import(ctx context.Context, actor string, p scopus.Publication) (*session.Outcome, error) {
	incoming := FromPublication(p)
	if errs := reconcile.Validate(reconcile.KindResearch, 0, incoming); len(errs) > 0 {
		return nil, errs[0]
	}

	existing, err := s.repo.All(ctx, false)
	if err != nil {
		return nil, err
	}
	scope := ScopeSingleImport
	if reconcile.Resolve(incoming, reconcile.BuildIndex[*Record](Adapter{}, existing)).Found {
		scope = ScopeSingleUpdate
	}

	sess := s.runner.Start(scope, actor)
	return session.Run(ctx, s.runner, sess, session.Job[*Record]{
		Adapter:    Adapter{Note: NoteSingleImport},
		Params:     session.Params{Kind: reconcile.KindResearch, Scope: scope, Year: p.Year(), Query: "EID: " + p.EID},
		Provenance: reconcile.ProvenanceExternal,
		Fetch: func(context.Context, *session.Session) ([]*Record, error) {
			return []*Record{incoming}, nil
		},
		Existing: func(ctx context.Context) ([]*Record, error) {
			return s.repo.All(ctx, false)
		},
	})
}

// SyncRequest starts a bulk sync.
type SyncRequest struct {
	scopus.Search
	// ExpectedTotal is the result count shown to the user. When nil the total is
	// read from a first search request.
	ExpectedTotal *int `json:"expected_total,omitempty"`
}

// Sync runs the bulk path in the caller's goroutine.
func (s *Service) Sync(ctx context.Context, actor string, req SyncRequest) (*session.Outcome, error) {
	sess, job, err := s.prepareSync(actor, req)
	if err != nil {
		return nil, err
	}
	return session.Run(ctx, s.runner, sess, job)
}

// StartSync runs the bulk path in the background and returns its session at once.
// The run outlives ctx; CancelSync stops it between commit chunks.
func (s *Service) StartSync(ctx context.Context, actor string, req SyncRequest) (*session.Session, error) {
	sess, job, err := s.prepareSync(actor, req)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.cancels[sess.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.cancels, sess.ID)
			s.mu.Unlock()
			cancel()
		}()
		if _, err := session.Run(runCtx, s.runner, sess, job); err != nil {
			s.logger.Error("Background sync failed", zap.String("session_id", sess.ID), zap.Error(err))
		}
	}()
	return sess, nil
}

// CancelSync stops a background sync. It reports whether the session was running.
func (s *Service) CancelSync(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.cancels[id]
	if ok {
		cancel()
	}
	return ok
}

// Wait blocks until every background sync has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) prepareSync(actor string, req SyncRequest) (*session.Session, session.Job[*Record], error) {
	if req.Affiliation == "" {
		req.Affiliation = s.client.DefaultAffiliation()
	}
	query, err := req.Search.Build()
	if err != nil {
		return nil, session.Job[*Record]{}, err
	}
	scope := req.Affiliation
	year := req.Year
	if year == "" {
		year = scopus.AllYears
	}

	sess := s.runner.Start(scope, actor)
	job := session.Job[*Record]{
		Adapter:    Adapter{Note: NoteBulkSync},
		Params:     session.Params{Kind: reconcile.KindResearch, Scope: scope, Year: year, Query: query},
		Provenance: reconcile.ProvenanceExternal,
		Fetch: func(ctx context.Context, sess *session.Session) ([]*Record, error) {
			return s.fetchAll(ctx, sess, req)
		},
		Existing: func(ctx context.Context) ([]*Record, error) {
			return s.repo.All(ctx, false)
		},
	}
	return sess, job, nil
}

func (s *Service) fetchAll(ctx context.Context, sess *session.Session, req SyncRequest) ([]*Record, error) {
	var expected int
	if req.ExpectedTotal != nil {
		expected = *req.ExpectedTotal
	} else {
		probe, err := s.client.Search(ctx, req.Search, 0, 1)
		if err != nil {
			return nil, &fetch.TransportError{Offset: 0, Err: err}
		}
		expected = probe.Total
		sess.Infof(ctx, "Scopus reports %d results", expected)
	}
	if expected <= 0 {
		sess.Infof(ctx, "No results to import")
		return nil, nil
	}

	ctrl := fetch.New(s.client.Pages(req.Search), fetch.Options{
		PageSize: s.client.PageSize(),
		Ceiling:  s.client.Ceiling(),
		Logger:   s.logger,
		OnBeforePage: func(number, offset int) {
			sess.Infof(ctx, "Fetching page %d (%d/%d)", number, offset, expected)
		},
		OnPage: func(e fetch.PageEvent) {
			sess.Progress(ctx, 5+35*min(e.Accumulated, e.Expected)/e.Expected, fmt.Sprintf("Received %d records (%d/%d)", e.Received, e.Accumulated, e.Expected))
		},
	})
	pubs, err := ctrl.FetchAll(ctx, expected)
	if err != nil {
		return nil, err
	}
	if ctrl.Truncated() {
		sess.Warnf(ctx, "Scopus serves at most %d results per query; %d of %d fetched", s.client.Ceiling()+s.client.PageSize(), len(pubs), expected)
	}
	if ctrl.Reason() == fetch.ReasonEmptyPage && len(pubs) < expected {
		sess.Warnf(ctx, "Scopus returned an empty page after %d of %d results", len(pubs), expected)
	}

	out := make([]*Record, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, FromPublication(p))
	}
	return out, nil
}

// Session returns a tracked sync session.
func (s *Service) Session(id string) (*session.Session, error) {
	sess, ok := s.runner.Session(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Events replays a session's log from its first line.
func (s *Service) Events(ctx context.Context, id string) ([]session.Event, error) {
	events, err := s.runner.Replay(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrSessionNotFound
	}
	return events, nil
}

// History returns the newest research sync summaries.
func (s *Service) History(ctx context.Context, limit int) ([]session.Summary, error) {
	return s.runner.History(ctx, reconcile.KindResearch, limit)
}

func decodeRecord(fields map[string]any) (*Record, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
