package academic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"records-manager/core/audit"
	"records-manager/core/cache"
	"records-manager/core/commit"
	"records-manager/core/reconcile"
	"records-manager/core/session"
	"records-manager/core/storage"
	"records-manager/core/store"

	"go.uber.org/zap"
)

// Restore run identity, stored on the run summary.
const (
	SummaryKindRestore = "academic_restore"
	ScopeRestore       = "Backup Restore"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// backupPrefix is the object key prefix of archived backups.
const backupPrefix = "backups/"

// purgeLockTTL bounds how long a purge may hold its collection lock.
const purgeLockTTL = 5 * time.Minute

var (
	// ErrUnsupportedFormat is returned for backup files that are neither JSON nor XLSX.
	ErrUnsupportedFormat = errors.New("unsupported backup format")
	// ErrArchiveDisabled is returned when object storage is not configured.
	ErrArchiveDisabled = errors.New("backup archive is not configured")
	// ErrUnsupportedKind is returned for kinds this feature does not manage.
	ErrUnsupportedKind = errors.New("unsupported record kind")
)

// Service manages the academic collections: listing, backup export, restore and purge.
type Service struct {
	store        store.Store
	students     *store.Repository[Student, *Student]
	publications *store.Repository[Publication, *Publication]
	progress     *store.Repository[Progress, *Progress]
	advisors     *store.Repository[Advisor, *Advisor]

	runner  *session.Runner
	audit   *audit.Recorder
	archive *storage.Archive
	scopus  AuthorSearcher
	locker  cache.Locker
	guard   *PurgeGuard
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates the academic service. archive may be nil, which disables
// archived backups; a nil searcher disables the Scopus auto-sync.
func NewService(s store.Store, runner *session.Runner, recorder *audit.Recorder, archive *storage.Archive, searcher AuthorSearcher, locker cache.Locker, guard *PurgeGuard, logger *zap.Logger) *Service {
	if locker == nil {
		locker = cache.NewLocalLocker()
	}
	return &Service{
		store:        s,
		students:     store.NewRepository[Student](s, reconcile.KindStudent),
		publications: store.NewRepository[Publication](s, reconcile.KindPublication),
		progress:     store.NewRepository[Progress](s, reconcile.KindProgress),
		advisors:     store.NewRepository[Advisor](s, reconcile.KindAdvisor),
		runner:       runner,
		audit:        recorder,
		archive:      archive,
		scopus:       searcher,
		locker:       locker,
		guard:        guard,
		logger:       logger,
		now:          time.Now,
	}
}

// managedKind resolves name to one of the four academic kinds.
func managedKind(name string) (reconcile.EntityKind, error) {
	kind, err := reconcile.ParseKind(name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedKind, err)
	}
	switch kind {
	case reconcile.KindStudent, reconcile.KindPublication, reconcile.KindProgress, reconcile.KindAdvisor:
		return kind, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
}

// Counts returns the number of live records per kind.
func (s *Service) Counts(ctx context.Context) (map[reconcile.EntityKind]int64, error) {
	out := make(map[reconcile.EntityKind]int64, 4)
	for _, kind := range []reconcile.EntityKind{reconcile.KindStudent, reconcile.KindPublication, reconcile.KindProgress, reconcile.KindAdvisor} {
		n, err := s.store.Count(ctx, kind.Collection())
		if err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, nil
}

// List returns the records of one kind.
func (s *Service) List(ctx context.Context, name string, includeDeleted bool) (any, error) {
	kind, err := managedKind(name)
	if err != nil {
		return nil, err
	}
	switch kind {
	case reconcile.KindStudent:
		return s.students.All(ctx, includeDeleted)
	case reconcile.KindPublication:
		return s.publications.All(ctx, includeDeleted)
	case reconcile.KindProgress:
		return s.progress.All(ctx, includeDeleted)
	default:
		return s.advisors.All(ctx, includeDeleted)
	}
}

// Snapshot loads every live academic record.
func (s *Service) Snapshot(ctx context.Context) (*Dataset, error) {
	var (
		data Dataset
		err  error
	)
	if data.Students, err = s.students.All(ctx, false); err != nil {
		return nil, err
	}
	if data.Publications, err = s.publications.All(ctx, false); err != nil {
		return nil, err
	}
	if data.Progress, err = s.progress.All(ctx, false); err != nil {
		return nil, err
	}
	if data.Advisors, err = s.advisors.All(ctx, false); err != nil {
		return nil, err
	}
	return &data, nil
}

// ExportFile is a rendered backup.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// Export renders every live academic record as a JSON backup or an Excel workbook.
func (s *Service) Export(ctx context.Context, actor, format string) (*ExportFile, error) {
	data, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stamp := now.UTC().Format("2006-01-02")
	file := &ExportFile{}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		body, err := json.MarshalIndent(NewBackup(data, actor, now), "", "  ")
		if err != nil {
			return nil, err
		}
		file.Name = fmt.Sprintf("academic_backup_%s.json", stamp)
		file.ContentType = "application/json"
		file.Body = body
	case FormatXLSX:
		body, err := ExportExcel(data)
		if err != nil {
			return nil, err
		}
		file.Name = fmt.Sprintf("academic_backup_%s.xlsx", stamp)
		file.ContentType = ContentTypeXLSX
		file.Body = body
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	s.audit.Success(ctx, audit.ActionExport, "academic", "", actor, map[string]any{
		"format":       path.Ext(file.Name)[1:],
		"students":     len(data.Students),
		"publications": len(data.Publications),
		"progress":     len(data.Progress),
		"advisors":     len(data.Advisors),
	})
	return file, nil
}

// ArchiveExport renders a backup and stores it in object storage. It returns the object key.
func (s *Service) ArchiveExport(ctx context.Context, actor, format string) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	file, err := s.Export(ctx, actor, format)
	if err != nil {
		return "", err
	}
	ext := path.Ext(file.Name)
	key := backupPrefix + strings.TrimSuffix(file.Name, ext) + "_" + s.now().UTC().Format("150405") + ext
	if err := s.archive.Put(ctx, key, file.Body, file.ContentType); err != nil {
		return "", err
	}
	s.logger.Info("Backup archived", zap.String("key", key), zap.Int("bytes", len(file.Body)))
	return key, nil
}

// Backups lists archived backups, newest first.
func (s *Service) Backups(ctx context.Context) ([]storage.ObjectSummary, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx, backupPrefix)
}

// RestoreFile is an uploaded or archived backup.
type RestoreFile struct {
	Name string
	Body []byte
}

// KindResult is what a restore did to one kind.
type KindResult struct {
	Kind   reconcile.EntityKind  `json:"kind"`
	Plan   reconcile.PlanSummary `json:"plan"`
	Commit *commit.Result        `json:"commit,omitempty"`
	Errors []string              `json:"errors,omitempty"`
}

// RestoreOutcome is the result of one restore. On failure it holds whatever was reached.
type RestoreOutcome struct {
	Session       *session.Session `json:"-"`
	SessionID     string           `json:"session_id"`
	Summary       *session.Summary `json:"summary,omitempty"`
	Kinds         []KindResult     `json:"kinds"`
	Lines         []string         `json:"lines"`
	Warnings      []string         `json:"warnings,omitempty"`
	DiagnosticKey string           `json:"diagnostic_key,omitempty"`
}

// RestoreArchived restores an archived backup by object key.
func (s *Service) RestoreArchived(ctx context.Context, actor, key string) (*RestoreOutcome, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	body, err := s.archive.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.Restore(ctx, actor, RestoreFile{Name: key, Body: body})
}

// Restore merges a backup into the stored collections in one session.
//
// Students and advisors are matched and updated, restoring soft-deleted ones;
// publications that already exist are skipped; progress milestones are updated.
func (s *Service) Restore(ctx context.Context, actor string, file RestoreFile) (*RestoreOutcome, error) {
	prov, err := provenanceFor(file.Name)
	if err != nil {
		return nil, err
	}

	sess := s.runner.Start(ScopeRestore, actor)
	out := &RestoreOutcome{Session: sess, SessionID: sess.ID}
	if err := s.restore(ctx, sess, file, prov, out); err != nil {
		out.DiagnosticKey = s.runner.Abort(ctx, sess, err)
		return out, err
	}
	return out, nil
}

func provenanceFor(name string) (reconcile.Provenance, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return reconcile.ProvenanceJSON, nil
	case ".xlsx":
		return reconcile.ProvenanceExcel, nil
	}
	return "", fmt.Errorf("%w: %q (expected .json or .xlsx)", ErrUnsupportedFormat, name)
}

func (s *Service) restore(ctx context.Context, sess *session.Session, file RestoreFile, prov reconcile.Provenance, out *RestoreOutcome) error {
	if err := sess.Advance(ctx, session.PhaseFetching, 10, fmt.Sprintf("Reading %s", file.Name)); err != nil {
		return err
	}
	var (
		data *Dataset
		err  error
	)
	if prov == reconcile.ProvenanceJSON {
		data, err = ParseBackup(file.Body)
	} else {
		data, out.Warnings, err = ParseExcel(bytes.NewReader(file.Body))
	}
	if err != nil {
		return err
	}
	for _, w := range out.Warnings {
		sess.Warnf(ctx, "%s", w)
	}
	sess.Progress(ctx, 20, fmt.Sprintf("Read %d students, %d publications, %d progress, %d advisors",
		len(data.Students), len(data.Publications), len(data.Progress), len(data.Advisors)))

	if err := sess.Advance(ctx, session.PhaseReconciling, 35, "Checking for duplicates"); err != nil {
		return err
	}
	studentPlan, err := session.PlanBatch[*Student](ctx, sess, StudentAdapter{}, data.Students, withDeleted(s.students.All), 36)
	if err != nil {
		return err
	}
	pubPlan, err := session.PlanBatch[*Publication](ctx, sess, PublicationAdapter{}, data.Publications, withDeleted(s.publications.All), 38)
	if err != nil {
		return err
	}
	progressPlan, err := session.PlanBatch[*Progress](ctx, sess, ProgressAdapter{}, data.Progress, withDeleted(s.progress.All), 40)
	if err != nil {
		return err
	}
	advisorPlan, err := session.PlanBatch[*Advisor](ctx, sess, AdvisorAdapter{}, data.Advisors, withDeleted(s.advisors.All), 42)
	if err != nil {
		return err
	}

	if err := sess.Advance(ctx, session.PhaseCommitting, 45, "Saving records"); err != nil {
		return err
	}
	opts := commit.Options{Actor: sess.Actor, Provenance: prov}

	res, err := commitKind[*Student](ctx, s.runner, sess, StudentAdapter{}, studentPlan, opts, file.Name, 45, 55)
	out.Kinds = append(out.Kinds, res)
	if err != nil {
		return err
	}
	res, err = commitKind[*Publication](ctx, s.runner, sess, PublicationAdapter{}, pubPlan, opts, file.Name, 55, 65)
	out.Kinds = append(out.Kinds, res)
	if err != nil {
		return err
	}
	res, err = commitKind[*Progress](ctx, s.runner, sess, ProgressAdapter{}, progressPlan, opts, file.Name, 65, 75)
	out.Kinds = append(out.Kinds, res)
	if err != nil {
		return err
	}
	res, err = commitKind[*Advisor](ctx, s.runner, sess, AdvisorAdapter{}, advisorPlan, opts, file.Name, 75, 90)
	out.Kinds = append(out.Kinds, res)
	if err != nil {
		return err
	}

	sum, err := restoreSummary(file.Name, data.Total(), out)
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

// withDeleted loads soft-deleted records too. The planner's index drops them
// again for kinds that do not resurrect.
func withDeleted[T reconcile.Record](all func(context.Context, bool) ([]T, error)) func(context.Context) ([]T, error) {
	return func(ctx context.Context) ([]T, error) { return all(ctx, true) }
}

func commitKind[T reconcile.Record](ctx context.Context, r *session.Runner, sess *session.Session, adapter reconcile.Adapter[T], plan *reconcile.Plan[T], opts commit.Options, source string, from, to int) (KindResult, error) {
	sum := plan.Summary()
	out := KindResult{Kind: adapter.Kind(), Plan: sum, Errors: plan.Errors()}
	sess.Progress(ctx, from, fmt.Sprintf("%s: adding %d, updating %d", adapter.Kind(), sum.New, sum.Updated))

	opts.AuditDetails = map[string]any{
		"session_id": sess.ID,
		"source":     source,
		"plan":       sum,
	}
	res, err := session.CommitPlan[T](ctx, sess, r.Executor(), adapter, plan, opts, from, to)
	out.Commit = res
	return out, err
}

func restoreSummary(source string, total int, out *RestoreOutcome) (*session.Summary, error) {
	var inserted, updated, planNew, planUpdated, skipped, failed int
	counts := make(map[reconcile.EntityKind]KindResult, len(out.Kinds))
	for _, k := range out.Kinds {
		inserted += k.Commit.Inserted
		updated += k.Commit.Updated
		failed += len(k.Commit.Failures)
		planNew += k.Plan.New
		planUpdated += k.Plan.Updated
		skipped += k.Plan.Skipped
		counts[k.Kind] = k
	}

	st, pub, pr, adv := counts[reconcile.KindStudent], counts[reconcile.KindPublication], counts[reconcile.KindProgress], counts[reconcile.KindAdvisor]
	out.Lines = []string{
		fmt.Sprintf("Restore completed: %d records written", inserted+updated),
		fmt.Sprintf("Students: new %d, updated %d", st.Commit.Inserted, st.Commit.Updated),
		fmt.Sprintf("Publications: new %d, skipped %d", pub.Commit.Inserted, pub.Plan.Skipped),
		fmt.Sprintf("Progress: new %d, updated %d", pr.Commit.Inserted, pr.Commit.Updated),
		fmt.Sprintf("Advisors: new %d, updated %d", adv.Commit.Inserted, adv.Commit.Updated),
	}

	details, err := json.Marshal(map[string]any{
		"kinds":    out.Kinds,
		"lines":    out.Lines,
		"inserted": inserted,
		"updated":  updated,
		"failed":   failed,
	})
	if err != nil {
		return nil, err
	}
	return &session.Summary{
		Kind:         SummaryKindRestore,
		Scope:        ScopeRestore,
		Query:        source,
		TotalFetched: total,
		NewCount:     planNew,
		UpdateCount:  planUpdated,
		SkipCount:    skipped,
		Details:      details,
	}, nil
}

// History returns recent restore summaries.
func (s *Service) History(ctx context.Context, limit int) ([]session.Summary, error) {
	return s.runner.History(ctx, SummaryKindRestore, limit)
}

// RequestPurge opens a purge request for one kind. It must be confirmed by a
// different actor with the returned token.
func (s *Service) RequestPurge(ctx context.Context, actor, name string) (PurgeTicket, error) {
	kind, err := managedKind(name)
	if err != nil {
		return PurgeTicket{}, err
	}
	n, err := s.store.Count(ctx, kind.Collection())
	if err != nil {
		return PurgeTicket{}, err
	}
	t := s.guard.Request(kind, actor, n)
	s.logger.Warn("Purge requested",
		zap.String("kind", string(kind)),
		zap.String("actor", actor),
		zap.Int64("count", n),
		zap.Time("confirmable_at", t.ConfirmableAt),
	)
	return t, nil
}

// PurgeResult reports an executed purge.
type PurgeResult struct {
	Kind        reconcile.EntityKind `json:"kind"`
	Deleted     int64                `json:"deleted"`
	RequestedBy string               `json:"requested_by"`
	ConfirmedBy string               `json:"confirmed_by"`
}

// ConfirmPurge redeems a purge token and hard-deletes every record of its kind.
// The deletion holds the collection's lock so that two purges never overlap.
func (s *Service) ConfirmPurge(ctx context.Context, actor, token string) (*PurgeResult, error) {
	t, err := s.guard.Confirm(token, actor)
	if err != nil {
		return nil, err
	}
	collection := t.Kind.Collection()

	lock, err := s.locker.Obtain(ctx, "purge:"+collection, purgeLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", collection, err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release purge lock", zap.String("collection", collection), zap.Error(err))
		}
	}()

	details := map[string]any{"requested_by": t.RequestedBy, "confirmed_by": actor}
	n, err := s.store.PurgeAll(ctx, collection)
	if err != nil {
		s.audit.Failure(ctx, audit.ActionDeleteAll, collection, "", actor, details, err)
		return nil, err
	}
	details["deleted"] = n
	s.audit.Success(ctx, audit.ActionDeleteAll, collection, "", actor, details)
	s.logger.Warn("Collection purged", zap.String("collection", collection), zap.Int64("deleted", n))

	return &PurgeResult{Kind: t.Kind, Deleted: n, RequestedBy: t.RequestedBy, ConfirmedBy: actor}, nil
}

// PendingPurges lists open purge requests.
func (s *Service) PendingPurges() []PurgeTicket {
	return s.guard.Pending()
}
