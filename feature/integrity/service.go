package integrity

import (
	"context"
	"errors"
	"time"

	"records-manager/core/audit"
	"records-manager/core/reconcile"
	"records-manager/core/session"
	"records-manager/core/storage"
	"records-manager/core/store"
	"records-manager/feature/academic"
	"records-manager/feature/integrity/checks"
	"records-manager/feature/research"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageDisabled is returned by structure checks when object storage is not configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// DefaultDuplicateTTL is how long a duplicate report is reused.
const DefaultDuplicateTTL = time.Minute

// Service handles integrity checks.
type Service struct {
	client storage.Client
	bucket string
	logger *zap.Logger
	db     *gorm.DB
	store  store.Store
	cache  *reportCache
}

// NewService creates a new integrity service. client may be nil, which disables
// the structure checks. A non-positive ttl uses DefaultDuplicateTTL.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, docs store.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultDuplicateTTL
	}
	return &Service{
		client: client,
		bucket: bucket,
		logger: logger,
		db:     db,
		store:  docs,
		cache:  newReportCache(ttl),
	}
}

// CheckStructure returns a list of missing archive folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrStorageDisabled
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckSchema verifies the tables of the document store, the audit log and the
// sync history.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, &store.Document{}, &audit.Entry{}, &session.Summary{})
}

// Duplicates returns the duplicate-key report of one kind. Reports are cached for
// the service's TTL; refresh rebuilds it.
func (s *Service) Duplicates(ctx context.Context, name string, refresh bool) (*checks.DuplicateReport, error) {
	kind, err := reconcile.ParseKind(name)
	if err != nil {
		return nil, err
	}
	if refresh {
		s.cache.invalidate(kind)
	}
	return s.cache.get(kind, func() (*checks.DuplicateReport, error) {
		return s.buildDuplicates(ctx, kind)
	})
}

// AllDuplicates returns the duplicate-key report of every kind.
func (s *Service) AllDuplicates(ctx context.Context, refresh bool) ([]*checks.DuplicateReport, error) {
	out := make([]*checks.DuplicateReport, 0, len(reconcile.Kinds))
	for _, kind := range reconcile.Kinds {
		r, err := s.Duplicates(ctx, string(kind), refresh)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Service) buildDuplicates(ctx context.Context, kind reconcile.EntityKind) (*checks.DuplicateReport, error) {
	start := time.Now()
	var (
		report *checks.DuplicateReport
		err    error
	)
	switch kind {
	case reconcile.KindStudent:
		report, err = duplicatesOf[academic.Student, *academic.Student](ctx, store.NewRepository[academic.Student](s.store, kind), academic.StudentAdapter{})
	case reconcile.KindPublication:
		report, err = duplicatesOf[academic.Publication, *academic.Publication](ctx, store.NewRepository[academic.Publication](s.store, kind), academic.PublicationAdapter{})
	case reconcile.KindProgress:
		report, err = duplicatesOf[academic.Progress, *academic.Progress](ctx, store.NewRepository[academic.Progress](s.store, kind), academic.ProgressAdapter{})
	case reconcile.KindAdvisor:
		report, err = duplicatesOf[academic.Advisor, *academic.Advisor](ctx, store.NewRepository[academic.Advisor](s.store, kind), academic.AdvisorAdapter{})
	default:
		report, err = duplicatesOf[research.Record, *research.Record](ctx, store.NewRepository[research.Record](s.store, kind), research.Adapter{})
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Duplicate report built",
		zap.String("kind", string(kind)),
		zap.Int("records", report.Records),
		zap.Int("groups", len(report.Groups)),
		zap.Duration("took", time.Since(start)),
	)
	return report, nil
}

func duplicatesOf[T any, PT store.RecordPtr[T]](ctx context.Context, repo *store.Repository[T, PT], adapter reconcile.Adapter[PT]) (*checks.DuplicateReport, error) {
	recs, err := repo.All(ctx, true)
	if err != nil {
		return nil, err
	}
	return checks.FindDuplicates(adapter, recs), nil
}
