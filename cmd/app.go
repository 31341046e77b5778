package cmd

import (
	"context"
	"fmt"
	"time"

	"records-manager/core/audit"
	"records-manager/core/cache"
	"records-manager/core/commit"
	"records-manager/core/config"
	"records-manager/core/database"
	"records-manager/core/logger"
	"records-manager/core/session"
	"records-manager/core/storage"
	"records-manager/core/store"
	"records-manager/feature/academic"
	"records-manager/feature/research"
	"records-manager/feature/research/scopus"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds everything the commands share. Storage and Redis are optional;
// the database is not.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *gorm.DB
	docs    *store.GormStore
	client  storage.Client
	archive *storage.Archive
	redis   *redis.Client

	runner   *session.Runner
	research *research.Service
	academic *academic.Service
}

// bootstrap loads configuration and connects every backend.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logg}

	a.db, err = database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}
	logg.Info("Connected to record database", zap.String("driver", cfg.Database.Driver), zap.String("name", cfg.Database.Name))

	a.docs = store.NewGormStore(a.db)
	auditSink := audit.NewGormSink(a.db)
	summaries := session.NewGormSummaryStore(a.db)
	for _, m := range []interface{ Migrate() error }{a.docs, auditSink, summaries} {
		if err := m.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	// Object storage (Optional)
	a.client, a.archive, err = storage.Open(ctx, cfg.Storage)
	if err != nil {
		logg.Warn("Backup archive unavailable", zap.Error(err))
		a.client, a.archive = nil, nil
	}

	// Redis (Optional)
	a.redis, err = cache.NewClient(cfg.Redis)
	if err != nil {
		logg.Warn("Optional redis connection failed", zap.Error(err))
		a.redis = nil
	}

	sink := session.NewSink(a.redis, cfg.Sync.LogTTL())
	var diagnostics session.Diagnostics
	if a.archive != nil {
		diagnostics = session.NewArchiveDiagnostics(a.archive)
	}

	recorder := audit.NewRecorder(auditSink, logg)
	executor := commit.NewExecutor(a.docs, recorder, cfg.Sync.Commit(), logg)
	a.runner = session.NewRunner(executor, summaries, sink, diagnostics, logg)

	scopusClient := scopus.NewClient(cfg.Scopus, logg)
	a.research = research.NewService(a.docs, a.runner, recorder, scopusClient, logg)
	a.academic = academic.NewService(
		a.docs, a.runner, recorder, a.archive, scopusClient,
		cache.NewLocker(a.redis),
		academic.NewPurgeGuard(cfg.Sync.PurgeCooldown(), cfg.Sync.PurgeTTL()),
		logg,
	)
	return a, nil
}

// close releases connections. Background syncs are waited for first.
func (a *app) close() {
	a.research.Wait()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}

// actor is the identity CLI runs are recorded under.
func (a *app) actor(flag string) string {
	return a.cfg.Server.ResolveActor(flag)
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
