package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Sink stores audit entries.
type Sink interface {
	Append(ctx context.Context, e *Entry) error
	Recent(ctx context.Context, f Filter) ([]Entry, error)
}

// GormSink writes entries to the audit_logs table.
type GormSink struct {
	db *gorm.DB
}

// NewGormSink creates a sink. Call Migrate once before use.
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// Migrate creates or updates the audit_logs table.
func (s *GormSink) Migrate() error {
	return s.db.AutoMigrate(&Entry{})
}

func (s *GormSink) Append(ctx context.Context, e *Entry) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Recent returns entries newest first. Limit defaults to 100.
func (s *GormSink) Recent(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	q := s.db.WithContext(ctx).Model(&Entry{})
	if f.Collection != "" {
		q = q.Where("collection = ?", f.Collection)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	var out []Entry
	if err := q.Order("timestamp DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return out, nil
}
