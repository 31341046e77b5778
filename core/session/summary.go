package session

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultHistoryLimit is the number of summaries returned by Recent when no limit is given.
const DefaultHistoryLimit = 20

// Summary is the history record of one completed run. It is written once and never updated.
type Summary struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	SessionID    string         `gorm:"size:64;index" json:"session_id"`
	Timestamp    time.Time      `gorm:"index" json:"timestamp"`
	User         string         `gorm:"size:191" json:"user"`
	Kind         string         `gorm:"size:64;index" json:"kind"`
	Scope        string         `gorm:"size:191" json:"scope"`
	Year         string         `gorm:"size:16" json:"year"`
	Query        string         `gorm:"type:text" json:"query"`
	TotalFetched int            `json:"total_fetched"`
	NewCount     int            `json:"new_count"`
	UpdateCount  int            `json:"update_count"`
	SkipCount    int            `json:"skip_count"`
	Details      datatypes.JSON `json:"details,omitempty"`
}

// TableName returns the sync history table name.
func (Summary) TableName() string {
	return "sync_runs"
}

// SummaryStore persists run summaries.
type SummaryStore interface {
	Save(ctx context.Context, s *Summary) error
	Recent(ctx context.Context, kind string, limit int) ([]Summary, error)
}

// GormSummaryStore keeps summaries in the sync_runs table.
type GormSummaryStore struct {
	db *gorm.DB
}

// NewGormSummaryStore creates a summary store on db.
func NewGormSummaryStore(db *gorm.DB) *GormSummaryStore {
	return &GormSummaryStore{db: db}
}

// Migrate creates the sync_runs table.
func (s *GormSummaryStore) Migrate() error {
	return s.db.AutoMigrate(&Summary{})
}

func (s *GormSummaryStore) Save(ctx context.Context, sum *Summary) error {
	return s.db.WithContext(ctx).Create(sum).Error
}

// Recent returns the newest summaries first, optionally only those of kind.
func (s *GormSummaryStore) Recent(ctx context.Context, kind string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := s.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Limit(limit)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []Summary
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
