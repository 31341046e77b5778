package store

import (
	"time"

	"gorm.io/datatypes"
)

// Document is one stored record. Entity fields live in Body; system fields are columns
// so that they can be filtered and are never overwritten by a field patch.
type Document struct {
	Collection string         `gorm:"primaryKey;size:64" json:"collection"`
	ID         string         `gorm:"primaryKey;size:191" json:"id"`
	Body       datatypes.JSON `gorm:"not null" json:"body"`
	IsDeleted  bool           `gorm:"index;not null;default:false" json:"is_deleted"`
	Provenance string         `gorm:"size:32" json:"provenance"`
	CreatedAt  time.Time      `json:"created_at"`
	CreatedBy  string         `gorm:"size:191" json:"created_by"`
	UpdatedAt  time.Time      `json:"updated_at"`
	UpdatedBy  string         `gorm:"size:191" json:"updated_by"`
}

// TableName pins the table name.
func (Document) TableName() string {
	return "documents"
}

// Write is one operation of a SetMany call.
type Write struct {
	// Key is the target id for patches. For creates it is the natural key, or ""
	// to have the store generate an id.
	Key string
	// Fields are entity fields. System field names are ignored.
	Fields map[string]any
	// Patch merges Fields into an existing document instead of creating one.
	Patch bool
	// Restore clears is_deleted on a patched document.
	Restore bool
	// Provenance is stored on create.
	Provenance string
}

// WriteResult reports what a SetMany call applied.
type WriteResult struct {
	// IDs holds the id of every applied write, in write order.
	IDs []string
	// Missing holds patch targets that no longer exist. They were not applied.
	Missing []string
}

// Applied returns the number of writes that reached the store.
func (r WriteResult) Applied() int {
	return len(r.IDs)
}
