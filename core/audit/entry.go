package audit

import (
	"time"

	"gorm.io/datatypes"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate    Action = "CREATE"
	ActionUpdate    Action = "UPDATE"
	ActionDelete    Action = "DELETE"
	ActionImport    Action = "IMPORT"
	ActionExport    Action = "EXPORT"
	ActionDeleteAll Action = "DELETE_ALL"
)

// Status is the outcome of an audited operation.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// Entry is one append-only audit log row.
type Entry struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Action       Action         `gorm:"size:16;index" json:"action"`
	Collection   string         `gorm:"size:64;index" json:"collection"`
	DocID        string         `gorm:"size:191" json:"doc_id"`
	Actor        string         `gorm:"size:191" json:"user"`
	Details      datatypes.JSON `json:"details"`
	Status       Status         `gorm:"size:16" json:"status"`
	ErrorMessage string         `gorm:"size:1024" json:"error_message,omitempty"`
	Timestamp    time.Time      `gorm:"index" json:"timestamp"`
}

// TableName pins the table name.
func (Entry) TableName() string {
	return "audit_logs"
}

// Filter narrows a Recent query.
type Filter struct {
	Collection string
	Action     Action
	Limit      int
}
