package session

import (
	"context"
	"encoding/json"
	"time"

	"records-manager/core/storage"
)

// Diagnostics keeps the live log of failed sessions after the run is gone.
type Diagnostics interface {
	Save(ctx context.Context, s *Session) (string, error)
}

// Report is the document written for a failed session.
type Report struct {
	Status   Status    `json:"status"`
	Events   []Event   `json:"events"`
	Archived time.Time `json:"archived_at"`
}

// ArchiveDiagnostics writes failed-session reports to object storage.
type ArchiveDiagnostics struct {
	archive *storage.Archive
}

// NewArchiveDiagnostics stores reports in archive.
func NewArchiveDiagnostics(archive *storage.Archive) *ArchiveDiagnostics {
	return &ArchiveDiagnostics{archive: archive}
}

// DiagnosticKey returns the object key of a session report.
func DiagnosticKey(sessionID string) string {
	return "diagnostics/sync/" + sessionID + ".json"
}

// Save uploads the session's report and returns its key.
func (d *ArchiveDiagnostics) Save(ctx context.Context, s *Session) (string, error) {
	data, err := json.MarshalIndent(Report{Status: s.Status(), Events: s.Events(), Archived: time.Now().UTC()}, "", "  ")
	if err != nil {
		return "", err
	}
	key := DiagnosticKey(s.ID)
	if err := d.archive.Put(ctx, key, data, "application/json"); err != nil {
		return "", err
	}
	return key, nil
}
