package academic

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BackupVersion is written to and required in every JSON backup.
const BackupVersion = "1.0"

// ErrInvalidBackup is returned for files that are not a readable backup.
var ErrInvalidBackup = errors.New("invalid backup file")

// Dataset holds the records of every academic kind.
type Dataset struct {
	Students     []*Student     `json:"students"`
	Publications []*Publication `json:"publications"`
	Progress     []*Progress    `json:"progress"`
	Advisors     []*Advisor     `json:"advisors"`
}

// Empty reports whether the dataset holds no record at all.
func (d *Dataset) Empty() bool {
	return len(d.Students) == 0 && len(d.Publications) == 0 && len(d.Progress) == 0 && len(d.Advisors) == 0
}

// Total returns the number of records across kinds.
func (d *Dataset) Total() int {
	return len(d.Students) + len(d.Publications) + len(d.Progress) + len(d.Advisors)
}

// Metadata describes who exported a backup and what it holds.
type Metadata struct {
	ExportedBy        string `json:"exported_by"`
	StudentsCount     int    `json:"students_count"`
	PublicationsCount int    `json:"publications_count"`
	ProgressCount     int    `json:"progress_count"`
	AdvisorsCount     int    `json:"advisors_count"`
}

// Backup is the JSON backup envelope.
type Backup struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  Metadata  `json:"metadata"`
	Data      *Dataset  `json:"data"`
}

// NewBackup wraps data in an envelope stamped with actor and now.
func NewBackup(data *Dataset, actor string, now time.Time) *Backup {
	return &Backup{
		Version:   BackupVersion,
		Timestamp: now.UTC(),
		Metadata: Metadata{
			ExportedBy:        actor,
			StudentsCount:     len(data.Students),
			PublicationsCount: len(data.Publications),
			ProgressCount:     len(data.Progress),
			AdvisorsCount:     len(data.Advisors),
		},
		Data: data,
	}
}

// ParseBackup decodes a JSON backup. A file without version or data is rejected.
func ParseBackup(raw []byte) (*Dataset, error) {
	var b Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if b.Version == "" || b.Data == nil {
		return nil, fmt.Errorf("%w: missing version or data", ErrInvalidBackup)
	}
	return b.Data, nil
}
