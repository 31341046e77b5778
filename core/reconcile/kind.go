package reconcile

import (
	"fmt"
	"strings"
)

// EntityKind identifies one of the reconciled record categories.
type EntityKind string

const (
	KindStudent     EntityKind = "student"
	KindPublication EntityKind = "publication"
	KindProgress    EntityKind = "progress_milestone"
	KindAdvisor     EntityKind = "advisor"
	KindResearch    EntityKind = "research_record"
)

// Kinds lists every entity kind in restore order.
var Kinds = []EntityKind{KindStudent, KindPublication, KindProgress, KindAdvisor, KindResearch}

var collections = map[EntityKind]string{
	KindStudent:     "graduate_students",
	KindPublication: "student_publications",
	KindProgress:    "student_progress",
	KindAdvisor:     "advisors",
	KindResearch:    "research_records",
}

// Collection returns the store collection backing the kind.
func (k EntityKind) Collection() string {
	return collections[k]
}

// Valid reports whether k is a known kind.
func (k EntityKind) Valid() bool {
	_, ok := collections[k]
	return ok
}

// ParseKind accepts a kind name, its collection name or the short plural used by the API
// (students, publications, progress, advisors, research).
func ParseKind(s string) (EntityKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "students":
		return KindStudent, nil
	case "publications":
		return KindPublication, nil
	case "progress", "milestones":
		return KindProgress, nil
	case "advisors":
		return KindAdvisor, nil
	case "research", "research_records_all":
		return KindResearch, nil
	}
	for k, c := range collections {
		if s == string(k) || s == c {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownKind, s)
}

// Provenance marks where an incoming record came from.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"
	ProvenanceExcel    Provenance = "excel_import"
	ProvenanceJSON     Provenance = "json_restore"
	ProvenanceExternal Provenance = "external_api"
)
