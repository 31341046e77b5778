package research

import (
	"encoding/json"

	"records-manager/core/reconcile"
)

// Author links one listed author to a local person.
type Author struct {
	ScopusAuthorID  string `json:"scopus_author_id,omitempty"`
	AuthorName      string `json:"author_name"`
	LinkedType      string `json:"ku_linked_type,omitempty"`
	LinkedID        string `json:"ku_linked_id,omitempty"`
	IsCorresponding bool   `json:"is_corresponding,omitempty"`
}

// Record is a research publication of the faculty.
type Record struct {
	reconcile.SystemFields

	ScopusEID    string          `json:"scopus_eid"`
	DOI          string          `json:"doi"`
	Title        string          `json:"title" validate:"notblank"`
	TitleTH      string          `json:"title_th"`
	Year         string          `json:"year"`
	AcademicYear string          `json:"academic_year"`
	CoverDate    string          `json:"cover_date"`
	Faculty      string          `json:"faculty"`
	Journal      string          `json:"journal"`
	PublishClass string          `json:"publish_class"`
	Volume       string          `json:"volume"`
	Issue        string          `json:"issue"`
	PageRange    string          `json:"page_range"`
	Authors      string          `json:"authors"`
	AuthorsList  []Author        `json:"authors_list"`
	Status       string          `json:"status" validate:"omitempty,oneof=active disabled"`
	Reward       string          `json:"reward"`
	Note         string          `json:"note"`
	Abstract     string          `json:"abstract"`
	Keywords     string          `json:"keywords"`
	Citations    int             `json:"citation_count"`
	OpenAccess   bool            `json:"is_open_access"`
	Affiliations string          `json:"affiliations"`
	URL          string          `json:"url"`
	ImportedFrom string          `json:"imported_from"`
	RawData      json.RawMessage `json:"raw_data,omitempty"`
}

// Insert defaults.
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"

	RewardNone       = "none"
	NoteBulkSync     = "Imported via Bulk Sync"
	NoteSingleImport = "Imported from Scopus Search"
	ImportedScopus   = "scopus_api"
	ImportedManual   = "manual"
	DefaultFaculty   = "คณะสัตวแพทยศาสตร์"
)
