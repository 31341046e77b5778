package research

import (
	"strconv"

	"records-manager/core/reconcile"
	"records-manager/feature/research/scopus"
)

// Adapter holds the identity and merge rules of research records.
//
// Identity is the Scopus EID, then a non-empty DOI. Bibliographic fields are
// owned by the source and replaced on every sync. Curation fields (reward, note,
// status, authors_list, title_th, faculty) keep their stored value unless the
// incoming record supplies one. Soft-deleted records are not match candidates,
// so a deleted publication that reappears in a sync comes back as a new record.
type Adapter struct {
	// Note is the insert default for note. Empty leaves note as given.
	Note string
}

var _ reconcile.Adapter[*Record] = Adapter{}

func (Adapter) Kind() reconcile.EntityKind { return reconcile.KindResearch }

func (Adapter) MatchKeys() []reconcile.MatchKey[*Record] {
	return []reconcile.MatchKey[*Record]{
		{Name: "scopus_eid", Extract: func(r *Record) string { return reconcile.Exact(r.ScopusEID) }},
		{Name: "doi", Extract: func(r *Record) string { return reconcile.Exact(r.DOI) }},
	}
}

func (Adapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (Adapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.TreatAsNew }

func (Adapter) NaturalKey(*Record) string { return "" }

func (Adapter) Merge(in, ex *Record) *Record {
	out := *in
	reconcile.KeepSystem(&out, ex)

	out.Reward = reconcile.Overlay(in.Reward, ex.Reward)
	out.Note = reconcile.Overlay(in.Note, ex.Note)
	out.Status = reconcile.Overlay(in.Status, ex.Status)
	out.TitleTH = reconcile.Overlay(in.TitleTH, ex.TitleTH)
	out.Faculty = reconcile.Overlay(in.Faculty, ex.Faculty)
	out.AuthorsList = reconcile.OverlaySlice(in.AuthorsList, ex.AuthorsList)
	out.IsDeleted = ex.IsDeleted
	return &out
}

func (a Adapter) Prepare(in *Record) *Record {
	out := *in
	out.Reward = reconcile.Default(in.Reward, RewardNone)
	if a.Note != "" {
		out.Note = reconcile.Default(in.Note, a.Note)
	}
	out.Status = reconcile.Default(in.Status, StatusActive)
	out.Faculty = reconcile.Default(in.Faculty, DefaultFaculty)
	out.ImportedFrom = reconcile.Default(in.ImportedFrom, ImportedManual)
	out.PublishClass = reconcile.Default(in.PublishClass, "Journal")
	if out.AuthorsList == nil {
		out.AuthorsList = []Author{}
	}
	reconcile.ClearSystem(&out)
	return &out
}

// FromPublication converts a search entry into an incoming record. Curation
// fields are left empty so that a merge keeps the stored values.
func FromPublication(p scopus.Publication) *Record {
	year := p.Year()
	return &Record{
		ScopusEID:    p.EID,
		DOI:          p.DOI,
		Title:        p.Title,
		Year:         year,
		AcademicYear: buddhistYear(year),
		CoverDate:    p.CoverDate,
		Journal:      p.Journal,
		PublishClass: reconcile.Default(p.AggregationType, "Journal"),
		Volume:       p.Volume,
		Issue:        p.Issue,
		PageRange:    p.PageRange,
		Authors:      reconcile.Default(p.Authors, "Unknown"),
		Abstract:     p.Abstract,
		Keywords:     p.Keywords,
		Citations:    p.CitationCount,
		OpenAccess:   p.OpenAccess,
		Affiliations: p.Affiliations,
		URL:          p.URL,
		ImportedFrom: ImportedScopus,
		RawData:      p.Raw,
	}
}

// buddhistYear converts a Gregorian year to the Thai academic calendar.
func buddhistYear(year string) string {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "-"
	}
	return strconv.Itoa(y + 543)
}
