package academic

import (
	"strings"

	"records-manager/core/reconcile"
)

// Incoming values overlay stored ones field by field: a blank or "-" cell keeps
// the stored value, anything else replaces it.

// StudentAdapter matches students by student_id and updates them in place.
// A soft-deleted student that reappears in an import is restored.
type StudentAdapter struct{}

var _ reconcile.Adapter[*Student] = StudentAdapter{}

func (StudentAdapter) Kind() reconcile.EntityKind { return reconcile.KindStudent }

func (StudentAdapter) MatchKeys() []reconcile.MatchKey[*Student] {
	return []reconcile.MatchKey[*Student]{
		{Name: "student_id", Extract: func(s *Student) string { return reconcile.Exact(s.StudentID) }},
	}
}

func (StudentAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (StudentAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.Resurrect }

func (StudentAdapter) NaturalKey(s *Student) string { return strings.TrimSpace(s.StudentID) }

func (StudentAdapter) Merge(in, ex *Student) *Student {
	out := *ex
	out.FullNameTH = reconcile.Overlay(in.FullNameTH, ex.FullNameTH)
	out.FirstNameEN = reconcile.Overlay(in.FirstNameEN, ex.FirstNameEN)
	out.LastNameEN = reconcile.Overlay(in.LastNameEN, ex.LastNameEN)
	out.ScopusID = reconcile.Overlay(in.ScopusID, ex.ScopusID)
	out.Gender = reconcile.Overlay(in.Gender, ex.Gender)
	out.Nationality = reconcile.Overlay(in.Nationality, ex.Nationality)
	out.DegreeLevel = reconcile.Overlay(in.DegreeLevel, ex.DegreeLevel)
	out.ProgramType = reconcile.Overlay(in.ProgramType, ex.ProgramType)
	out.MajorCode = reconcile.Overlay(in.MajorCode, ex.MajorCode)
	out.MajorName = reconcile.Overlay(in.MajorName, ex.MajorName)
	out.AdvisorName = reconcile.Overlay(in.AdvisorName, ex.AdvisorName)
	out.AdvisorDepartment = reconcile.Overlay(in.AdvisorDepartment, ex.AdvisorDepartment)
	out.AdmitSemester = reconcile.Overlay(in.AdmitSemester, ex.AdmitSemester)
	out.AdmitYear = reconcile.OverlayInt(in.AdmitYear, ex.AdmitYear)
	out.CurrentStatus = reconcile.Overlay(in.CurrentStatus, ex.CurrentStatus)
	out.StudyPlan = reconcile.Overlay(in.StudyPlan, ex.StudyPlan)
	out.ThesisTitleTH = reconcile.Overlay(in.ThesisTitleTH, ex.ThesisTitleTH)
	out.ProposalExamDate = reconcile.Overlay(in.ProposalExamDate, ex.ProposalExamDate)
	out.EnglishTestPass = reconcile.Overlay(in.EnglishTestPass, ex.EnglishTestPass)
	out.GraduatedSemester = reconcile.Overlay(in.GraduatedSemester, ex.GraduatedSemester)
	out.GraduatedYear = reconcile.OverlayInt(in.GraduatedYear, ex.GraduatedYear)
	out.IsDeleted = false
	return &out
}

func (StudentAdapter) Prepare(in *Student) *Student {
	out := *in
	out.StudentID = strings.TrimSpace(in.StudentID)
	reconcile.ClearSystem(&out)
	return &out
}

// PublicationAdapter matches publications by student_id and normalized title.
// A match is skipped: publications are never overwritten by an import.
type PublicationAdapter struct{}

var _ reconcile.Adapter[*Publication] = PublicationAdapter{}

func (PublicationAdapter) Kind() reconcile.EntityKind { return reconcile.KindPublication }

func (PublicationAdapter) MatchKeys() []reconcile.MatchKey[*Publication] {
	return []reconcile.MatchKey[*Publication]{
		{Name: "student_id+title", Extract: func(p *Publication) string {
			return reconcile.Composite(reconcile.Exact(p.StudentID), reconcile.Normalized(p.Title))
		}},
	}
}

func (PublicationAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchSkip }

func (PublicationAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.TreatAsNew }

func (PublicationAdapter) NaturalKey(*Publication) string { return "" }

// Merge keeps the stored publication whole. Matches are skipped before a merge
// is needed.
func (PublicationAdapter) Merge(_, ex *Publication) *Publication {
	out := *ex
	out.Authors = append([]string(nil), ex.Authors...)
	return &out
}

func (PublicationAdapter) Prepare(in *Publication) *Publication {
	out := *in
	out.PublicationType = reconcile.Default(in.PublicationType, DefaultPublicationType)
	if out.Weight == 0 {
		out.Weight = DefaultWeight
	}
	if out.Authors == nil {
		out.Authors = []string{}
	}
	reconcile.ClearSystem(&out)
	return &out
}

// ProgressAdapter matches milestones by student_id and milestone_type and
// updates the stored milestone, typically its status.
type ProgressAdapter struct{}

var _ reconcile.Adapter[*Progress] = ProgressAdapter{}

func (ProgressAdapter) Kind() reconcile.EntityKind { return reconcile.KindProgress }

func (ProgressAdapter) MatchKeys() []reconcile.MatchKey[*Progress] {
	return []reconcile.MatchKey[*Progress]{
		{Name: "student_id+milestone_type", Extract: func(p *Progress) string {
			return reconcile.Composite(reconcile.Exact(p.StudentID), reconcile.Exact(p.MilestoneType))
		}},
	}
}

func (ProgressAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (ProgressAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.TreatAsNew }

func (ProgressAdapter) NaturalKey(*Progress) string { return "" }

func (ProgressAdapter) Merge(in, ex *Progress) *Progress {
	out := *ex
	out.Status = reconcile.Overlay(in.Status, ex.Status)
	out.ExamDate = reconcile.Overlay(in.ExamDate, ex.ExamDate)
	out.SubmitDate = reconcile.Overlay(in.SubmitDate, ex.SubmitDate)
	out.Semester = reconcile.Overlay(in.Semester, ex.Semester)
	out.AcademicYear = reconcile.OverlayInt(in.AcademicYear, ex.AcademicYear)
	out.Description = reconcile.Overlay(in.Description, ex.Description)
	return &out
}

func (ProgressAdapter) Prepare(in *Progress) *Progress {
	out := *in
	reconcile.ClearSystem(&out)
	return &out
}

// AdvisorAdapter matches advisors by advisor_id, then by normalized full name.
// Advisors with an id are stored under it, and a deleted advisor is restored
// when it reappears.
type AdvisorAdapter struct{}

var _ reconcile.Adapter[*Advisor] = AdvisorAdapter{}

func (AdvisorAdapter) Kind() reconcile.EntityKind { return reconcile.KindAdvisor }

func (AdvisorAdapter) MatchKeys() []reconcile.MatchKey[*Advisor] {
	return []reconcile.MatchKey[*Advisor]{
		{Name: "advisor_id", Extract: func(a *Advisor) string { return reconcile.Exact(a.AdvisorID) }},
		{Name: "full_name", Extract: func(a *Advisor) string { return reconcile.Normalized(a.FullName) }},
	}
}

func (AdvisorAdapter) OnMatch() reconcile.MatchAction { return reconcile.OnMatchUpdate }

func (AdvisorAdapter) SoftDelete() reconcile.SoftDeletePolicy { return reconcile.Resurrect }

func (AdvisorAdapter) NaturalKey(a *Advisor) string { return strings.TrimSpace(a.AdvisorID) }

func (AdvisorAdapter) Merge(in, ex *Advisor) *Advisor {
	out := *ex
	out.AdvisorID = reconcile.Overlay(in.AdvisorID, ex.AdvisorID)
	out.Prefix = reconcile.Overlay(in.Prefix, ex.Prefix)
	out.FullName = reconcile.Overlay(in.FullName, ex.FullName)
	out.FirstName = reconcile.Overlay(in.FirstName, ex.FirstName)
	out.LastName = reconcile.Overlay(in.LastName, ex.LastName)
	out.Department = reconcile.Overlay(in.Department, ex.Department)
	out.Faculty = reconcile.Overlay(in.Faculty, ex.Faculty)
	out.Email = reconcile.Overlay(in.Email, ex.Email)
	out.Phone = reconcile.Overlay(in.Phone, ex.Phone)
	out.ScopusID = reconcile.Overlay(in.ScopusID, ex.ScopusID)
	out.IsDeleted = false
	return &out
}

func (AdvisorAdapter) Prepare(in *Advisor) *Advisor {
	out := *in
	reconcile.ClearSystem(&out)
	return &out
}
