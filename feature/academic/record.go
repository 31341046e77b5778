package academic

import "records-manager/core/reconcile"

// Student is a graduate student. student_id doubles as the storage key.
type Student struct {
	reconcile.SystemFields

	StudentID         string `json:"student_id" validate:"notblank"`
	FullNameTH        string `json:"full_name_th"`
	FirstNameEN       string `json:"first_name_en"`
	LastNameEN        string `json:"last_name_en"`
	ScopusID          string `json:"scopus_id"`
	Gender            string `json:"gender"`
	Nationality       string `json:"nationality"`
	DegreeLevel       string `json:"degree_level"`
	ProgramType       string `json:"program_type"`
	MajorCode         string `json:"major_code"`
	MajorName         string `json:"major_name"`
	AdvisorName       string `json:"advisor_name"`
	AdvisorDepartment string `json:"advisor_department"`
	AdmitSemester     string `json:"admit_semester"`
	AdmitYear         int    `json:"admit_year,omitempty"`
	CurrentStatus     string `json:"current_status"`
	StudyPlan         string `json:"study_plan"`
	ThesisTitleTH     string `json:"thesis_title_th"`
	ProposalExamDate  string `json:"proposal_exam_date"`
	EnglishTestPass   string `json:"english_test_pass"`
	GraduatedSemester string `json:"graduated_semester"`
	GraduatedYear     int    `json:"graduated_year,omitempty"`
}

// Publication is a student's published work.
type Publication struct {
	reconcile.SystemFields

	StudentID        string   `json:"student_id" validate:"notblank"`
	Title            string   `json:"publication_title" validate:"notblank"`
	JournalName      string   `json:"journal_name"`
	PublicationDate  string   `json:"publication_date"`
	Quartile         string   `json:"quartile"`
	PublicationType  string   `json:"publication_type"`
	Authors          []string `json:"authors"`
	Year             int      `json:"year,omitempty"`
	Weight           float64  `json:"weight,omitempty"`
	Volume           string   `json:"volume"`
	Issue            string   `json:"issue"`
	Pages            string   `json:"pages"`
	PublicationLevel string   `json:"publication_level"`
	DatabaseSource   string   `json:"database_source"`
}

// Progress is one milestone of a student's study, such as a proposal exam.
type Progress struct {
	reconcile.SystemFields

	StudentID     string `json:"student_id" validate:"notblank"`
	MilestoneType string `json:"milestone_type" validate:"notblank"`
	Status        string `json:"status"`
	ExamDate      string `json:"exam_date"`
	SubmitDate    string `json:"submit_date"`
	Semester      string `json:"semester"`
	AcademicYear  int    `json:"academic_year,omitempty"`
	Description   string `json:"description"`
}

// Advisor is a thesis advisor. advisor_id, when known, doubles as the storage key.
type Advisor struct {
	reconcile.SystemFields

	AdvisorID  string `json:"advisor_id"`
	Prefix     string `json:"prefix"`
	FullName   string `json:"full_name" validate:"notblank"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Faculty    string `json:"faculty"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ScopusID   string `json:"scopus_id"`
}

// Publication insert defaults.
const (
	DefaultPublicationType = "Journal"
	DefaultWeight          = 100
)
