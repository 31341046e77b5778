package academic

import (
	"fmt"
	"io"
	"strings"

	"records-manager/core/utils"

	"github.com/xuri/excelize/v2"
)

// Sheet names written on export. Import finds sheets by a case-insensitive
// English or Thai name fragment, so renamed sheets such as "Students 2024" still load.
const (
	SheetStudents     = "Students"
	SheetPublications = "Publications"
	SheetProgress     = "Progress"
	SheetAdvisors     = "Advisors"
)

// ContentTypeXLSX is the MIME type of exported workbooks.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// column binds one record field to its sheet headers. The first header is the
// one written on export; every header is accepted on import.
type column[T any] struct {
	headers []string
	get     func(*T) any
	set     func(*T, string)
}

type sheet[T any] struct {
	name      string
	fragments []string
	columns   []column[T]
	// complete reports whether a parsed row carries its required fields.
	complete func(*T) bool
}

func intCell(v int) any {
	if v == 0 {
		return ""
	}
	return v
}

// cleanStudentID keeps the digits and dashes of a student id cell.
func cleanStudentID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
}

var studentSheet = sheet[Student]{
	name:      SheetStudents,
	fragments: []string{"student", "นิสิต"},
	columns: []column[Student]{
		{[]string{"รหัสนิสิต", "Student ID", "student_id"}, func(s *Student) any { return s.StudentID }, func(s *Student, v string) { s.StudentID = cleanStudentID(v) }},
		{[]string{"ชื่อ", "Name", "full_name_th"}, func(s *Student) any { return s.FullNameTH }, func(s *Student, v string) { s.FullNameTH = v }},
		{[]string{"First Name (EN)", "first_name_en"}, func(s *Student) any { return s.FirstNameEN }, func(s *Student, v string) { s.FirstNameEN = v }},
		{[]string{"Last Name (EN)", "last_name_en"}, func(s *Student) any { return s.LastNameEN }, func(s *Student, v string) { s.LastNameEN = v }},
		{[]string{"Scopus ID", "scopus_id"}, func(s *Student) any { return s.ScopusID }, func(s *Student, v string) { s.ScopusID = v }},
		{[]string{"เพศ", "gender"}, func(s *Student) any { return s.Gender }, func(s *Student, v string) { s.Gender = v }},
		{[]string{"สัญชาติ", "nationality"}, func(s *Student) any { return s.Nationality }, func(s *Student, v string) { s.Nationality = v }},
		{[]string{"ระดับปริญญา", "ระดับการศึกษา", "degree_level"}, func(s *Student) any { return s.DegreeLevel }, func(s *Student, v string) { s.DegreeLevel = v }},
		{[]string{"หลักสูตร", "ประเภทหลักสูตร", "program_type"}, func(s *Student) any { return s.ProgramType }, func(s *Student, v string) { s.ProgramType = v }},
		{[]string{"รหัสสาขา", "รหัสสาขาวิชา", "major_code"}, func(s *Student) any { return s.MajorCode }, func(s *Student, v string) { s.MajorCode = v }},
		{[]string{"สาขาวิชา", "major_name"}, func(s *Student) any { return s.MajorName }, func(s *Student, v string) { s.MajorName = v }},
		{[]string{"อาจารย์ที่ปรึกษา วิทยานิพนธ์หลัก", "อาจารย์ที่ปรึกษา", "advisor_name"}, func(s *Student) any { return s.AdvisorName }, func(s *Student, v string) { s.AdvisorName = v }},
		{[]string{"ภาควิชาที่ อาจารย์ที่ปรึกษาสังกัด", "ภาควิชา", "advisor_department"}, func(s *Student) any { return s.AdvisorDepartment }, func(s *Student, v string) { s.AdvisorDepartment = v }},
		{[]string{"ภาคการศึกษา ที่เข้าศึกษา", "ภาคการศึกษาที่เข้า", "admit_semester"}, func(s *Student) any { return s.AdmitSemester }, func(s *Student, v string) { s.AdmitSemester = v }},
		{[]string{"ปีการศึกษา ที่เข้าศึกษา", "ปีการศึกษาที่เข้า", "admit_year"}, func(s *Student) any { return intCell(s.AdmitYear) }, func(s *Student, v string) { s.AdmitYear = utils.ToInt(v) }},
		{[]string{"สถานะ ปัจจุบัน", "สถานะภาพ", "current_status"}, func(s *Student) any { return s.CurrentStatus }, func(s *Student, v string) { s.CurrentStatus = v }},
		{[]string{"แผน การเรียน", "แผนการศึกษา", "study_plan"}, func(s *Student) any { return s.StudyPlan }, func(s *Student, v string) { s.StudyPlan = v }},
		{[]string{"หัวข้อวิทยานิพนธ์", "thesis_title_th"}, func(s *Student) any { return s.ThesisTitleTH }, func(s *Student, v string) { s.ThesisTitleTH = v }},
		{[]string{"วันที่อนุมัติโครงร่าง", "วันที่สอบหัวข้อ", "proposal_exam_date"}, func(s *Student) any { return s.ProposalExamDate }, func(s *Student, v string) { s.ProposalExamDate = v }},
		{[]string{"ผลสอบภาษาอังกฤษ", "english_test_pass"}, func(s *Student) any { return s.EnglishTestPass }, func(s *Student, v string) { s.EnglishTestPass = v }},
		{[]string{"ภาคจบการศึกษา", "graduated_semester"}, func(s *Student) any { return s.GraduatedSemester }, func(s *Student, v string) { s.GraduatedSemester = v }},
		{[]string{"ปีจบการศึกษา", "graduated_year"}, func(s *Student) any { return intCell(s.GraduatedYear) }, func(s *Student, v string) { s.GraduatedYear = utils.ToInt(v) }},
	},
	complete: func(s *Student) bool { return s.StudentID != "" && s.FullNameTH != "" },
}

var publicationSheet = sheet[Publication]{
	name:      SheetPublications,
	fragments: []string{"publication", "ผลงาน"},
	columns: []column[Publication]{
		{[]string{"รหัสนิสิต", "Student ID", "student_id"}, func(p *Publication) any { return p.StudentID }, func(p *Publication, v string) { p.StudentID = cleanStudentID(v) }},
		{[]string{"ชื่อบทความ", "Title", "publication_title"}, func(p *Publication) any { return p.Title }, func(p *Publication, v string) { p.Title = v }},
		{[]string{"ชื่อวารสาร", "วารสาร", "Journal", "journal_name"}, func(p *Publication) any { return p.JournalName }, func(p *Publication, v string) { p.JournalName = v }},
		{[]string{"วันที่ตีพิมพ์", "Date", "publication_date"}, func(p *Publication) any { return p.PublicationDate }, func(p *Publication, v string) { p.PublicationDate = v }},
		{[]string{"Quartile", "Q", "quartile"}, func(p *Publication) any { return p.Quartile }, func(p *Publication, v string) { p.Quartile = v }},
		{[]string{"ประเภท", "Type", "publication_type"}, func(p *Publication) any { return p.PublicationType }, func(p *Publication, v string) { p.PublicationType = v }},
		{[]string{"ผู้แต่ง", "Authors", "authors"}, func(p *Publication) any { return strings.Join(p.Authors, "; ") }, func(p *Publication, v string) { p.Authors = splitList(v) }},
		{[]string{"ปีที่ตีพิมพ์", "ปี", "Year", "year"}, func(p *Publication) any { return intCell(p.Year) }, func(p *Publication, v string) { p.Year = utils.ToInt(v) }},
		{[]string{"น้ำหนัก (%)", "น้ำหนัก", "Weight", "weight"}, func(p *Publication) any { return p.Weight }, func(p *Publication, v string) { p.Weight = utils.ToFloat(v) }},
		{[]string{"ปีที่ (Volume)", "Volume", "volume"}, func(p *Publication) any { return p.Volume }, func(p *Publication, v string) { p.Volume = v }},
		{[]string{"ฉบับที่ (Issue)", "ฉบับที่", "Issue", "issue"}, func(p *Publication) any { return p.Issue }, func(p *Publication, v string) { p.Issue = v }},
		{[]string{"เลขหน้า", "Pages", "pages"}, func(p *Publication) any { return p.Pages }, func(p *Publication, v string) { p.Pages = v }},
		{[]string{"ระดับการเผยแพร่", "publication_level"}, func(p *Publication) any { return p.PublicationLevel }, func(p *Publication, v string) { p.PublicationLevel = v }},
		{[]string{"ฐานข้อมูล", "database_source"}, func(p *Publication) any { return p.DatabaseSource }, func(p *Publication, v string) { p.DatabaseSource = v }},
	},
	complete: func(p *Publication) bool { return p.StudentID != "" && p.Title != "" },
}

var progressSheet = sheet[Progress]{
	name:      SheetProgress,
	fragments: []string{"progress", "ความก้าวหน้า"},
	columns: []column[Progress]{
		{[]string{"รหัสนิสิต", "Student ID", "student_id"}, func(p *Progress) any { return p.StudentID }, func(p *Progress, v string) { p.StudentID = cleanStudentID(v) }},
		{[]string{"หัวข้อ", "Milestone", "milestone_type"}, func(p *Progress) any { return p.MilestoneType }, func(p *Progress, v string) { p.MilestoneType = v }},
		{[]string{"สถานะ", "Status", "status"}, func(p *Progress) any { return p.Status }, func(p *Progress, v string) { p.Status = v }},
		{[]string{"วันที่สอบ", "Exam Date", "exam_date"}, func(p *Progress) any { return p.ExamDate }, func(p *Progress, v string) { p.ExamDate = v }},
		{[]string{"วันที่ยื่น", "Submit Date", "submit_date"}, func(p *Progress) any { return p.SubmitDate }, func(p *Progress, v string) { p.SubmitDate = v }},
		{[]string{"ภาคการศึกษา", "Semester", "semester"}, func(p *Progress) any { return p.Semester }, func(p *Progress, v string) { p.Semester = v }},
		{[]string{"ปีการศึกษา", "Year", "academic_year"}, func(p *Progress) any { return intCell(p.AcademicYear) }, func(p *Progress, v string) { p.AcademicYear = utils.ToInt(v) }},
		{[]string{"รายละเอียด", "Description", "description"}, func(p *Progress) any { return p.Description }, func(p *Progress, v string) { p.Description = v }},
	},
	complete: func(p *Progress) bool { return p.StudentID != "" && p.MilestoneType != "" },
}

var advisorSheet = sheet[Advisor]{
	name:      SheetAdvisors,
	fragments: []string{"advisor", "อาจารย์"},
	columns: []column[Advisor]{
		{[]string{"รหัสอาจารย์", "Advisor ID", "ID", "advisor_id"}, func(a *Advisor) any { return a.AdvisorID }, func(a *Advisor, v string) { a.AdvisorID = v }},
		{[]string{"คำนำหน้า", "Prefix", "ตำแหน่งทางวิชาการ", "prefix"}, func(a *Advisor) any { return a.Prefix }, func(a *Advisor, v string) { a.Prefix = v }},
		{[]string{"ชื่อ-นามสกุล", "Full Name", "ชื่อ-สกุล", "full_name"}, func(a *Advisor) any { return a.FullName }, func(a *Advisor, v string) { a.FullName = v }},
		{[]string{"ชื่อ", "First Name", "first_name"}, func(a *Advisor) any { return a.FirstName }, func(a *Advisor, v string) { a.FirstName = v }},
		{[]string{"นามสกุล", "Last Name", "last_name"}, func(a *Advisor) any { return a.LastName }, func(a *Advisor, v string) { a.LastName = v }},
		{[]string{"ภาควิชา", "Department", "department"}, func(a *Advisor) any { return a.Department }, func(a *Advisor, v string) { a.Department = v }},
		{[]string{"คณะ", "Faculty", "faculty"}, func(a *Advisor) any { return a.Faculty }, func(a *Advisor, v string) { a.Faculty = v }},
		{[]string{"อีเมล", "Email", "email"}, func(a *Advisor) any { return a.Email }, func(a *Advisor, v string) { a.Email = v }},
		{[]string{"โทรศัพท์", "Phone", "phone"}, func(a *Advisor) any { return a.Phone }, func(a *Advisor, v string) { a.Phone = v }},
		{[]string{"Scopus ID", "scopus_id"}, func(a *Advisor) any { return a.ScopusID }, func(a *Advisor, v string) { a.ScopusID = v }},
	},
	complete: func(a *Advisor) bool { return a.FullName != "" },
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '\n' }) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExportExcel writes data as a workbook with one sheet per kind.
func ExportExcel(data *Dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetStudents); err != nil {
		return nil, err
	}
	if err := writeSheet(f, studentSheet, data.Students); err != nil {
		return nil, err
	}
	if err := writeSheet(f, publicationSheet, data.Publications); err != nil {
		return nil, err
	}
	if err := writeSheet(f, progressSheet, data.Progress); err != nil {
		return nil, err
	}
	if err := writeSheet(f, advisorSheet, data.Advisors); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet[T any](f *excelize.File, sh sheet[T], recs []*T) error {
	if idx, _ := f.GetSheetIndex(sh.name); idx < 0 {
		if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sh.name, err)
		}
	}

	header := make([]any, len(sh.columns))
	for i, c := range sh.columns {
		header[i] = c.headers[0]
	}
	if err := f.SetSheetRow(sh.name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sh.name, err)
	}

	for r, rec := range recs {
		row := make([]any, len(sh.columns))
		for i, c := range sh.columns {
			row[i] = c.get(rec)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sh.name, r+2, err)
		}
	}
	return nil
}

// ParseExcel reads a workbook exported by ExportExcel or filled in from the
// master template. Rows missing a required field are dropped and reported in
// the returned warnings. A workbook without any usable row is an error.
func ParseExcel(r io.Reader) (*Dataset, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	defer f.Close()

	var warnings []string
	data := &Dataset{}
	sheets := f.GetSheetList()

	if data.Students, err = readSheet(f, sheets, studentSheet, &warnings); err != nil {
		return nil, nil, err
	}
	if data.Publications, err = readSheet(f, sheets, publicationSheet, &warnings); err != nil {
		return nil, nil, err
	}
	if data.Progress, err = readSheet(f, sheets, progressSheet, &warnings); err != nil {
		return nil, nil, err
	}
	if data.Advisors, err = readSheet(f, sheets, advisorSheet, &warnings); err != nil {
		return nil, nil, err
	}

	if data.Empty() {
		return nil, warnings, fmt.Errorf("%w: no data in the Students, Publications, Progress or Advisors sheets", ErrInvalidBackup)
	}
	return data, warnings, nil
}

func findSheet(sheets, fragments []string) string {
	for _, name := range sheets {
		lower := strings.ToLower(name)
		for _, frag := range fragments {
			if strings.Contains(lower, frag) {
				return name
			}
		}
	}
	return ""
}

func readSheet[T any](f *excelize.File, sheets []string, sh sheet[T], warnings *[]string) ([]*T, error) {
	name := findSheet(sheets, sh.fragments)
	if name == "" {
		return nil, nil
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet %s: %w", name, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	byHeader := make(map[string]int)
	for i, c := range sh.columns {
		for _, h := range c.headers {
			byHeader[h] = i
		}
	}
	cols := make([]int, len(rows[0]))
	for i, h := range rows[0] {
		cols[i] = -1
		if idx, ok := byHeader[strings.TrimSpace(h)]; ok {
			cols[i] = idx
		}
	}

	var out []*T
	for n, row := range rows[1:] {
		rec := new(T)
		filled := false
		for i, cell := range row {
			if i >= len(cols) || cols[i] < 0 {
				continue
			}
			v := strings.TrimSpace(cell)
			if v == "" || v == "-" {
				continue
			}
			sh.columns[cols[i]].set(rec, v)
			filled = true
		}
		if !filled {
			continue
		}
		if !sh.complete(rec) {
			*warnings = append(*warnings, fmt.Sprintf("%s row %d: missing required fields", sh.name, n+2))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
