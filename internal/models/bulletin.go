package models

import "time"

// Bulletin is the computed report card for one (student, term) pair. It is
// unique per that pair; regeneration upserts in place.
type Bulletin struct {
	ID               string    `db:"id" json:"id"`
	StudentID        string    `db:"student_id" json:"student_id"`
	ClassID          string    `db:"class_id" json:"class_id"`
	TermID           string    `db:"term_id" json:"term_id"`
	GeneralAverage   float64   `db:"general_average" json:"general_average"`
	Rank             int       `db:"rank" json:"rank"`
	TotalStudents    int       `db:"total_students" json:"total_students"`
	ClassAverage     float64   `db:"class_average" json:"class_average"`
	TeacherComment   *string   `db:"teacher_comment" json:"teacher_comment,omitempty"`
	PrincipalComment *string   `db:"principal_comment" json:"principal_comment,omitempty"`
	Decision         *string   `db:"decision" json:"decision,omitempty"`
	GeneratedAt      time.Time `db:"generated_at" json:"generated_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// BulletinSubjectResult is the per-subject breakdown row owned by exactly one
// bulletin. Rows are fully replaced on regeneration.
type BulletinSubjectResult struct {
	ID              string  `db:"id" json:"id"`
	BulletinID      string  `db:"bulletin_id" json:"bulletin_id"`
	ClassSubjectID  string  `db:"class_subject_id" json:"class_subject_id"`
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	SubjectCategory string  `db:"subject_category" json:"subject_category"`
	Average         float64 `db:"average" json:"average"`
	Coefficient     int     `db:"coefficient" json:"coefficient"`
	Total           float64 `db:"total" json:"total"`
	ClassAverage    float64 `db:"class_average" json:"class_average"`
	ClassMin        float64 `db:"class_min" json:"class_min"`
	ClassMax        float64 `db:"class_max" json:"class_max"`
	Appreciation    string  `db:"appreciation" json:"appreciation"`
	TeacherName     *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// BulletinDetail carries a bulletin with its subject rows and the display
// context needed by consumers.
type BulletinDetail struct {
	Bulletin
	StudentName      string                  `db:"student_name" json:"student_name"`
	StudentMatricule string                  `db:"student_matricule" json:"student_matricule"`
	ClassName        string                  `db:"class_name" json:"class_name"`
	TermName         string                  `db:"term_name" json:"term_name"`
	TermSequence     int                     `db:"term_sequence" json:"term_sequence"`
	AcademicYear     string                  `db:"academic_year" json:"academic_year"`
	Subjects         []BulletinSubjectResult `json:"subjects"`
}

// BulletinFilter scopes bulletin list queries.
type BulletinFilter struct {
	ClassID   string
	TermID    string
	StudentID string
}

// UpdateBulletinCommentsRequest carries the editable bulletin fields.
type UpdateBulletinCommentsRequest struct {
	TeacherComment   *string `json:"teacher_comment"`
	PrincipalComment *string `json:"principal_comment"`
	Decision         *string `json:"decision"`
}
