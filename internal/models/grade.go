package models

import "time"

// GradeKind distinguishes continuous assessment from exams. DEVOIR and
// INTERROGATION count as continuous assessment; COMPOSITION is the term exam
// and weighs double when both kinds are present.
type GradeKind string

const (
	GradeKindDevoir        GradeKind = "DEVOIR"
	GradeKindInterrogation GradeKind = "INTERROGATION"
	GradeKindComposition   GradeKind = "COMPOSITION"
)

// IsContinuous reports whether the kind belongs to the continuous bucket.
func (k GradeKind) IsContinuous() bool {
	return k == GradeKindDevoir || k == GradeKindInterrogation
}

// Grade is one graded assessment for one student in one class-subject-term
// scope. Grades are immutable once created, except for deletion.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	ClassSubjectID string    `db:"class_subject_id" json:"class_subject_id"`
	TermID         string    `db:"term_id" json:"term_id"`
	TeacherID      string    `db:"teacher_id" json:"teacher_id"`
	Kind           GradeKind `db:"kind" json:"kind"`
	Value          float64   `db:"value" json:"value"`
	Label          string    `db:"label" json:"label"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// GradeDetail enriches Grade with subject and teacher info.
type GradeDetail struct {
	Grade
	SubjectName string  `db:"subject_name" json:"subject_name"`
	TeacherName *string `db:"teacher_name" json:"teacher_name,omitempty"`
}

// GradeFilter allows querying of grade entries.
type GradeFilter struct {
	StudentID      string
	ClassSubjectID string
	TermID         string
	Kind           GradeKind
}
