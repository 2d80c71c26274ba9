package models

import "time"

// Class represents an academic class or section.
type Class struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Level     string    `db:"level" json:"level"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubject maps a subject to a class with the weighting coefficient used
// by bulletin computation. Coefficient is always at least 1.
type ClassSubject struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Coefficient int       `db:"coefficient" json:"coefficient"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ClassSubjectDetail enriches ClassSubject with subject and teacher info for
// responses and for bulletin generation.
type ClassSubjectDetail struct {
	ClassSubject
	SubjectName     string  `db:"subject_name" json:"subject_name"`
	SubjectCategory string  `db:"subject_category" json:"subject_category"`
	TeacherName     *string `db:"teacher_name" json:"teacher_name,omitempty"`
}
