package models

import "time"

// Term models a grading period (trimester) within an academic year.
// Sequence orders terms chronologically inside the year.
type Term struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Sequence     int       `db:"sequence" json:"sequence"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TermFilter defines filters supported by list endpoints.
type TermFilter struct {
	AcademicYear string
	IsActive     *bool
}
