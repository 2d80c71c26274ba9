package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment. Only ACTIVE
// enrollments participate in bulletin generation.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive      EnrollmentStatus = "ACTIVE"
	EnrollmentStatusTransferred EnrollmentStatus = "TRANSFERRED"
	EnrollmentStatusWithdrawn   EnrollmentStatus = "WITHDRAWN"
	EnrollmentStatusGraduated   EnrollmentStatus = "GRADUATED"
)

// Enrollment captures a student's registration to a class for an academic year.
type Enrollment struct {
	ID           string           `db:"id" json:"id"`
	StudentID    string           `db:"student_id" json:"student_id"`
	ClassID      string           `db:"class_id" json:"class_id"`
	AcademicYear string           `db:"academic_year" json:"academic_year"`
	JoinedAt     time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt       *time.Time       `db:"left_at" json:"left_at,omitempty"`
	Status       EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentName      string `db:"student_name" json:"student_name"`
	StudentMatricule string `db:"student_matricule" json:"student_matricule"`
	ClassName        string `db:"class_name" json:"class_name"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	ClassID      string
	AcademicYear string
	Status       EnrollmentStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
