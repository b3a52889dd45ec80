package domain

import "time"

// EnrollmentStatus is reported by the course catalog collaborator.
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
)

// Enrollment is the catalog's view of a user's relationship to a course.
// This subsystem never writes it, only consumes the completed signal.
type Enrollment struct {
	UserID      string           `db:"user_id" json:"user_id"`
	CourseID    string           `db:"course_id" json:"course_id"`
	Status      EnrollmentStatus `db:"status" json:"status"`
	Progress    int              `db:"progress" json:"progress"`
	EnrolledAt  time.Time        `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt *time.Time       `db:"completed_at" json:"completed_at,omitempty"`
}

// Course carries the display fields this subsystem needs from the catalog.
type Course struct {
	ID    string `db:"id" json:"id"`
	Title string `db:"title" json:"title"`
}
