package domain

import "time"

// Certificate is a verifiable proof that a user completed a course. The row
// is unique per (user_id, course_id); re-issuing rotates certificate_id and
// verification_hash but keeps the row identity. An expired certificate is
// kept, it just stops verifying.
type Certificate struct {
	ID               int64     `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	CourseID         string    `db:"course_id" json:"course_id"`
	CourseName       string    `db:"-" json:"course_name,omitempty"`
	CompletionDate   time.Time `db:"completion_date" json:"completion_date"`
	CertificateID    string    `db:"certificate_id" json:"certificate_id"`
	VerificationHash string    `db:"verification_hash" json:"verification_hash"`
	ExpiryDate       time.Time `db:"expiry_date" json:"expiry_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Valid reports whether the certificate is still within its validity window.
func (c *Certificate) Valid(now time.Time) bool {
	return now.Before(c.ExpiryDate)
}

// CompletionStatus maps enrollment + certificate state for a user/course pair.
type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "NOT_STARTED"
	StatusInProgress CompletionStatus = "IN_PROGRESS"
	StatusCompleted  CompletionStatus = "COMPLETED"
	StatusExpired    CompletionStatus = "EXPIRED"
)

// ValidationResult is the outcome of checking a completion record.
type ValidationResult struct {
	IsValid        bool       `json:"is_valid"`
	UserID         string     `json:"user_id"`
	CourseID       string     `json:"course_id"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	CertificateID  string     `json:"certificate_id,omitempty"`
	Errors         []string   `json:"errors"`
}

// Eligibility is the redemption gate verdict for a user.
type Eligibility struct {
	CanRedeem        bool     `json:"can_redeem"`
	UserID           string   `json:"user_id"`
	CompletedCourses int      `json:"completed_courses"`
	TotalValidProofs int      `json:"total_valid_proofs"`
	Errors           []string `json:"errors"`
}

// StatusDetails describes where a user stands on one course.
type StatusDetails struct {
	UserID        string           `json:"user_id"`
	CourseID      string           `json:"course_id"`
	Status        CompletionStatus `json:"status"`
	Progress      int              `json:"progress"`
	EnrolledAt    *time.Time       `json:"enrolled_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	CertificateID string           `json:"certificate_id,omitempty"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
}

// ProofStats summarizes a user's certificates.
type ProofStats struct {
	TotalProofs      int `json:"total_proofs"`
	ValidProofs      int `json:"valid_proofs"`
	ExpiredProofs    int `json:"expired_proofs"`
	CompletedCourses int `json:"completed_courses"`
}
