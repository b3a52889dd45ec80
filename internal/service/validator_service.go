package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"learn_ledger/internal/domain"
	"learn_ledger/internal/logger"
	"learn_ledger/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultValidityWindow is how long a certificate verifies after completion.
const DefaultValidityWindow = 365 * 24 * time.Hour

// Catalog is the course/enrollment collaborator boundary. This subsystem only
// consumes completion signals from it.
type Catalog interface {
	GetEnrollment(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	ListEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error)
	CountCompleted(ctx context.Context, userID string) (int, error)
	GetCourse(ctx context.Context, courseID string) (*domain.Course, error)
}

// ProofValidator turns catalog completion records into verifiable
// certificates and answers the redemption eligibility predicate.
type ProofValidator struct {
	certificates *repository.CertificateRepository
	catalog      Catalog
	validity     time.Duration
	now          func() time.Time
}

func NewProofValidator(db *pgxpool.Pool, validity time.Duration) *ProofValidator {
	if validity <= 0 {
		validity = DefaultValidityWindow
	}
	return &ProofValidator{
		certificates: repository.NewCertificateRepository(db),
		catalog:      repository.NewCatalogRepository(db),
		validity:     validity,
		now:          time.Now,
	}
}

// ValidateCompletion checks whether a user's completion of a course can back
// a certificate. Invalid outcomes carry human-readable reasons instead of an
// error.
func (v *ProofValidator) ValidateCompletion(ctx context.Context, userID, courseID string) (*domain.ValidationResult, error) {
	result := &domain.ValidationResult{UserID: userID, CourseID: courseID, Errors: []string{}}

	enrollment, err := v.catalog.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			result.Errors = append(result.Errors, "No enrollment found for this user and course")
			return result, nil
		}
		return nil, err
	}

	if enrollment.Status != domain.EnrollmentCompleted {
		result.Errors = append(result.Errors, fmt.Sprintf("Course not completed. Current status: %s", enrollment.Status))
		return result, nil
	}
	if enrollment.CompletedAt == nil {
		result.Errors = append(result.Errors, "Completion date not recorded")
		return result, nil
	}

	result.CompletionDate = enrollment.CompletedAt

	cert, err := v.certificates.GetByUserCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if cert != nil {
		result.CertificateID = cert.CertificateID
		if !cert.Valid(v.now()) {
			result.Errors = append(result.Errors, "Certificate has expired")
			return result, nil
		}
	}

	result.IsValid = true
	return result, nil
}

// GenerateCertificate issues (or rotates) the certificate for a validated
// completion. The row is upserted by (user, course); hash and certificate id
// are regenerated on every call.
func (v *ProofValidator) GenerateCertificate(ctx context.Context, userID, courseID string) (*domain.Certificate, error) {
	validation, err := v.ValidateCompletion(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if !validation.IsValid {
		return nil, fmt.Errorf("cannot generate certificate: %v: %w", validation.Errors, domain.ErrNotEligible)
	}

	course, err := v.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	completedAt := *validation.CompletionDate
	now := v.now()

	cert := &domain.Certificate{
		UserID:           userID,
		CourseID:         courseID,
		CourseName:       course.Title,
		CompletionDate:   completedAt,
		CertificateID:    buildCertificateID(userID, courseID, now),
		VerificationHash: verificationHash(userID, courseID, completedAt),
		ExpiryDate:       completedAt.Add(v.validity),
	}
	if err := v.certificates.Upsert(ctx, cert); err != nil {
		return nil, err
	}

	CertificatesIssued.Inc()
	logger.Info("certificate issued", "user_id", userID, "course_id", courseID, "certificate_id", cert.CertificateID)
	return cert, nil
}

// CanRedeemTokens is the redemption gate: a user qualifies with at least one
// completed enrollment and at least one unexpired certificate. The two
// failure reasons are reported separately so callers can guide the user.
func (v *ProofValidator) CanRedeemTokens(ctx context.Context, userID string) (*domain.Eligibility, error) {
	elig := &domain.Eligibility{UserID: userID, Errors: []string{}}

	completed, err := v.catalog.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	elig.CompletedCourses = completed
	if completed == 0 {
		elig.Errors = append(elig.Errors, "No completed courses found. Complete at least one course to redeem tokens.")
		return elig, nil
	}

	validProofs, err := v.certificates.CountValid(ctx, userID, v.now())
	if err != nil {
		return nil, err
	}
	elig.TotalValidProofs = validProofs
	if validProofs == 0 {
		elig.Errors = append(elig.Errors, "No valid proof of knowledge found. Generate certificates for completed courses.")
		return elig, nil
	}

	elig.CanRedeem = true
	return elig, nil
}

// CompletionStatus maps enrollment plus certificate state for one course.
// COMPLETED downgrades to EXPIRED once the certificate's validity window has
// passed.
func (v *ProofValidator) CompletionStatus(ctx context.Context, userID, courseID string) (*domain.StatusDetails, error) {
	enrollment, err := v.catalog.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.StatusDetails{UserID: userID, CourseID: courseID, Status: domain.StatusNotStarted}, nil
		}
		return nil, err
	}

	cert, err := v.certificates.GetByUserCourse(ctx, userID, courseID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	return v.statusDetails(enrollment, cert), nil
}

// CompletionStatuses maps every enrollment the user has.
func (v *ProofValidator) CompletionStatuses(ctx context.Context, userID string) ([]domain.StatusDetails, error) {
	enrollments, err := v.catalog.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, err
	}
	certs, err := v.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	certByCourse := make(map[string]*domain.Certificate, len(certs))
	for i := range certs {
		certByCourse[certs[i].CourseID] = &certs[i]
	}

	details := make([]domain.StatusDetails, 0, len(enrollments))
	for i := range enrollments {
		details = append(details, *v.statusDetails(&enrollments[i], certByCourse[enrollments[i].CourseID]))
	}
	return details, nil
}

func (v *ProofValidator) statusDetails(enrollment *domain.Enrollment, cert *domain.Certificate) *domain.StatusDetails {
	d := &domain.StatusDetails{
		UserID:      enrollment.UserID,
		CourseID:    enrollment.CourseID,
		Status:      domain.StatusInProgress,
		Progress:    enrollment.Progress,
		EnrolledAt:  &enrollment.EnrolledAt,
		CompletedAt: enrollment.CompletedAt,
	}
	if cert != nil {
		d.CertificateID = cert.CertificateID
		d.ExpiryDate = &cert.ExpiryDate
	}
	if enrollment.Status == domain.EnrollmentCompleted {
		d.Status = domain.StatusCompleted
		if cert != nil && !cert.Valid(v.now()) {
			d.Status = domain.StatusExpired
		}
	}
	return d
}

// VerifyCertificate is the externally callable trust check. It returns true
// only when a certificate exists, is unexpired, and the supplied hash
// matches; the error names which check failed.
func (v *ProofValidator) VerifyCertificate(ctx context.Context, userID, courseID, suppliedHash string) (bool, error) {
	cert, err := v.certificates.GetByUserCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, domain.ErrNotFound
		}
		return false, err
	}

	if !cert.Valid(v.now()) {
		return false, domain.ErrCertificateExpired
	}
	if cert.VerificationHash != suppliedHash {
		logger.Warn("certificate hash mismatch", "user_id", userID, "course_id", courseID)
		return false, domain.ErrCertificateMismatch
	}
	return true, nil
}

// UserProofs returns the user's unexpired certificates with course names.
func (v *ProofValidator) UserProofs(ctx context.Context, userID string) ([]domain.Certificate, error) {
	certs, err := v.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := v.now()
	valid := make([]domain.Certificate, 0, len(certs))
	for _, c := range certs {
		if !c.Valid(now) {
			continue
		}
		if course, err := v.catalog.GetCourse(ctx, c.CourseID); err == nil {
			c.CourseName = course.Title
		}
		valid = append(valid, c)
	}
	return valid, nil
}

// ProofStatistics summarizes a user's certificates and completions.
func (v *ProofValidator) ProofStatistics(ctx context.Context, userID string) (*domain.ProofStats, error) {
	certs, err := v.certificates.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := v.catalog.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.ProofStats{TotalProofs: len(certs), CompletedCourses: completed}
	now := v.now()
	for _, c := range certs {
		if c.Valid(now) {
			stats.ValidProofs++
		} else {
			stats.ExpiredProofs++
		}
	}
	return stats, nil
}

// RevokeCertificate expires a certificate immediately without deleting it.
func (v *ProofValidator) RevokeCertificate(ctx context.Context, userID, courseID string) error {
	return v.certificates.SetExpiry(ctx, userID, courseID, v.now())
}

// verificationHash is a deterministic digest of the completion identity; any
// holder of the certificate fields can recompute and compare it.
func verificationHash(userID, courseID string, completedAt time.Time) string {
	data := userID + ":" + courseID + ":" + strconv.FormatInt(completedAt.UnixMilli(), 10)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// buildCertificateID derives the human-shareable identifier.
func buildCertificateID(userID, courseID string, issuedAt time.Time) string {
	return fmt.Sprintf("CERT-%s-%s-%d", truncate(userID, 8), truncate(courseID, 8), issuedAt.UnixMilli())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
