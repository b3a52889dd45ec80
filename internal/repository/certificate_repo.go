package repository

import (
	"context"
	"errors"
	"time"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CertificateRepository struct {
	db *pgxpool.Pool
}

func NewCertificateRepository(db *pgxpool.Pool) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Upsert inserts or refreshes the certificate keyed by (user_id, course_id).
// Re-issuance rotates certificate_id, verification_hash and expiry_date while
// keeping the row identity.
func (r *CertificateRepository) Upsert(ctx context.Context, c *domain.Certificate) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO certificates (user_id, course_id, completion_date, certificate_id, verification_hash, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			certificate_id = EXCLUDED.certificate_id,
			verification_hash = EXCLUDED.verification_hash,
			expiry_date = EXCLUDED.expiry_date,
			updated_at = now()
		RETURNING id, created_at, updated_at
	`, c.UserID, c.CourseID, c.CompletionDate, c.CertificateID, c.VerificationHash, c.ExpiryDate,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetByUserCourse retrieves the certificate for a user/course pair.
func (r *CertificateRepository) GetByUserCourse(ctx context.Context, userID, courseID string) (*domain.Certificate, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, user_id, course_id, completion_date, certificate_id, verification_hash,
		       expiry_date, created_at, updated_at
		FROM certificates
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)

	var c domain.Certificate
	if err := row.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CompletionDate, &c.CertificateID,
		&c.VerificationHash, &c.ExpiryDate, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListByUser returns all certificates for a user, expired ones included.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]domain.Certificate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, course_id, completion_date, certificate_id, verification_hash,
		       expiry_date, created_at, updated_at
		FROM certificates
		WHERE user_id = $1
		ORDER BY completion_date DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []domain.Certificate
	for rows.Next() {
		var c domain.Certificate
		if err := rows.Scan(&c.ID, &c.UserID, &c.CourseID, &c.CompletionDate, &c.CertificateID,
			&c.VerificationHash, &c.ExpiryDate, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		certs = append(certs, c)
	}
	return certs, rows.Err()
}

// CountValid counts certificates still inside their validity window.
func (r *CertificateRepository) CountValid(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM certificates WHERE user_id = $1 AND expiry_date > $2
	`, userID, now).Scan(&count)
	return count, err
}

// SetExpiry overrides a certificate's expiry date. Used by operators to
// revoke early; certificates are never deleted.
func (r *CertificateRepository) SetExpiry(ctx context.Context, userID, courseID string, expiry time.Time) error {
	result, err := r.db.Exec(ctx, `
		UPDATE certificates SET expiry_date = $3, updated_at = now()
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID, expiry)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
