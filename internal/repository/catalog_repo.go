package repository

import (
	"context"
	"errors"

	"learn_ledger/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogRepository reads the course catalog collaborator's tables. This
// subsystem never writes them; completion is consumed as a boolean signal
// plus a timestamp.
type CatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetEnrollment returns the enrollment for a user/course pair.
func (r *CatalogRepository) GetEnrollment(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, course_id, status, progress, enrolled_at, completed_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
	`, userID, courseID)

	var e domain.Enrollment
	if err := row.Scan(&e.UserID, &e.CourseID, &e.Status, &e.Progress, &e.EnrolledAt, &e.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// ListEnrollments returns all enrollments for a user.
func (r *CatalogRepository) ListEnrollments(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, course_id, status, progress, enrolled_at, completed_at
		FROM enrollments
		WHERE user_id = $1
		ORDER BY enrolled_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Enrollment
	for rows.Next() {
		var e domain.Enrollment
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.Status, &e.Progress, &e.EnrolledAt, &e.CompletedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// CountCompleted counts a user's COMPLETED enrollments.
func (r *CatalogRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM enrollments WHERE user_id = $1 AND status = 'COMPLETED'
	`, userID).Scan(&count)
	return count, err
}

// GetCourse returns the catalog's display fields for a course.
func (r *CatalogRepository) GetCourse(ctx context.Context, courseID string) (*domain.Course, error) {
	row := r.db.QueryRow(ctx, `SELECT id, title FROM courses WHERE id = $1`, courseID)

	var c domain.Course
	if err := row.Scan(&c.ID, &c.Title); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
