// seed_catalog populates courses, enrollments and user profiles for local
// development. Safe to re-run: everything is upserted.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type seedCourse struct {
	id, title string
}

type seedEnrollment struct {
	userID, courseID, status string
	progress                 int
	completedAt              *time.Time
}

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)

	courses := []seedCourse{
		{"course-go-basics", "Go Basics"},
		{"course-sql-found", "SQL Foundations"},
		{"course-http-apis", "Designing HTTP APIs"},
	}
	for _, c := range courses {
		_, err := db.Exec(ctx, `
			INSERT INTO courses (id, title)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title`,
			c.id, c.title)
		if err != nil {
			log.Fatalf("seed course %s: %v", c.id, err)
		}
	}

	profiles := map[string]string{
		"user-alice": "Alice",
		"user-bob":   "Bob",
		"user-carol": "Carol",
	}
	for id, name := range profiles {
		_, err := db.Exec(ctx, `
			INSERT INTO user_profiles (user_id, display_name)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name`,
			id, name)
		if err != nil {
			log.Fatalf("seed profile %s: %v", id, err)
		}
	}

	enrollments := []seedEnrollment{
		{"user-alice", "course-go-basics", "COMPLETED", 100, &weekAgo},
		{"user-alice", "course-sql-found", "ACTIVE", 40, nil},
		{"user-bob", "course-go-basics", "COMPLETED", 100, &weekAgo},
		{"user-carol", "course-http-apis", "ACTIVE", 10, nil},
	}
	for _, e := range enrollments {
		_, err := db.Exec(ctx, `
			INSERT INTO enrollments (user_id, course_id, status, progress, completed_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, course_id) DO UPDATE SET
				status = EXCLUDED.status,
				progress = EXCLUDED.progress,
				completed_at = EXCLUDED.completed_at`,
			e.userID, e.courseID, e.status, e.progress, e.completedAt)
		if err != nil {
			log.Fatalf("seed enrollment %s/%s: %v", e.userID, e.courseID, err)
		}
	}

	log.Printf("seeded %d courses, %d profiles, %d enrollments", len(courses), len(profiles), len(enrollments))
}
