package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, e Enrollment) error {
	const q = `
	INSERT INTO enrollments (course_id, student_id, progress, enrolled_at, last_accessed)
	VALUES (:course_id, :student_id, :progress, :enrolled_at, :last_accessed)
	ON CONFLICT DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, q, e); err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, courseID, studentID string) (Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE course_id = $1 AND student_id = $2`

	var e Enrollment
	if err := sqlx.GetContext(ctx, db, &e, q, courseID, studentID); err != nil {
		return Enrollment{}, fmt.Errorf("selecting enrollment[%s/%s]: %w", courseID, studentID, err)
	}

	return e, nil
}

func Exists(ctx context.Context, db sqlx.ExtContext, courseID, studentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE course_id = $1 AND student_id = $2)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, courseID, studentID); err != nil {
		return false, fmt.Errorf("checking enrollment[%s/%s]: %w", courseID, studentID, err)
	}

	return ok, nil
}

func CompletedLectures(ctx context.Context, db sqlx.ExtContext, courseID, studentID string) ([]string, error) {
	const q = `
	SELECT lecture_id FROM completed_lectures
	WHERE course_id = $1 AND student_id = $2
	ORDER BY created_at`

	ids := []string{}
	if err := sqlx.SelectContext(ctx, db, &ids, q, courseID, studentID); err != nil {
		return nil, fmt.Errorf("selecting completed lectures[%s/%s]: %w", courseID, studentID, err)
	}

	return ids, nil
}

// SetCompleted marks or unmarks a lecture as completed for the student.
func SetCompleted(ctx context.Context, db sqlx.ExtContext, courseID, studentID, lectureID string, done bool, now time.Time) error {
	if done {
		const q = `
		INSERT INTO completed_lectures (course_id, student_id, lecture_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING`

		if _, err := db.ExecContext(ctx, q, courseID, studentID, lectureID, now); err != nil {
			return fmt.Errorf("marking lecture[%s] completed: %w", lectureID, err)
		}
		return nil
	}

	const q = `DELETE FROM completed_lectures WHERE course_id = $1 AND student_id = $2 AND lecture_id = $3`

	if _, err := db.ExecContext(ctx, q, courseID, studentID, lectureID); err != nil {
		return fmt.Errorf("unmarking lecture[%s] completed: %w", lectureID, err)
	}
	return nil
}

// RefreshProgress recomputes the completion percentage from the
// completed-lectures set. Runs in the same transaction as the toggle.
func RefreshProgress(ctx context.Context, db sqlx.ExtContext, courseID, studentID string, now time.Time) error {
	const q = `
	UPDATE enrollments SET
		progress = COALESCE(ROUND(
			100.0 * (SELECT count(*) FROM completed_lectures cl
			         WHERE cl.course_id = $1 AND cl.student_id = $2)
			/ NULLIF((SELECT count(*) FROM lectures l WHERE l.course_id = $1), 0)
		), 0),
		last_accessed = $3
	WHERE course_id = $1 AND student_id = $2`

	if _, err := db.ExecContext(ctx, q, courseID, studentID, now); err != nil {
		return fmt.Errorf("refreshing progress of enrollment[%s/%s]: %w", courseID, studentID, err)
	}

	return nil
}
