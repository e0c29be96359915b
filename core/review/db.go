package review

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, r Review) error {
	const q = `
	INSERT INTO reviews (course_id, student_id, rating, comment, created_at)
	VALUES (:course_id, :student_id, :rating, :comment, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, r); err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}

	return nil
}

func Exists(ctx context.Context, db sqlx.ExtContext, courseID, studentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM reviews WHERE course_id = $1 AND student_id = $2)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, courseID, studentID); err != nil {
		return false, fmt.Errorf("checking review[%s/%s]: %w", courseID, studentID, err)
	}

	return ok, nil
}

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID string, page, limit int) ([]Listed, int, error) {
	const countQ = `SELECT count(*) FROM reviews WHERE course_id = $1`

	var total int
	if err := sqlx.GetContext(ctx, db, &total, countQ, courseID); err != nil {
		return nil, 0, fmt.Errorf("counting reviews of course[%s]: %w", courseID, err)
	}

	const q = `
	SELECT r.*, u.name AS student_name
	FROM reviews r
	JOIN users u ON u.user_id = r.student_id
	WHERE r.course_id = $1
	ORDER BY r.created_at DESC
	LIMIT $2 OFFSET $3`

	rs := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &rs, q, courseID, limit, (page-1)*limit); err != nil {
		return nil, 0, fmt.Errorf("selecting reviews of course[%s]: %w", courseID, err)
	}

	return rs, total, nil
}
