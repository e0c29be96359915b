package lecture

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrStaleVersion = errors.New("lecture was modified concurrently")

func Create(ctx context.Context, db sqlx.ExtContext, l Lecture) error {
	const q = `
	INSERT INTO lectures (lecture_id, course_id, index, name, description, duration, free, url, created_at, updated_at)
	VALUES (:lecture_id, :course_id, :index, :name, :description, :duration, :free, :url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, l); err != nil {
		return fmt.Errorf("inserting lecture: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Lecture, error) {
	const q = `SELECT * FROM lectures WHERE lecture_id = $1`

	var l Lecture
	if err := sqlx.GetContext(ctx, db, &l, q, id); err != nil {
		return Lecture{}, fmt.Errorf("selecting lecture[%s]: %w", id, err)
	}

	return l, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, l Lecture) error {
	const q = `
	UPDATE lectures SET
		index = :index,
		name = :name,
		description = :description,
		duration = :duration,
		free = :free,
		url = :url,
		updated_at = :updated_at,
		version = version + 1
	WHERE lecture_id = :lecture_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, l)
	if err != nil {
		return fmt.Errorf("updating lecture[%s]: %w", l.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrStaleVersion
	}

	return nil
}

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Lecture, error) {
	const q = `SELECT * FROM lectures WHERE course_id = $1 ORDER BY index`

	ls := []Lecture{}
	if err := sqlx.SelectContext(ctx, db, &ls, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting lectures of course[%s]: %w", courseID, err)
	}

	return ls, nil
}
