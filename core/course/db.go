package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrStaleVersion reports that the row was modified between the read and
// the write of a load-mutate-save cycle.
var ErrStaleVersion = errors.New("course was modified concurrently")

const listedColumns = `
	c.*,
	i.user_id AS "instructor.user_id",
	i.name AS "instructor.name",
	i.email AS "instructor.email",
	cat.category_id AS "category.category_id",
	cat.name AS "category.name"`

const listedJoins = `
	JOIN users i ON i.user_id = c.instructor_id
	JOIN categories cat ON cat.category_id = c.category_id`

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses (
		course_id, instructor_id, category_id, name, description, level,
		language, thumbnail_url, price, original_price, status,
		approval_status, is_published, created_at, updated_at)
	VALUES (
		:course_id, :instructor_id, :category_id, :name, :description, :level,
		:language, :thumbnail_url, :price, :original_price, :status,
		:approval_status, :is_published, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	return c, nil
}

func FetchListed(ctx context.Context, db sqlx.ExtContext, id string) (Listed, error) {
	q := `SELECT ` + listedColumns + ` FROM courses c` + listedJoins + ` WHERE c.course_id = $1`

	var c Listed
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		return Listed{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	return c, nil
}

// Update persists every mutable column of the course, guarded by the
// version read at load time. ErrStaleVersion is returned when another
// writer got there first.
func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		category_id = :category_id,
		name = :name,
		description = :description,
		level = :level,
		language = :language,
		thumbnail_url = :thumbnail_url,
		price = :price,
		original_price = :original_price,
		status = :status,
		approval_status = :approval_status,
		is_published = :is_published,
		admin_approved_by = :admin_approved_by,
		admin_approved_at = :admin_approved_at,
		rejection_reason = :rejection_reason,
		revision_notes = :revision_notes,
		admin_notes = :admin_notes,
		price_override = :price_override,
		price_override_reason = :price_override_reason,
		featured = :featured,
		updated_at = :updated_at,
		version = version + 1
	WHERE course_id = :course_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, c)
	if err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
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

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM courses WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting course[%s]: %w", id, err)
	}

	return nil
}

// ListCatalog returns one page of the public catalog plus the total
// record count of the filtered set.
func ListCatalog(ctx context.Context, db sqlx.ExtContext, f CatalogFilter, page, limit int) ([]Listed, int, error) {
	conds := []string{"is_published = TRUE"}
	args := []interface{}{}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		p := fmt.Sprintf("$%d", len(args))
		conds = append(conds, "(c.name ILIKE "+p+" OR c.description ILIKE "+p+")")
	}

	if f.Level != "" {
		args = append(args, f.Level)
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}

	if clause, ok := priceClause(f.Price); ok {
		conds = append(conds, clause)
	}

	if f.Rating > 0 {
		args = append(args, f.Rating)
		conds = append(conds, fmt.Sprintf("average_rating >= $%d", len(args)))
	}

	if f.Featured {
		conds = append(conds, "featured = TRUE")
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	return listPage(ctx, db, where, orderBy(f.Sort), args, page, limit)
}

// ListForAdmin returns one page of the review listings, newest first.
func ListForAdmin(ctx context.Context, db sqlx.ExtContext, f AdminFilter, page, limit int) ([]Listed, int, error) {
	conds := []string{}
	args := []interface{}{}

	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("approval_status = $%d", len(args)))
	}

	if f.InstructorID != "" {
		args = append(args, f.InstructorID)
		conds = append(conds, fmt.Sprintf("instructor_id = $%d", len(args)))
	}

	var where string
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	return listPage(ctx, db, where, "created_at DESC", args, page, limit)
}

func listPage(ctx context.Context, db sqlx.ExtContext, where, order string, args []interface{}, page, limit int) ([]Listed, int, error) {
	countQ := `SELECT count(*) FROM courses c` + where

	var total int
	if err := sqlx.GetContext(ctx, db, &total, countQ, args...); err != nil {
		return nil, 0, fmt.Errorf("counting courses: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	q := `SELECT ` + listedColumns + ` FROM courses c` + listedJoins + where +
		` ORDER BY ` + order +
		fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	cs := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, args...); err != nil {
		return nil, 0, fmt.Errorf("selecting courses: %w", err)
	}

	return cs, total, nil
}

func ListByInstructor(ctx context.Context, db sqlx.ExtContext, instructorID string) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, instructorID); err != nil {
		return nil, fmt.Errorf("selecting courses of instructor[%s]: %w", instructorID, err)
	}

	return cs, nil
}

func ListEnrolled(ctx context.Context, db sqlx.ExtContext, studentID string) ([]Listed, error) {
	q := `SELECT ` + listedColumns + `
	FROM courses c` + listedJoins + `
	JOIN enrollments e ON e.course_id = c.course_id
	WHERE e.student_id = $1
	ORDER BY e.enrolled_at DESC`

	cs := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, studentID); err != nil {
		return nil, fmt.Errorf("selecting enrolled courses of user[%s]: %w", studentID, err)
	}

	return cs, nil
}

func ListWishlisted(ctx context.Context, db sqlx.ExtContext, userID string) ([]Listed, error) {
	q := `SELECT ` + listedColumns + `
	FROM courses c` + listedJoins + `
	JOIN wishlist_items wi ON wi.course_id = c.course_id
	WHERE wi.user_id = $1
	ORDER BY wi.created_at DESC`

	cs := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, userID); err != nil {
		return nil, fmt.Errorf("selecting wishlisted courses of user[%s]: %w", userID, err)
	}

	return cs, nil
}

func Count(ctx context.Context, db sqlx.ExtContext) (int, error) {
	const q = `SELECT count(*) FROM courses`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q); err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}

	return n, nil
}

func CountByApproval(ctx context.Context, db sqlx.ExtContext, status ApprovalStatus) (int, error) {
	const q = `SELECT count(*) FROM courses WHERE approval_status = $1`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q, status); err != nil {
		return 0, fmt.Errorf("counting courses by approval[%s]: %w", status, err)
	}

	return n, nil
}

func Recent(ctx context.Context, db sqlx.ExtContext, limit int) ([]Listed, error) {
	q := `SELECT ` + listedColumns + ` FROM courses c` + listedJoins +
		` ORDER BY c.created_at DESC LIMIT $1`

	cs := []Listed{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, limit); err != nil {
		return nil, fmt.Errorf("selecting recent courses: %w", err)
	}

	return cs, nil
}

// RefreshTotals recomputes the lecture-derived totals. Runs in the same
// transaction as the lecture write.
func RefreshTotals(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `
	UPDATE courses SET
		total_duration = (SELECT COALESCE(sum(duration), 0) FROM lectures WHERE course_id = $1),
		total_lectures = (SELECT count(*) FROM lectures WHERE course_id = $1),
		updated_at = now()
	WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, courseID); err != nil {
		return fmt.Errorf("refreshing totals of course[%s]: %w", courseID, err)
	}

	return nil
}

// RefreshRating recomputes the review aggregates. Runs in the same
// transaction as the review write.
func RefreshRating(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `
	UPDATE courses SET
		average_rating = (SELECT COALESCE(avg(rating), 0) FROM reviews WHERE course_id = $1),
		total_ratings = (SELECT count(*) FROM reviews WHERE course_id = $1),
		updated_at = now()
	WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, courseID); err != nil {
		return fmt.Errorf("refreshing rating of course[%s]: %w", courseID, err)
	}

	return nil
}

// RefreshStudents recomputes the enrollment counter. Runs in the same
// transaction as the enrollment write.
func RefreshStudents(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `
	UPDATE courses SET
		total_students = (SELECT count(*) FROM enrollments WHERE course_id = $1),
		updated_at = now()
	WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, courseID); err != nil {
		return fmt.Errorf("refreshing student count of course[%s]: %w", courseID, err)
	}

	return nil
}
