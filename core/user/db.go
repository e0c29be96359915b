package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ErrStaleVersion reports that the row was modified between the read and
// the write of a load-mutate-save cycle.
var ErrStaleVersion = errors.New("user was modified concurrently")

func Create(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	INSERT INTO users (user_id, name, email, role, password_hash, active, created_at, updated_at)
	VALUES (:user_id, :name, :email, :role, :password_hash, :active, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, u); err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (User, error) {
	const q = `SELECT * FROM users WHERE user_id = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, id); err != nil {
		return User{}, fmt.Errorf("selecting user[%s]: %w", id, err)
	}

	return u, nil
}

func FetchByEmail(ctx context.Context, db sqlx.ExtContext, email string) (User, error) {
	const q = `SELECT * FROM users WHERE email = $1`

	var u User
	if err := sqlx.GetContext(ctx, db, &u, q, email); err != nil {
		return User{}, fmt.Errorf("selecting user by email: %w", err)
	}

	return u, nil
}

// Update persists the profile columns, guarded by the version read at
// load time.
func Update(ctx context.Context, db sqlx.ExtContext, u User) error {
	const q = `
	UPDATE users SET
		name = :name,
		updated_at = :updated_at,
		version = version + 1
	WHERE user_id = :user_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, u)
	if err != nil {
		return fmt.Errorf("updating user[%s]: %w", u.ID, err)
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

func Activate(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `
	UPDATE users SET
		active = TRUE,
		updated_at = now(),
		version = version + 1
	WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("activating user[%s]: %w", id, err)
	}

	return nil
}

func UpdatePassword(ctx context.Context, db sqlx.ExtContext, id string, hash []byte) error {
	const q = `
	UPDATE users SET
		password_hash = $2,
		updated_at = now(),
		version = version + 1
	WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, id, hash); err != nil {
		return fmt.Errorf("updating password of user[%s]: %w", id, err)
	}

	return nil
}

func ListByRole(ctx context.Context, db sqlx.ExtContext, role string) ([]User, error) {
	const q = `SELECT * FROM users WHERE role = $1 ORDER BY created_at DESC`

	us := []User{}
	if err := sqlx.SelectContext(ctx, db, &us, q, role); err != nil {
		return nil, fmt.Errorf("selecting users by role[%s]: %w", role, err)
	}

	return us, nil
}

func CountByRole(ctx context.Context, db sqlx.ExtContext, role string) (int, error) {
	const q = `SELECT count(*) FROM users WHERE role = $1`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q, role); err != nil {
		return 0, fmt.Errorf("counting users by role[%s]: %w", role, err)
	}

	return n, nil
}
