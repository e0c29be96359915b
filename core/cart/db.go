package cart

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items (user_id, course_id, created_at, updated_at)
	VALUES (:user_id, :course_id, :created_at, :updated_at)
	ON CONFLICT DO NOTHING`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting cart item: %w", err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	its := []Item{}
	if err := sqlx.SelectContext(ctx, db, &its, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}

	return its, nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID, courseID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, courseID); err != nil {
		return fmt.Errorf("deleting cart item[%s/%s]: %w", userID, courseID, err)
	}

	return nil
}

// Delete flushes the whole cart, typically on order fulfillment.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("flushing cart of user[%s]: %w", userID, err)
	}

	return nil
}
