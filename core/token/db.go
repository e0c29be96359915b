package token

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, t Token) error {
	const q = `
	INSERT INTO tokens (token_hash, user_id, scope, expiry)
	VALUES (:token_hash, :user_id, :scope, :expiry)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, t); err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}

	return nil
}

// Consume resolves an unexpired token to its user and burns it.
func Consume(ctx context.Context, db sqlx.ExtContext, plain, scope string) (string, error) {
	const q = `
	DELETE FROM tokens
	WHERE token_hash = $1 AND scope = $2 AND expiry > $3
	RETURNING user_id`

	var userID string
	if err := sqlx.GetContext(ctx, db, &userID, q, hash(plain), scope, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("consuming %s token: %w", scope, err)
	}

	return userID, nil
}

// DeleteForUser drops any outstanding tokens of the scope, so only the
// latest one issued stays valid.
func DeleteForUser(ctx context.Context, db sqlx.ExtContext, userID, scope string) error {
	const q = `DELETE FROM tokens WHERE user_id = $1 AND scope = $2`

	if _, err := db.ExecContext(ctx, q, userID, scope); err != nil {
		return fmt.Errorf("deleting %s tokens of user[%s]: %w", scope, userID, err)
	}

	return nil
}
