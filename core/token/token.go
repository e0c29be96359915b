package token

import (
	"crypto/sha256"
	"time"

	"github.com/studynotion/backend/random"
)

const (
	ScopeActivation = "activation"
	ScopeRecovery   = "recovery"
)

// Mailer delivers the plaintext token to the account owner.
type Mailer interface {
	SendActivationToken(to, token string) error
	SendRecoveryToken(to, token string) error
}

// Token is stored hashed; the plaintext only ever travels by email.
type Token struct {
	Hash   []byte    `db:"token_hash"`
	UserID string    `db:"user_id"`
	Scope  string    `db:"scope"`
	Expiry time.Time `db:"expiry"`
}

func generate(userID, scope string, ttl time.Duration) (string, Token, error) {
	plain, err := random.StringSecure(26)
	if err != nil {
		return "", Token{}, err
	}

	return plain, Token{
		Hash:   hash(plain),
		UserID: userID,
		Scope:  scope,
		Expiry: time.Now().UTC().Add(ttl),
	}, nil
}

func hash(plain string) []byte {
	h := sha256.Sum256([]byte(plain))
	return h[:]
}
