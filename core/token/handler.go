package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/studynotion/backend/api/background"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/api/weberr"
	"github.com/studynotion/backend/core/auth"
	"github.com/studynotion/backend/core/user"
	"github.com/studynotion/backend/validate"
	"golang.org/x/crypto/bcrypt"
)

// HandleToken issues an activation or recovery token and mails it. The
// response is 204 whether or not the email exists, so accounts cannot be
// enumerated.
func HandleToken(db *sqlx.DB, mailer Mailer, ttl time.Duration, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			Email string `json:"email" validate:"required,email"`
			Scope string `json:"scope" validate:"required,oneof=activation recovery"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(body); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := user.FetchByEmail(ctx, db, body.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return web.Respond(ctx, w, nil, http.StatusNoContent)
			}
			return err
		}

		if body.Scope == ScopeActivation && u.Active {
			err := errors.New("account is already active")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := DeleteForUser(ctx, db, u.ID, body.Scope); err != nil {
			return err
		}

		plain, t, err := generate(u.ID, body.Scope, ttl)
		if err != nil {
			return fmt.Errorf("generating token: %w", err)
		}

		if err := Create(ctx, db, t); err != nil {
			return err
		}

		bg.Add(func() error {
			if t.Scope == ScopeActivation {
				return mailer.SendActivationToken(u.Email, plain)
			}
			return mailer.SendRecoveryToken(u.Email, plain)
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleActivation burns an activation token, marks the account active
// and logs the user in.
func HandleActivation(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			Token string `json:"token" validate:"required"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(body); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		userID, err := Consume(ctx, db, body.Token, ScopeActivation)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.BadRequest(errors.New("invalid or expired token"))
			}
			return err
		}

		if err := user.Activate(ctx, db, userID); err != nil {
			return err
		}

		u, err := user.Fetch(ctx, db, userID)
		if err != nil {
			return err
		}

		if err := auth.Login(ctx, session, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

// HandleRecovery burns a recovery token and replaces the password.
func HandleRecovery(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			Token           string `json:"token" validate:"required"`
			Password        string `json:"password" validate:"required,min=8,max=72"`
			PasswordConfirm string `json:"passwordConfirm" validate:"eqfield=Password"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(body); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		userID, err := Consume(ctx, db, body.Token, ScopeRecovery)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.BadRequest(errors.New("invalid or expired token"))
			}
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		if err := user.UpdatePassword(ctx, db, userID, hash); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
