package lecture

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/api/weberr"
	"github.com/studynotion/backend/core/claims"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/core/enrollment"
	"github.com/studynotion/backend/database"
	"github.com/studynotion/backend/validate"
)

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ls, err := ListByCourse(ctx, db, courseID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ls, http.StatusOK)
	}
}

// HandleShow returns a lecture with its video URL when the caller may
// watch it: preview lectures are open, the rest need an enrollment or
// course ownership.
func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !l.Free {
			allowed, err := mayWatch(ctx, db, l.CourseID)
			if err != nil {
				return err
			}
			if !allowed {
				return weberr.Forbidden(errors.New("must be enrolled to access this lecture"))
			}
		}

		return web.Respond(ctx, w, full{Lecture: l, URL: l.URL}, http.StatusOK)
	}
}

func mayWatch(ctx context.Context, db *sqlx.DB, courseID string) (bool, error) {
	clm, err := claims.Get(ctx)
	if err != nil {
		return false, nil
	}

	if claims.IsAdmin(ctx) {
		return true, nil
	}

	c, err := course.Fetch(ctx, db, courseID)
	if err != nil {
		return false, err
	}
	if c.InstructorID == clm.UserID {
		return true, nil
	}

	return enrollment.Exists(ctx, db, courseID, clm.UserID)
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ln LectureNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ln); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := course.Fetch(ctx, db, ln.CourseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsUser(ctx, c.InstructorID) && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(errors.New("only the course instructor may add lectures"))
		}

		now := time.Now().UTC()
		l := Lecture{
			ID:          validate.GenerateID(),
			CourseID:    ln.CourseID,
			Index:       ln.Index,
			Name:        ln.Name,
			Description: ln.Description,
			Duration:    ln.Duration,
			Free:        ln.Free,
			URL:         ln.URL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, l); err != nil {
				return err
			}
			return course.RefreshTotals(ctx, tx, l.CourseID)
		})
		if err != nil {
			return fmt.Errorf("creating lecture on course[%s]: %w", l.CourseID, err)
		}

		return web.Respond(ctx, w, l, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var lu LectureUp
		if err := web.Decode(w, r, &lu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(lu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		c, err := course.Fetch(ctx, db, l.CourseID)
		if err != nil {
			return err
		}

		if !claims.IsUser(ctx, c.InstructorID) && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(errors.New("only the course instructor may edit lectures"))
		}

		if lu.Index != nil {
			l.Index = *lu.Index
		}
		if lu.Name != nil {
			l.Name = *lu.Name
		}
		if lu.Description != nil {
			l.Description = *lu.Description
		}
		if lu.Duration != nil {
			l.Duration = *lu.Duration
		}
		if lu.Free != nil {
			l.Free = *lu.Free
		}
		if lu.URL != nil {
			l.URL = *lu.URL
		}
		l.UpdatedAt = time.Now().UTC()

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Update(ctx, tx, l); err != nil {
				return err
			}
			return course.RefreshTotals(ctx, tx, l.CourseID)
		})
		if err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return weberr.Conflict(err)
			}
			return fmt.Errorf("updating lecture[%s]: %w", l.ID, err)
		}

		return web.Respond(ctx, w, l, http.StatusOK)
	}
}

// HandleComplete toggles the caller's completion mark on a lecture and
// recomputes the enrollment progress percentage.
func HandleComplete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var body struct {
			Completed *bool `json:"completed"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		done := true
		if body.Completed != nil {
			done = *body.Completed
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		enrolled, err := enrollment.Exists(ctx, db, l.CourseID, clm.UserID)
		if err != nil {
			return err
		}
		if !enrolled {
			return weberr.Forbidden(errors.New("must be enrolled to track progress"))
		}

		now := time.Now().UTC()
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := enrollment.SetCompleted(ctx, tx, l.CourseID, clm.UserID, l.ID, done, now); err != nil {
				return err
			}
			return enrollment.RefreshProgress(ctx, tx, l.CourseID, clm.UserID, now)
		})
		if err != nil {
			return fmt.Errorf("tracking completion of lecture[%s]: %w", l.ID, err)
		}

		e, err := enrollment.Fetch(ctx, db, l.CourseID, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, e, http.StatusOK)
	}
}
