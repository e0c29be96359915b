package enrollment

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
	"github.com/studynotion/backend/database"
	"github.com/studynotion/backend/validate"
)

// Enroll records the enrollment and keeps the course's student counter in
// step. Used by the free-enroll handler and by order fulfillment.
func Enroll(ctx context.Context, tx sqlx.ExtContext, courseID, studentID string, now time.Time) error {
	e := Enrollment{
		CourseID:     courseID,
		StudentID:    studentID,
		Progress:     0,
		EnrolledAt:   now,
		LastAccessed: now,
	}

	if err := Create(ctx, tx, e); err != nil {
		return err
	}

	return course.RefreshStudents(ctx, tx, courseID)
}

// HandleEnroll enrolls the caller in a free published course. Paid
// courses go through checkout instead.
func HandleEnroll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := course.Fetch(ctx, db, courseID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !c.Published {
			err := errors.New("course is not published")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		if c.Price > 0 {
			err := errors.New("paid courses must be purchased through checkout")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		enrolled, err := Exists(ctx, db, courseID, clm.UserID)
		if err != nil {
			return err
		}
		if enrolled {
			err := errors.New("already enrolled in this course")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			return Enroll(ctx, tx, courseID, clm.UserID, time.Now().UTC())
		})
		if err != nil {
			return fmt.Errorf("enrolling user[%s] in course[%s]: %w", clm.UserID, courseID, err)
		}

		res := struct {
			Message string `json:"message"`
		}{"Successfully enrolled in course"}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := course.Fetch(ctx, db, courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		res := struct {
			IsEnrolled bool        `json:"isEnrolled"`
			Enrollment *Enrollment `json:"enrollment"`
		}{}

		e, err := Fetch(ctx, db, courseID, clm.UserID)
		switch {
		case err == nil:
			res.IsEnrolled = true
			res.Enrollment = &e
		case errors.Is(err, sql.ErrNoRows):
		default:
			return err
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleProgress returns the caller's enrollment with the lectures
// already completed.
func HandleProgress(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		e, err := Fetch(ctx, db, courseID, clm.UserID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		done, err := CompletedLectures(ctx, db, courseID, clm.UserID)
		if err != nil {
			return err
		}

		res := Progress{Enrollment: e, CompletedLectures: done}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}
