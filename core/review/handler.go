package review

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

type listResponse struct {
	Reviews    []Listed       `json:"reviews"`
	Pagination web.Pagination `json:"pagination"`
}

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
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

		page, limit := web.PageParams(r, 10)

		rs, total, err := ListByCourse(ctx, db, courseID, page, limit)
		if err != nil {
			return err
		}

		res := listResponse{
			Reviews:    rs,
			Pagination: web.Paginate(page, limit, total),
		}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleCreate files a review. One per student per course, enrolled
// students only; the course aggregates are refreshed in the same tx.
func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var rn ReviewNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(rn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := course.Fetch(ctx, db, courseID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		enrolled, err := enrollment.Exists(ctx, db, courseID, clm.UserID)
		if err != nil {
			return err
		}
		if !enrolled {
			err := errors.New("must be enrolled to review this course")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		reviewed, err := Exists(ctx, db, courseID, clm.UserID)
		if err != nil {
			return err
		}
		if reviewed {
			err := errors.New("already reviewed this course")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		rev := Review{
			CourseID:  courseID,
			StudentID: clm.UserID,
			Rating:    rn.Rating,
			Comment:   rn.Comment,
			CreatedAt: time.Now().UTC(),
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			if err := Create(ctx, tx, rev); err != nil {
				return err
			}
			return course.RefreshRating(ctx, tx, courseID)
		})
		if err != nil {
			return fmt.Errorf("reviewing course[%s]: %w", courseID, err)
		}

		return web.Respond(ctx, w, rev, http.StatusCreated)
	}
}
