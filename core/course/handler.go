package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/api/weberr"
	"github.com/studynotion/backend/core/claims"
	"github.com/studynotion/backend/validate"
)

const fkViolation = "23503"

type listResponse struct {
	Courses    []Listed       `json:"courses"`
	Pagination web.Pagination `json:"pagination"`
}

// HandleList serves the public catalog: published courses only, with
// search, level, price-bucket, rating and featured filters.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := CatalogFilter{
			Search:   r.URL.Query().Get("search"),
			Level:    r.URL.Query().Get("level"),
			Price:    r.URL.Query().Get("price"),
			Rating:   web.QueryInt(r, "rating", 0),
			Featured: r.URL.Query().Get("featured") == "true",
			Sort:     r.URL.Query().Get("sort"),
		}

		page, limit := web.PageParams(r, 20)

		cs, total, err := ListCatalog(ctx, db, f, page, limit)
		if err != nil {
			return err
		}

		res := listResponse{
			Courses:    cs,
			Pagination: web.Paginate(page, limit, total),
		}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := FetchListed(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

// HandleCreate files a new course. It always enters the review queue as
// an unpublished draft, whatever the caller sends.
func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var cn CourseNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if cn.Language == "" {
			cn.Language = "English"
		}

		now := time.Now().UTC()
		c := Course{
			ID:             validate.GenerateID(),
			InstructorID:   clm.UserID,
			CategoryID:     cn.CategoryID,
			Name:           cn.Name,
			Description:    cn.Description,
			Level:          cn.Level,
			Language:       cn.Language,
			ThumbnailURL:   cn.ThumbnailURL,
			Price:          cn.Price,
			OriginalPrice:  cn.OriginalPrice,
			Status:         StatusDraft,
			ApprovalStatus: ApprovalPending,
			Published:      false,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := Create(ctx, db, c); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == fkViolation {
				msg := "unknown category"
				return weberr.NewError(err, msg, http.StatusUnprocessableEntity)
			}
			return err
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

// HandleUpdate edits course content. Only the owning instructor or an
// admin may call it; the course keeps its approval status, so edits after
// a rejection need an explicit resubmit.
func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var cu CourseUp
		if err := web.Decode(w, r, &cu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsUser(ctx, c.InstructorID) && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(errors.New("only the course instructor may edit it"))
		}

		if cu.Name != nil {
			c.Name = *cu.Name
		}
		if cu.Description != nil {
			c.Description = *cu.Description
		}
		if cu.CategoryID != nil {
			c.CategoryID = *cu.CategoryID
		}
		if cu.Level != nil {
			c.Level = *cu.Level
		}
		if cu.Language != nil {
			c.Language = *cu.Language
		}
		if cu.ThumbnailURL != nil {
			c.ThumbnailURL = *cu.ThumbnailURL
		}
		if cu.Price != nil {
			c.Price = *cu.Price
		}
		if cu.OriginalPrice != nil {
			c.OriginalPrice = *cu.OriginalPrice
		}
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, c); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return weberr.Conflict(err)
			}
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

// HandleResubmit puts a rejected or under-review course back into the
// review queue after the instructor corrected it.
func HandleResubmit(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if !claims.IsUser(ctx, c.InstructorID) && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(errors.New("only the course instructor may resubmit it"))
		}

		if !c.AwaitsCorrection() {
			err := fmt.Errorf("course in state %q cannot be resubmitted", c.ApprovalStatus)
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c.Resubmit(time.Now().UTC())

		if err := Update(ctx, db, c); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return weberr.Conflict(err)
			}
			return err
		}

		res := struct {
			Message string  `json:"message"`
			Course  Summary `json:"course"`
		}{"Course resubmitted for review", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleListOwned returns the calling instructor's own courses, whatever
// their approval state.
func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		cs, err := ListByInstructor(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}

// HandleListEnrolled returns the courses the calling student is enrolled
// in, most recent enrollment first.
func HandleListEnrolled(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		cs, err := ListEnrolled(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}
