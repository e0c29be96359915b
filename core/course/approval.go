package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studynotion/backend/api/background"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/api/weberr"
	"github.com/studynotion/backend/core/claims"
	"github.com/studynotion/backend/core/user"
	"github.com/studynotion/backend/validate"
)

// DecisionMailer notifies the instructor about an admin verdict.
type DecisionMailer interface {
	SendDecision(to, courseName string, outcome ApprovalStatus, reason string) error
}

type decisionResponse struct {
	Message string  `json:"message"`
	Course  Summary `json:"course"`
}

// HandleListPending serves the admin review queue, filtered by approval
// status (Pending when omitted), newest first.
func HandleListPending(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := ApprovalStatus(r.URL.Query().Get("status"))
		if status == "" {
			status = ApprovalPending
		}

		page, limit := web.PageParams(r, 10)

		cs, total, err := ListForAdmin(ctx, db, AdminFilter{Status: status}, page, limit)
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

// HandleListAll serves every course for the admin overview, optionally
// filtered by approval status and instructor.
func HandleListAll(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := AdminFilter{
			Status:       ApprovalStatus(r.URL.Query().Get("status")),
			InstructorID: r.URL.Query().Get("instructor"),
		}

		page, limit := web.PageParams(r, 20)

		cs, total, err := ListForAdmin(ctx, db, f, page, limit)
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

func HandleApprove(db *sqlx.DB, mailer DecisionMailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			AdminNotes          string `json:"adminNotes"`
			PriceOverride       *int   `json:"adminPriceOverride"`
			PriceOverrideReason string `json:"adminPriceOverrideReason"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if body.PriceOverride != nil && *body.PriceOverride < 0 {
			err := errors.New("price override must not be negative")
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		d := Decision{
			Outcome:             ApprovalApproved,
			AdminNotes:          body.AdminNotes,
			PriceOverride:       body.PriceOverride,
			PriceOverrideReason: body.PriceOverrideReason,
		}

		c, err := decide(ctx, db, web.Param(r, "id"), d, mailer, bg)
		if err != nil {
			return err
		}

		res := decisionResponse{"Course approved successfully", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleReject(db *sqlx.DB, mailer DecisionMailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			RejectionReason string `json:"rejectionReason"`
			AdminNotes      string `json:"adminNotes"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if body.RejectionReason == "" {
			err := errors.New("rejection reason is required")
			return weberr.NewError(err, "Rejection reason is required", http.StatusBadRequest)
		}

		d := Decision{
			Outcome:         ApprovalRejected,
			RejectionReason: body.RejectionReason,
			AdminNotes:      body.AdminNotes,
		}

		c, err := decide(ctx, db, web.Param(r, "id"), d, mailer, bg)
		if err != nil {
			return err
		}

		res := decisionResponse{"Course rejected successfully", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleRequestRevision(db *sqlx.DB, mailer DecisionMailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var body struct {
			RevisionNotes string `json:"revisionNotes"`
			AdminNotes    string `json:"adminNotes"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if body.RevisionNotes == "" {
			err := errors.New("revision notes are required")
			return weberr.NewError(err, "Revision notes are required", http.StatusBadRequest)
		}

		d := Decision{
			Outcome:       ApprovalUnderReview,
			RevisionNotes: body.RevisionNotes,
			AdminNotes:    body.AdminNotes,
		}

		c, err := decide(ctx, db, web.Param(r, "id"), d, mailer, bg)
		if err != nil {
			return err
		}

		res := decisionResponse{"Revision requested successfully", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// decide runs the shared load-check-apply-save cycle of every admin
// verdict and queues the instructor notification.
func decide(ctx context.Context, db *sqlx.DB, courseID string, d Decision, mailer DecisionMailer, bg *background.Background) (Course, error) {
	if err := validate.CheckID(courseID); err != nil {
		return Course{}, weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
	}

	clm, err := claims.Get(ctx)
	if err != nil {
		return Course{}, weberr.NotAuthorized(errors.New("user not authenticated"))
	}
	d.AdminID = clm.UserID
	d.At = time.Now().UTC()

	c, err := Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, weberr.NotFound(err)
		}
		return Course{}, err
	}

	c.Apply(d)

	if err := Update(ctx, db, c); err != nil {
		if errors.Is(err, ErrStaleVersion) {
			return Course{}, weberr.Conflict(err)
		}
		return Course{}, err
	}

	instr, err := user.Fetch(ctx, db, c.InstructorID)
	if err != nil {
		return Course{}, fmt.Errorf("fetching instructor[%s]: %w", c.InstructorID, err)
	}

	reason := d.RejectionReason
	if d.Outcome == ApprovalUnderReview {
		reason = d.RevisionNotes
	}

	bg.Add(func() error {
		return mailer.SendDecision(instr.Email, c.Name, d.Outcome, reason)
	})

	return c, nil
}

func HandleUpdatePrice(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var body struct {
			NewPrice *int   `json:"newPrice"`
			Reason   string `json:"reason"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if body.NewPrice == nil || *body.NewPrice < 0 {
			err := errors.New("valid price is required")
			return weberr.NewError(err, "Valid price is required", http.StatusBadRequest)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		c.SetPriceOverride(*body.NewPrice, body.Reason)
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, c); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return weberr.Conflict(err)
			}
			return err
		}

		res := decisionResponse{"Course price updated successfully", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleFeature toggles the featured flag that pins a course on the
// catalog's featured shelf.
func HandleFeature(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var body struct {
			Featured *bool `json:"featured"`
		}
		if err := web.Decode(w, r, &body); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if body.Featured == nil {
			err := errors.New("featured flag is required")
			return weberr.NewError(err, "Featured flag is required", http.StatusBadRequest)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		c.Featured = *body.Featured
		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, c); err != nil {
			if errors.Is(err, ErrStaleVersion) {
				return weberr.Conflict(err)
			}
			return err
		}

		res := decisionResponse{"Course featured flag updated successfully", c.Summarize()}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleDelete removes a course for good. Enrollments, lectures, reviews,
// cart and wishlist references go with it through the schema's cascades.
func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := Fetch(ctx, db, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := Delete(ctx, db, id); err != nil {
			return err
		}

		res := struct {
			Message string `json:"message"`
		}{"Course deleted successfully"}
		return web.Respond(ctx, w, res, http.StatusOK)
	}
}
