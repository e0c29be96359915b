package admin

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/core/claims"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/core/user"
)

type stats struct {
	TotalCourses     int `json:"totalCourses"`
	PendingCourses   int `json:"pendingCourses"`
	ApprovedCourses  int `json:"approvedCourses"`
	RejectedCourses  int `json:"rejectedCourses"`
	TotalInstructors int `json:"totalInstructors"`
	TotalStudents    int `json:"totalStudents"`
}

type dashboard struct {
	Stats         stats           `json:"stats"`
	RecentCourses []course.Listed `json:"recentCourses"`
}

// HandleDashboard aggregates the marketplace counters and the five most
// recently filed courses.
func HandleDashboard(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var (
			d   dashboard
			err error
		)

		if d.Stats.TotalCourses, err = course.Count(ctx, db); err != nil {
			return err
		}
		if d.Stats.PendingCourses, err = course.CountByApproval(ctx, db, course.ApprovalPending); err != nil {
			return err
		}
		if d.Stats.ApprovedCourses, err = course.CountByApproval(ctx, db, course.ApprovalApproved); err != nil {
			return err
		}
		if d.Stats.RejectedCourses, err = course.CountByApproval(ctx, db, course.ApprovalRejected); err != nil {
			return err
		}
		if d.Stats.TotalInstructors, err = user.CountByRole(ctx, db, claims.RoleInstructor); err != nil {
			return err
		}
		if d.Stats.TotalStudents, err = user.CountByRole(ctx, db, claims.RoleStudent); err != nil {
			return err
		}

		if d.RecentCourses, err = course.Recent(ctx, db, 5); err != nil {
			return err
		}

		return web.Respond(ctx, w, d, http.StatusOK)
	}
}
