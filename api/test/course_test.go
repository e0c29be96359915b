package test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/validate"
)

type courseTest struct {
	*TestEnv
}

type courseList struct {
	Courses    []course.Listed `json:"courses"`
	Pagination web.Pagination  `json:"pagination"`
}

func TestCourse(t *testing.T) {
	env, err := NewTestEnv(t, "course_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{env}

	t.Run("pendingHiddenFromCatalog", ct.pendingHiddenFromCatalog)
	t.Run("createRequiresInstructor", ct.createRequiresInstructor)
	t.Run("updateByStranger", ct.updateByStranger)
	t.Run("staleUpdate", ct.staleUpdate)
	t.Run("resubmit", ct.resubmit)
	t.Run("catalogFilters", ct.catalogFilters)
	t.Run("pagination", ct.pagination)
}

// submitCourse creates a course as the instructor and leaves it pending.
func (ct *courseTest) submitCourse(t *testing.T, name string, price int) course.Course {
	t.Helper()

	if err := Login(ct.Server, ct.InstructorEmail, ct.InstructorPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	body := map[string]any{
		"name":        name,
		"description": "A test course",
		"categoryId":  ct.CategoryID,
		"level":       "Beginner",
		"price":       price,
	}

	var c course.Course
	ct.doJSON(t, http.MethodPost, "/courses", body, http.StatusCreated, &c)
	return c
}

// approveCourse publishes a pending course as the admin.
func (ct *courseTest) approveCourse(t *testing.T, id string) {
	t.Helper()

	if err := Login(ct.Server, ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	ct.doJSON(t, http.MethodPost, "/admin/approve-course/"+id, map[string]any{}, http.StatusOK, nil)
}

// createCourseOK submits and approves a course, returning its final state.
func (ct *courseTest) createCourseOK(t *testing.T) course.Course {
	t.Helper()

	c := ct.submitCourse(t, "Course "+validate.GenerateID()[:8], 100)
	ct.approveCourse(t, c.ID)

	var l course.Listed
	ct.doJSON(t, http.MethodGet, "/courses/"+c.ID, nil, http.StatusOK, &l)
	return l.Course
}

// listEnrolledOK asserts the student's enrolled courses match, by ID.
func (ct *courseTest) listEnrolledOK(t *testing.T, want []course.Course) {
	t.Helper()

	if err := Login(ct.Server, ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	var got []course.Listed
	ct.doJSON(t, http.MethodGet, "/courses/enrolled", nil, http.StatusOK, &got)

	gotIDs := make(map[string]bool, len(got))
	for _, c := range got {
		gotIDs[c.ID] = true
	}

	wantIDs := make(map[string]bool, len(want))
	for _, c := range want {
		wantIDs[c.ID] = true
	}

	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Fatalf("enrolled courses mismatch (-want +got):\n%s", diff)
	}
}

func (ct *courseTest) catalogCount(t *testing.T, query string) int {
	t.Helper()

	var res courseList
	ct.doJSON(t, http.MethodGet, "/courses"+query, nil, http.StatusOK, &res)
	return len(res.Courses)
}

func (ct *courseTest) pendingHiddenFromCatalog(t *testing.T) {
	c := ct.submitCourse(t, "Hidden Until Approved", 50)

	before := ct.catalogCount(t, "")

	var res courseList
	ct.doJSON(t, http.MethodGet, "/courses", nil, http.StatusOK, &res)
	for _, l := range res.Courses {
		if l.ID == c.ID {
			t.Fatalf("pending course %s is visible in the catalog", c.ID)
		}
	}

	ct.approveCourse(t, c.ID)

	if got := ct.catalogCount(t, ""); got != before+1 {
		t.Fatalf("catalog count after approval: got %d, want %d", got, before+1)
	}
}

func (ct *courseTest) createRequiresInstructor(t *testing.T) {
	body := map[string]any{
		"name":        "Not Allowed",
		"description": "A test course",
		"categoryId":  ct.CategoryID,
		"level":       "Beginner",
		"price":       10,
	}

	ct.doJSON(t, http.MethodPost, "/courses", body, http.StatusUnauthorized, nil)

	if err := Login(ct.Server, ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	ct.doJSON(t, http.MethodPost, "/courses", body, http.StatusForbidden, nil)
}

func (ct *courseTest) updateByStranger(t *testing.T) {
	c := ct.submitCourse(t, "Owned Course", 60)

	if err := Login(ct.Server, ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	up := map[string]any{"name": "Hijacked"}
	ct.doJSON(t, http.MethodPut, "/courses/"+c.ID, up, http.StatusForbidden, nil)
}

func (ct *courseTest) staleUpdate(t *testing.T) {
	c := ct.submitCourse(t, "Contended Course", 70)

	// The admin decision bumps the version between the instructor's read
	// and write, so a write through the stale struct must 409.
	ct.approveCourse(t, c.ID)

	if err := Login(ct.Server, ct.InstructorEmail, ct.InstructorPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	up := map[string]any{"name": "Renamed"}
	ct.doJSON(t, http.MethodPut, "/courses/"+c.ID, up, http.StatusOK, nil)

	if err := course.Update(context.Background(), ct.DB, c); !errors.Is(err, course.ErrStaleVersion) {
		t.Fatalf("writing through an old version: got %v, want ErrStaleVersion", err)
	}
}

func (ct *courseTest) resubmit(t *testing.T) {
	c := ct.submitCourse(t, "Needs Work", 80)

	if err := Login(ct.Server, ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	body := map[string]any{"rejectionReason": "Too short"}
	ct.doJSON(t, http.MethodPost, "/admin/reject-course/"+c.ID, body, http.StatusOK, nil)
	Logout(ct.Server)

	if err := Login(ct.Server, ct.InstructorEmail, ct.InstructorPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	var res struct {
		Course course.Summary `json:"course"`
	}
	ct.doJSON(t, http.MethodPost, "/courses/"+c.ID+"/resubmit", nil, http.StatusOK, &res)

	if res.Course.ApprovalStatus != course.ApprovalPending {
		t.Fatalf("after resubmit: got status %q, want %q", res.Course.ApprovalStatus, course.ApprovalPending)
	}

	// A pending course has nothing to correct.
	ct.doJSON(t, http.MethodPost, "/courses/"+c.ID+"/resubmit", nil, http.StatusUnprocessableEntity, nil)
}

func (ct *courseTest) catalogFilters(t *testing.T) {
	c := ct.submitCourse(t, "Advanced Gardening", 1500)
	ct.approveCourse(t, c.ID)

	free := ct.submitCourse(t, "Free Gardening", 0)
	ct.approveCourse(t, free.ID)

	var res courseList
	ct.doJSON(t, http.MethodGet, "/courses?search=Gardening", nil, http.StatusOK, &res)
	if len(res.Courses) != 2 {
		t.Fatalf("search=Gardening: got %d courses, want 2", len(res.Courses))
	}

	ct.doJSON(t, http.MethodGet, "/courses?search=Gardening&price=free", nil, http.StatusOK, &res)
	if len(res.Courses) != 1 || res.Courses[0].ID != free.ID {
		t.Fatalf("price=free: expected only the free course, got %d", len(res.Courses))
	}

	ct.doJSON(t, http.MethodGet, "/courses?search=Gardening&price=1000to2000", nil, http.StatusOK, &res)
	if len(res.Courses) != 1 || res.Courses[0].ID != c.ID {
		t.Fatalf("price=1000to2000: expected only the paid course, got %d", len(res.Courses))
	}

	ct.doJSON(t, http.MethodGet, "/courses?search=Nonexistent", nil, http.StatusOK, &res)
	if len(res.Courses) != 0 {
		t.Fatalf("search=Nonexistent: got %d courses, want 0", len(res.Courses))
	}
}

func (ct *courseTest) pagination(t *testing.T) {
	for i := 0; i < 3; i++ {
		c := ct.submitCourse(t, fmt.Sprintf("Paging %d", i), 10)
		ct.approveCourse(t, c.ID)
	}

	var res courseList
	ct.doJSON(t, http.MethodGet, "/courses?page=1&limit=2", nil, http.StatusOK, &res)

	if len(res.Courses) != 2 {
		t.Fatalf("page 1: got %d courses, want 2", len(res.Courses))
	}
	if !res.Pagination.HasNext || res.Pagination.HasPrev {
		t.Fatalf("page 1: got pagination %+v", res.Pagination)
	}

	last := res.Pagination.Total
	ct.doJSON(t, http.MethodGet, fmt.Sprintf("/courses?page=%d&limit=2", last), nil, http.StatusOK, &res)

	if res.Pagination.HasNext || !res.Pagination.HasPrev {
		t.Fatalf("last page: got pagination %+v", res.Pagination)
	}
}
