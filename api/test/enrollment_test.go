package test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studynotion/backend/api/web"
	"github.com/studynotion/backend/core/course"
	"github.com/studynotion/backend/core/enrollment"
	"github.com/studynotion/backend/core/lecture"
	"github.com/studynotion/backend/core/review"
	"github.com/studynotion/backend/database"
)

type enrollmentTest struct {
	*TestEnv
}

func TestEnrollment(t *testing.T) {
	env, err := NewTestEnv(t, "enrollment_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	et := &enrollmentTest{env}
	ct := &courseTest{env}

	free := ct.submitCourse(t, "Free Course", 0)
	ct.approveCourse(t, free.ID)

	paid := ct.createCourseOK(t)

	l1 := et.addLecture(t, free.ID, 0, true)
	l2 := et.addLecture(t, free.ID, 1, false)

	t.Run("freeEnroll", func(t *testing.T) { et.freeEnroll(t, free, paid) })
	t.Run("repeatedEnroll", func(t *testing.T) { et.repeatedEnroll(t, free) })
	t.Run("lectureAccess", func(t *testing.T) { et.lectureAccess(t, free, paid, l1, l2) })
	t.Run("progress", func(t *testing.T) { et.progress(t, free, l1, l2) })
	t.Run("review", func(t *testing.T) { et.review(t, free, paid) })
}

func (et *enrollmentTest) addLecture(t *testing.T, courseID string, index int, isFree bool) lecture.Lecture {
	t.Helper()

	if err := Login(et.Server, et.InstructorEmail, et.InstructorPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(et.Server)

	body := map[string]any{
		"courseId": courseID,
		"index":    index,
		"name":     "Lecture",
		"duration": 300,
		"free":     isFree,
		"url":      "https://cdn.test.com/video.mp4",
	}

	var l lecture.Lecture
	et.doJSON(t, http.MethodPost, "/lectures", body, http.StatusCreated, &l)
	return l
}

func (et *enrollmentTest) freeEnroll(t *testing.T, free, paid course.Course) {
	if err := Login(et.Server, et.UserEmail, et.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(et.Server)

	// Paid courses only enroll through checkout.
	et.doJSON(t, http.MethodPost, "/courses/"+paid.ID+"/enroll", nil, http.StatusUnprocessableEntity, nil)

	et.doJSON(t, http.MethodPost, "/courses/"+free.ID+"/enroll", nil, http.StatusOK, nil)
	et.doJSON(t, http.MethodPost, "/courses/"+free.ID+"/enroll", nil, http.StatusBadRequest, nil)

	var status struct {
		IsEnrolled bool                   `json:"isEnrolled"`
		Enrollment *enrollment.Enrollment `json:"enrollment"`
	}
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/enrollment-status", nil, http.StatusOK, &status)
	if !status.IsEnrolled || status.Enrollment == nil {
		t.Fatalf("enrollment status after enroll: %+v", status)
	}

	et.doJSON(t, http.MethodGet, "/courses/"+paid.ID+"/enrollment-status", nil, http.StatusOK, &status)
	if status.IsEnrolled {
		t.Fatal("student shows enrolled in a course they never joined")
	}

	// The student counter follows the enrollment.
	var l course.Listed
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID, nil, http.StatusOK, &l)
	if l.TotalStudents != 1 {
		t.Fatalf("total students: got %d, want 1", l.TotalStudents)
	}
}

func (et *enrollmentTest) repeatedEnroll(t *testing.T, free course.Course) {
	var studentID string
	if err := et.DB.Get(&studentID, "SELECT user_id FROM users WHERE email = $1", et.UserEmail); err != nil {
		t.Fatal(err)
	}

	// Order fulfillment enrolls buyers without checking first, so a
	// student who already joined the course must not break the insert.
	err := database.Transaction(et.DB, func(tx sqlx.ExtContext) error {
		return enrollment.Enroll(context.Background(), tx, free.ID, studentID, time.Now().UTC())
	})
	if err != nil {
		t.Fatalf("re-enrolling an enrolled student: %v", err)
	}

	var n int
	if err := et.DB.Get(&n, "SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND student_id = $2", free.ID, studentID); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("enrollment rows: got %d, want 1", n)
	}
}

func (et *enrollmentTest) lectureAccess(t *testing.T, free, paid course.Course, l1, l2 lecture.Lecture) {
	// Anonymous callers see preview lectures only.
	var got struct {
		URL string `json:"url"`
	}
	et.doJSON(t, http.MethodGet, "/lectures/"+l1.ID, nil, http.StatusOK, &got)
	if got.URL == "" {
		t.Fatal("preview lecture served without its url")
	}

	et.doJSON(t, http.MethodGet, "/lectures/"+l2.ID, nil, http.StatusForbidden, nil)

	// Lecture listings never leak urls.
	var ls []map[string]any
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/lectures", nil, http.StatusOK, &ls)
	if len(ls) != 2 {
		t.Fatalf("lecture count: got %d, want 2", len(ls))
	}
	for _, l := range ls {
		if _, leaked := l["url"]; leaked {
			t.Fatal("lecture listing leaked a video url")
		}
	}

	// The enrolled student gets everything.
	if err := Login(et.Server, et.UserEmail, et.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(et.Server)

	et.doJSON(t, http.MethodGet, "/lectures/"+l2.ID, nil, http.StatusOK, &got)
	if got.URL == "" {
		t.Fatal("enrolled student did not get the video url")
	}
}

func (et *enrollmentTest) progress(t *testing.T, free course.Course, l1, l2 lecture.Lecture) {
	if err := Login(et.Server, et.UserEmail, et.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(et.Server)

	body := map[string]any{"completed": true}
	et.doJSON(t, http.MethodPut, "/lectures/"+l1.ID+"/complete", body, http.StatusOK, nil)

	var p enrollment.Progress
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/progress", nil, http.StatusOK, &p)

	if len(p.CompletedLectures) != 1 || p.CompletedLectures[0] != l1.ID {
		t.Fatalf("completed lectures: got %v", p.CompletedLectures)
	}
	if p.Progress != 50 {
		t.Fatalf("progress: got %v, want 50", p.Progress)
	}

	et.doJSON(t, http.MethodPut, "/lectures/"+l2.ID+"/complete", body, http.StatusOK, nil)
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/progress", nil, http.StatusOK, &p)
	if p.Progress != 100 {
		t.Fatalf("progress after both lectures: got %v, want 100", p.Progress)
	}

	// Undoing a lecture rolls the percentage back.
	body = map[string]any{"completed": false}
	et.doJSON(t, http.MethodPut, "/lectures/"+l2.ID+"/complete", body, http.StatusOK, nil)
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/progress", nil, http.StatusOK, &p)
	if p.Progress != 50 {
		t.Fatalf("progress after undo: got %v, want 50", p.Progress)
	}
}

func (et *enrollmentTest) review(t *testing.T, free, paid course.Course) {
	if err := Login(et.Server, et.UserEmail, et.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(et.Server)

	body := map[string]any{"rating": 5, "comment": "Excellent"}

	// Reviews need an enrollment.
	et.doJSON(t, http.MethodPost, "/courses/"+paid.ID+"/reviews", body, http.StatusBadRequest, nil)

	var rv review.Review
	et.doJSON(t, http.MethodPost, "/courses/"+free.ID+"/reviews", body, http.StatusCreated, &rv)
	if rv.Rating != 5 {
		t.Fatalf("review rating: got %d", rv.Rating)
	}

	// One review per student per course.
	et.doJSON(t, http.MethodPost, "/courses/"+free.ID+"/reviews", body, http.StatusBadRequest, nil)

	var res struct {
		Reviews    []review.Listed `json:"reviews"`
		Pagination web.Pagination  `json:"pagination"`
	}
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID+"/reviews", nil, http.StatusOK, &res)
	if len(res.Reviews) != 1 {
		t.Fatalf("review count: got %d, want 1", len(res.Reviews))
	}

	// The course aggregate follows the review.
	var l course.Listed
	et.doJSON(t, http.MethodGet, "/courses/"+free.ID, nil, http.StatusOK, &l)
	if l.AverageRating != 5 || l.TotalRatings != 1 {
		t.Fatalf("course rating: avg %v, total %d", l.AverageRating, l.TotalRatings)
	}
}
