package enrollment

import "time"

// Enrollment links a student to a course with progress tracking.
type Enrollment struct {
	CourseID     string    `json:"courseId" db:"course_id"`
	StudentID    string    `json:"studentId" db:"student_id"`
	Progress     int       `json:"progress" db:"progress"`
	EnrolledAt   time.Time `json:"enrolledAt" db:"enrolled_at"`
	LastAccessed time.Time `json:"lastAccessed" db:"last_accessed"`
}

// Progress is the per-course view a student sees: the enrollment plus
// the lectures already completed.
type Progress struct {
	Enrollment
	CompletedLectures []string `json:"completedLectures"`
}
