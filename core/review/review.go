package review

import "time"

type Review struct {
	CourseID  string    `json:"courseId" db:"course_id"`
	StudentID string    `json:"studentId" db:"student_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type ReviewNew struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=500"`
}

// Listed joins the reviewer's public profile into the listing.
type Listed struct {
	Review
	StudentName string `json:"studentName" db:"student_name"`
}
