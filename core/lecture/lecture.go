package lecture

import "time"

type Lecture struct {
	ID          string    `json:"id" db:"lecture_id"`
	CourseID    string    `json:"courseId" db:"course_id"`
	Index       int       `json:"index" db:"index"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Duration    int       `json:"duration" db:"duration"`
	Free        bool      `json:"free" db:"free"`
	URL         string    `json:"-" db:"url"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
	Version     int       `json:"-" db:"version"`
}

type LectureNew struct {
	CourseID    string `json:"courseId" validate:"required,uuid4"`
	Index       int    `json:"index" validate:"gte=0"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Duration    int    `json:"duration" validate:"gte=0"`
	Free        bool   `json:"free"`
	URL         string `json:"url" validate:"omitempty,url"`
}

type LectureUp struct {
	Index       *int    `json:"index" validate:"omitempty,gte=0"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Duration    *int    `json:"duration" validate:"omitempty,gte=0"`
	Free        *bool   `json:"free"`
	URL         *string `json:"url" validate:"omitempty,url"`
}

// full carries the video URL; only preview lectures and enrolled
// students get this shape.
type full struct {
	Lecture
	URL string `json:"url"`
}
