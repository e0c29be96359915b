package course

import (
	"time"

	"github.com/studynotion/backend/core/category"
	"github.com/studynotion/backend/core/user"
)

// Storefront visibility of a course.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
	StatusArchived  Status = "Archived"
)

// Review-workflow state, independent of the storefront status.
type ApprovalStatus string

const (
	ApprovalPending     ApprovalStatus = "Pending"
	ApprovalApproved    ApprovalStatus = "Approved"
	ApprovalRejected    ApprovalStatus = "Rejected"
	ApprovalUnderReview ApprovalStatus = "Under Review"
)

type Course struct {
	ID           string `json:"id" db:"course_id"`
	InstructorID string `json:"instructorId" db:"instructor_id"`
	CategoryID   string `json:"categoryId" db:"category_id"`
	Name         string `json:"name" db:"name"`
	Description  string `json:"description" db:"description"`
	Level        string `json:"level" db:"level"`
	Language     string `json:"language" db:"language"`
	ThumbnailURL string `json:"thumbnailUrl" db:"thumbnail_url"`

	Price         int `json:"price" db:"price"`
	OriginalPrice int `json:"originalPrice" db:"original_price"`

	Status              Status         `json:"status" db:"status"`
	ApprovalStatus      ApprovalStatus `json:"approvalStatus" db:"approval_status"`
	Published           bool           `json:"isPublished" db:"is_published"`
	AdminApprovedBy     *string        `json:"adminApprovedBy,omitempty" db:"admin_approved_by"`
	AdminApprovedAt     *time.Time     `json:"adminApprovedAt,omitempty" db:"admin_approved_at"`
	RejectionReason     string         `json:"rejectionReason,omitempty" db:"rejection_reason"`
	RevisionNotes       string         `json:"revisionNotes,omitempty" db:"revision_notes"`
	AdminNotes          string         `json:"adminNotes,omitempty" db:"admin_notes"`
	PriceOverride       *int           `json:"adminPriceOverride,omitempty" db:"price_override"`
	PriceOverrideReason string         `json:"adminPriceOverrideReason,omitempty" db:"price_override_reason"`
	Featured            bool           `json:"featured" db:"featured"`

	TotalDuration int     `json:"totalDuration" db:"total_duration"`
	TotalLectures int     `json:"totalLectures" db:"total_lectures"`
	TotalStudents int     `json:"totalStudents" db:"total_students"`
	AverageRating float64 `json:"averageRating" db:"average_rating"`
	TotalRatings  int     `json:"totalRatings" db:"total_ratings"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
}

type CourseNew struct {
	Name          string `json:"name" validate:"required"`
	Description   string `json:"description" validate:"required"`
	CategoryID    string `json:"categoryId" validate:"required,uuid4"`
	Level         string `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Language      string `json:"language"`
	ThumbnailURL  string `json:"thumbnailUrl" validate:"omitempty,url"`
	Price         int    `json:"price" validate:"gte=0,lte=100000"`
	OriginalPrice int    `json:"originalPrice" validate:"gte=0,lte=100000"`
}

type CourseUp struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	CategoryID    *string `json:"categoryId" validate:"omitempty,uuid4"`
	Level         *string `json:"level" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Language      *string `json:"language"`
	ThumbnailURL  *string `json:"thumbnailUrl" validate:"omitempty,url"`
	Price         *int    `json:"price" validate:"omitempty,gte=0,lte=100000"`
	OriginalPrice *int    `json:"originalPrice" validate:"omitempty,gte=0,lte=100000"`
}

// Listed is the listing shape with the instructor and category joined in.
type Listed struct {
	Course
	Instructor user.Summary     `json:"instructor" db:"instructor"`
	Category   category.Summary `json:"category" db:"category"`
}

// Summary is the shape returned by admin decision endpoints.
type Summary struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	Price          int            `json:"price"`
}

func (c Course) Summarize() Summary {
	return Summary{
		ID:             c.ID,
		Name:           c.Name,
		ApprovalStatus: c.ApprovalStatus,
		Price:          c.Price,
	}
}

// Decision is an admin verdict on a submitted course.
type Decision struct {
	Outcome             ApprovalStatus
	AdminID             string
	AdminNotes          string
	RejectionReason     string
	RevisionNotes       string
	PriceOverride       *int
	PriceOverrideReason string
	At                  time.Time
}

// Apply mutates the course according to the decision. The publication
// flags are derived here and nowhere else, so approval status, storefront
// status and is_published cannot drift apart.
func (c *Course) Apply(d Decision) {
	c.ApprovalStatus = d.Outcome
	c.AdminApprovedBy = &d.AdminID
	at := d.At
	c.AdminApprovedAt = &at
	c.AdminNotes = d.AdminNotes

	switch d.Outcome {
	case ApprovalApproved:
		c.Published = true
		c.Status = StatusPublished
		if d.PriceOverride != nil {
			c.SetPriceOverride(*d.PriceOverride, d.PriceOverrideReason)
		}

	case ApprovalRejected:
		c.Published = false
		c.Status = StatusDraft
		c.RejectionReason = d.RejectionReason

	case ApprovalUnderReview:
		c.Published = false
		c.Status = StatusDraft
		c.RevisionNotes = d.RevisionNotes
	}

	c.UpdatedAt = d.At
}

// SetPriceOverride forces the selling price to the admin-set value. It
// deliberately leaves the approval status alone.
func (c *Course) SetPriceOverride(price int, reason string) {
	p := price
	c.PriceOverride = &p
	c.PriceOverrideReason = reason
	c.Price = price
}

// Resubmit puts an instructor-corrected course back into the review queue.
func (c *Course) Resubmit(now time.Time) {
	c.ApprovalStatus = ApprovalPending
	c.Published = false
	c.Status = StatusDraft
	c.UpdatedAt = now
}

func (c Course) AwaitsCorrection() bool {
	return c.ApprovalStatus == ApprovalRejected || c.ApprovalStatus == ApprovalUnderReview
}
