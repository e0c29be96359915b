package category

import "time"

type Category struct {
	ID          string    `json:"id" db:"category_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Summary is the category shape joined into course listings.
type Summary struct {
	ID   string `json:"id" db:"category_id"`
	Name string `json:"name" db:"name"`
}

type CategoryNew struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}
