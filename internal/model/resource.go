package model

import "time"

var (
	ResourceLevels  = []string{"beginner", "intermediate", "advanced"}
	ResourceTypes   = []string{"video", "article", "tutorial", "course", "tool"}
	ResourceCourses = []string{
		"web-development",
		"data-science",
		"machine-learning",
		"mobile-development",
		"cybersecurity",
		"cloud-computing",
		"programming-fundamentals",
		"other",
	}
)

type Resource struct {
	ID               int              `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	Level            string           `db:"level" json:"level"`
	Course           string           `db:"course" json:"course"`
	Tags             []string         `db:"tags" json:"tags"`
	Type             string           `db:"type" json:"type"`
	Author           string           `db:"author" json:"author"`
	Rating           float64          `db:"rating" json:"rating"`
	Link             string           `db:"link" json:"link"`
	SubmittedByEmail *string          `db:"submitted_by_email" json:"submitted_by_email,omitempty"`
	SubmittedByName  *string          `db:"submitted_by_name" json:"submitted_by_name,omitempty"`
	Status           ModerationStatus `db:"status" json:"status"`
	IsApproved       bool             `db:"is_approved" json:"is_approved"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// ResourceFilter narrows resource listings. Empty fields do not filter.
type ResourceFilter struct {
	Type   string
	Level  string
	Course string
	Search string

	// IncludeAll returns every row regardless of status.
	IncludeAll bool
	// OwnerEmail additionally returns non-approved rows submitted by this email.
	OwnerEmail string
}
