package model

import "time"

var EventTypes = []string{"workshop", "hackathon", "seminar", "meetup", "competition", "webinar"}

type Event struct {
	ID               int              `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	Description      string           `db:"description" json:"description"`
	Date             time.Time        `db:"event_date" json:"date"`
	Time             string           `db:"event_time" json:"time"`
	Location         string           `db:"location" json:"location"`
	Type             string           `db:"type" json:"type"`
	Capacity         int              `db:"capacity" json:"capacity"`
	Registered       int              `db:"registered" json:"registered"`
	Tags             []string         `db:"tags" json:"tags"`
	Speaker          *string          `db:"speaker" json:"speaker,omitempty"`
	ImageURL         *string          `db:"image_url" json:"image_url,omitempty"`
	SubmittedByEmail string           `db:"submitted_by_email" json:"submitted_by_email"`
	SubmittedByName  string           `db:"submitted_by_name" json:"submitted_by_name"`
	Status           ModerationStatus `db:"status" json:"status"`
	IsApproved       bool             `db:"is_approved" json:"is_approved"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// SpotsLeft never goes below zero.
func (e *Event) SpotsLeft() int {
	if e.Registered >= e.Capacity {
		return 0
	}
	return e.Capacity - e.Registered
}

type EventRegistration struct {
	ID           int       `db:"id" json:"id"`
	EventID      int       `db:"event_id" json:"event_id"`
	UserEmail    string    `db:"user_email" json:"user_email"`
	UserName     string    `db:"user_name" json:"user_name"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`
}

// EventFilter narrows event listings. Empty fields do not filter.
type EventFilter struct {
	Type     string
	Search   string
	Upcoming bool

	IncludeAll bool
	OwnerEmail string
}

// RegistrationState is what the store reads back when a registration attempt
// affected no rows.
type RegistrationState struct {
	Found             bool
	Status            ModerationStatus
	Capacity          int
	Registered        int
	AlreadyRegistered bool
}
