package model

type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

// Submitter identifies who proposed a catalog item.
type Submitter struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}
