package api

import (
	"time"

	"edulearn/internal/model"
)

// swagger:model api.SignUpRequest
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required,max=72" example:"secret123"`
	Name     string `json:"name" validate:"required,max=100" example:"Alice"`
}

// swagger:model api.SignInRequest
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// UserResponse never carries the password hash or the stored provider key.
// swagger:model api.UserResponse
type UserResponse struct {
	ID        int       `json:"id" example:"1"`
	Email     string    `json:"email" example:"alice@example.com"`
	Name      string    `json:"name" example:"Alice"`
	Role      string    `json:"role" example:"student"`
	IsAdmin   bool      `json:"isAdmin" example:"false"`
	HasAPIKey bool      `json:"hasApiKey" example:"false"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		IsAdmin:   u.IsAdmin,
		HasAPIKey: u.HasAPIKey(),
		CreatedAt: u.CreatedAt,
	}
}

// swagger:model api.SessionResponse
type SessionResponse struct {
	User     UserResponse `json:"user"`
	Provider string       `json:"provider" example:"password"`
}

// swagger:model api.SetAdminRequest
type SetAdminRequest struct {
	IsAdmin *bool `json:"isAdmin" validate:"required" example:"true"`
}
