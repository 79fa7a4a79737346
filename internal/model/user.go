package model

import "time"

type User struct {
	ID               int       `db:"id" json:"id"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     *string   `db:"password_hash" json:"-"`
	Name             string    `db:"name" json:"name"`
	Role             string    `db:"role" json:"role"`
	OpenRouterAPIKey *string   `db:"openrouter_api_key" json:"-"`
	IsAdmin          bool      `db:"is_admin" json:"is_admin"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// HasAPIKey reports whether the user stored a personal provider key.
func (u *User) HasAPIKey() bool {
	return u.OpenRouterAPIKey != nil && *u.OpenRouterAPIKey != ""
}
