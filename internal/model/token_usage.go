package model

import "time"

// TokenUsage is one row of the append-only usage ledger.
type TokenUsage struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int       `db:"user_id" json:"user_id"`
	TokensUsed  int       `db:"tokens_used" json:"tokens_used"`
	Model       string    `db:"model" json:"model"`
	RequestType string    `db:"request_type" json:"request_type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ModelTokenTotal aggregates the ledger for one user and model.
type ModelTokenTotal struct {
	Model    string `db:"model" json:"model"`
	Tokens   int    `db:"tokens" json:"tokens"`
	Requests int    `db:"requests" json:"requests"`
}
