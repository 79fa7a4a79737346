package model

import "time"

// ProviderModel mirrors one entry of the provider's model catalog.
type ProviderModel struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	ContextLength   int       `db:"context_length" json:"context_length"`
	PromptPrice     string    `db:"prompt_price" json:"prompt_price"`
	CompletionPrice string    `db:"completion_price" json:"completion_price"`
	IsFree          bool      `db:"is_free" json:"is_free"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type ModelSyncLog struct {
	ID           int       `db:"id" json:"id"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
	FinishedAt   time.Time `db:"finished_at" json:"finished_at"`
	Status       string    `db:"status" json:"status"`
	ModelsSynced int       `db:"models_synced" json:"models_synced"`
	Error        *string   `db:"error" json:"error,omitempty"`
}
