package api

import "edulearn/internal/usage"

// swagger:model api.ChatMessage
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant" example:"user"`
	Content string `json:"content" validate:"required" example:"Explain recursion"`
}

// swagger:model api.ChatRequest
type ChatRequest struct {
	Model       string        `json:"model" validate:"required" example:"meta-llama/llama-3.2-3b-instruct:free"`
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2" example:"0.7"`
	MaxTokens   *int          `json:"maxTokens,omitempty" validate:"omitempty,gt=0" example:"512"`
}

// ChatErrorResponse describes provider-side failures.
// swagger:model api.ChatErrorResponse
type ChatErrorResponse struct {
	Error          string `json:"error" example:"Rate limited by provider"`
	RetryAfter     int    `json:"retryAfter,omitempty" example:"60"`
	SuggestedModel string `json:"suggestedModel,omitempty" example:"meta-llama/llama-3.2-3b-instruct:free"`
}

// swagger:model api.TokenLimitResponse
type TokenLimitResponse struct {
	Message string       `json:"message" example:"Token limit exceeded"`
	Status  usage.Status `json:"status"`
}
