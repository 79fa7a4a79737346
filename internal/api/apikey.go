package api

// swagger:model api.UpdateAPIKeyRequest
type UpdateAPIKeyRequest struct {
	APIKey string `json:"apiKey" validate:"required" example:"sk-or-v1-0123456789abcdef0123456789abcdef"`
}

// swagger:model api.APIKeyStatusResponse
type APIKeyStatusResponse struct {
	HasKey         bool   `json:"hasKey" example:"true"`
	MaskedKey      string `json:"maskedKey,omitempty" example:"sk-or-v1-0...cdef"`
	UsingServerKey bool   `json:"usingServerKey" example:"false"`
}
