package api

// ErrorResponse 全域錯誤回應模型
// swagger:model api.ErrorResponse
type ErrorResponse struct {
	Message string `json:"message" example:"invalid request"`
}

// swagger:model api.MessageResponse
type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}
