package validation

import (
	"github.com/railgpt/relay/server/extract"
)

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	AzureEndpoint string               `json:"azureEndpoint" validate:"required,url"`
	AzureAPIKey   string               `json:"azureApiKey" validate:"required"`
	Model         string               `json:"model"`
	SystemPrompt  string               `json:"systemPrompt"`
	UserPrompt    string               `json:"userPrompt"`
	Files         []extract.Attachment `json:"files,omitempty" validate:"omitempty,dive"`
}

// ValidationErrorDetail describes one invalid field. Submitted values are
// never echoed back since they may hold credentials.
type ValidationErrorDetail struct {
	Field   string `json:"field"`   // The field that failed validation
	Message string `json:"message"` // Human-readable error message
	Code    string `json:"code"`    // Machine-readable error code
}
