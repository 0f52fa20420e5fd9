package validation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/railgpt/relay/server/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"azureEndpoint": "https://rail.openai.azure.com/",
	"azureApiKey": "secret",
	"model": "gpt-4",
	"systemPrompt": "You are helpful.",
	"userPrompt": "Hello",
	"files": [{"filename": "a.csv", "content": "YSxi"}]
}`

type errorBody struct {
	Type    string `json:"type"`
	Detail  string `json:"detail"`
	Details struct {
		Errors []ValidationErrorDetail `json:"errors"`
	} `json:"details"`
}

func TestValidateChat(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		body           string
		maxBytes       int64
		expectedStatus int
		expectedDetail string
		expectedFields []string
	}{
		{
			name:           "valid request",
			contentType:    "application/json",
			body:           validBody,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "valid request with charset",
			contentType:    "application/json; charset=utf-8",
			body:           validBody,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "files may be omitted",
			contentType:    "application/json",
			body:           `{"azureEndpoint": "https://x.openai.azure.com", "azureApiKey": "k", "model": "", "systemPrompt": "", "userPrompt": "hi"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong content type",
			contentType:    "text/plain",
			body:           validBody,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid or missing Content-Type header",
			expectedFields: []string{"header:Content-Type"},
		},
		{
			name:           "malformed json",
			contentType:    "application/json",
			body:           `{"azureEndpoint": `,
			expectedStatus: http.StatusBadRequest,
			expectedDetail: "Invalid request format",
			expectedFields: []string{"body"},
		},
		{
			name:           "missing credentials",
			contentType:    "application/json",
			body:           `{"userPrompt": "hi"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedDetail: "Request validation failed",
			expectedFields: []string{"azureEndpoint", "azureApiKey"},
		},
		{
			name:           "endpoint is not a url",
			contentType:    "application/json",
			body:           `{"azureEndpoint": "not a url", "azureApiKey": "k"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedFields: []string{"azureEndpoint"},
		},
		{
			name:           "attachment without filename is left to extraction",
			contentType:    "application/json",
			body:           `{"azureEndpoint": "https://x.openai.azure.com", "azureApiKey": "k", "files": [{"filename": "", "content": "aGk="}, {"filename": "a.csv", "content": "YSxi"}]}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong field type",
			contentType:    "application/json",
			body:           `{"azureEndpoint": "https://x.openai.azure.com", "azureApiKey": "k", "files": "nope"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedFields: []string{"files"},
		},
		{
			name:           "body too large",
			contentType:    "application/json",
			body:           validBody,
			maxBytes:       32,
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *ChatRequest
			handler := ValidateChat(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var ok bool
				got, ok = ChatRequestFromContext(r.Context())
				require.True(t, ok)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.expectedStatus, rr.Code, rr.Body.String())
			if tt.expectedStatus == http.StatusOK {
				require.NotNil(t, got)
				return
			}
			assert.Nil(t, got)
			assert.NotContains(t, rr.Body.String(), "secret")

			var body errorBody
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, "validation_error", body.Type)
			if tt.expectedDetail != "" {
				assert.Equal(t, tt.expectedDetail, body.Detail)
			}
			var fields []string
			for _, d := range body.Details.Errors {
				fields = append(fields, d.Field)
			}
			for _, f := range tt.expectedFields {
				assert.Contains(t, fields, f)
			}
		})
	}
}

func TestValidateChatDecodesRequest(t *testing.T) {
	var got *ChatRequest
	handler := ValidateChat(1 << 20)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ChatRequestFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(validBody))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, got)
	assert.Equal(t, &ChatRequest{
		AzureEndpoint: "https://rail.openai.azure.com/",
		AzureAPIKey:   "secret",
		Model:         "gpt-4",
		SystemPrompt:  "You are helpful.",
		UserPrompt:    "Hello",
		Files:         []extract.Attachment{{Filename: "a.csv", Content: "YSxi"}},
	}, got)
}

func TestValidateChatRequest(t *testing.T) {
	details := ValidateChatRequest(&ChatRequest{AzureEndpoint: "https://x", AzureAPIKey: "k"})
	assert.Empty(t, details)

	details = ValidateChatRequest(&ChatRequest{})
	require.Len(t, details, 2)
	assert.Equal(t, "azureEndpoint", details[0].Field)
	assert.Equal(t, "required_validation_failed", details[0].Code)
	assert.Equal(t, "field 'azureEndpoint' is required", details[0].Message)
}

func TestValidateChatRequestAllowsUnnamedAttachments(t *testing.T) {
	details := ValidateChatRequest(&ChatRequest{
		AzureEndpoint: "https://x",
		AzureAPIKey:   "k",
		Files: []extract.Attachment{
			{Content: "aGk="},
			{Filename: "a.csv", Content: "YSxi"},
		},
	})
	assert.Empty(t, details)
}

func TestChatRequestFromContextMissing(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	_, ok := ChatRequestFromContext(req.Context())
	assert.False(t, ok)
}
