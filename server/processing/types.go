// Package processing composes the prompt for a chat request, relays it to
// the completion provider and formats the reply.
package processing

import (
	"github.com/railgpt/relay/server/extract"
	"github.com/railgpt/relay/server/provider"
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one chat request after decoding and validation.
type Request struct {
	Credentials  provider.Credentials
	SystemPrompt string
	UserPrompt   string
	Attachments  []extract.Attachment
}

// Response is the processed model reply.
type Response struct {
	// Content is the formatted reply text.
	Content string `json:"content"`

	// Attachments reports what happened to each attachment.
	Attachments []extract.Outcome `json:"-"`
}

// promptData is exposed to the attachment template.
type promptData struct {
	SystemPrompt  string
	UserPrompt    string
	ExtractedText string
}
