package config

import (
	"fmt"
	"text/template"
)

// DefaultAttachmentTemplate renders the user message when attachments
// produced text.
const DefaultAttachmentTemplate = "{{.UserPrompt}}\n\n--- EXTRACTED FILE CONTENT ---\n{{.ExtractedText}}"

// ProcessingConfig defines the configuration for request/response processing
type ProcessingConfig struct {
	// AttachmentTemplate is a text/template for the user message when
	// extraction yielded text. Fields: .UserPrompt, .SystemPrompt, .ExtractedText
	AttachmentTemplate string `yaml:"attachment_template"`

	// ResponseFormatting configures how responses should be formatted
	ResponseFormatting ResponseFormattingConfig `yaml:"response_formatting"`
}

// ResponseFormattingConfig defines response formatting options
type ResponseFormattingConfig struct {
	// TrimWhitespace removes extra whitespace from responses
	TrimWhitespace bool `yaml:"trim_whitespace"`

	// MaxLength limits the response length in bytes
	MaxLength int `yaml:"max_length"`
}

// DefaultProcessingConfig uses the fixed delimiter and passes the response
// through untouched.
func DefaultProcessingConfig() ProcessingConfig {
	return ProcessingConfig{
		AttachmentTemplate: DefaultAttachmentTemplate,
	}
}

// Validate checks the template parses and limits are sane.
func (p ProcessingConfig) Validate() error {
	if p.AttachmentTemplate == "" {
		return fmt.Errorf("empty attachment template")
	}
	if _, err := template.New("attachment").Parse(p.AttachmentTemplate); err != nil {
		return fmt.Errorf("invalid attachment template: %w", err)
	}
	if p.ResponseFormatting.MaxLength < 0 {
		return fmt.Errorf("negative max response length: %d", p.ResponseFormatting.MaxLength)
	}
	return nil
}
