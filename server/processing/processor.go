package processing

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/server/extract"
	"github.com/railgpt/relay/server/middleware"
	"github.com/railgpt/relay/server/provider"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Extractor pulls text out of attachments.
type Extractor interface {
	Extract(ctx context.Context, files []extract.Attachment) extract.Report
}

// Completer sends chat messages to the completion provider.
type Completer interface {
	Complete(ctx context.Context, creds provider.Credentials, messages []openai.ChatCompletionMessage) (string, error)
}

// Processor runs one chat request as a single linear pass: extract,
// compose, relay, format.
type Processor struct {
	extractor Extractor
	completer Completer
	template  *template.Template
	config    *config.ProcessingConfig
	logger    *zap.Logger
}

// NewProcessor creates a Processor. The attachment template is compiled
// up front so a bad template fails at startup.
func NewProcessor(cfg *config.ProcessingConfig, extractor Extractor, completer Completer, logger *zap.Logger) (*Processor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("processing config is required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("attachment").Option("missingkey=error").Parse(cfg.AttachmentTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse attachment template: %w", err)
	}

	return &Processor{
		extractor: extractor,
		completer: completer,
		template:  tmpl,
		config:    cfg,
		logger:    logger,
	}, nil
}

// BuildMessages returns the system and user messages for req. The user
// message is the caller's prompt unchanged unless extracted is non-empty.
func (p *Processor) BuildMessages(req *Request, extracted string) ([]Message, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	user := req.UserPrompt
	if extracted != "" {
		var buf bytes.Buffer
		data := promptData{
			SystemPrompt:  req.SystemPrompt,
			UserPrompt:    req.UserPrompt,
			ExtractedText: extracted,
		}
		if err := p.template.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("template execution failed: %w", err)
		}
		user = buf.String()
	}

	return []Message{
		{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: user},
	}, nil
}

// ProcessRequest runs req end to end. Provider failures are returned as
// *provider.Failure values unchanged.
func (p *Processor) ProcessRequest(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request cannot be nil")
	}

	report := p.extractor.Extract(ctx, req.Attachments)
	extracted := report.Text()

	messages, err := p.BuildMessages(req, extracted)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("prompt composed",
		zap.String("request_id", middleware.GetRequestID(ctx)),
		zap.Int("attachments", len(req.Attachments)),
		zap.Int("skipped_attachments", len(report.Skipped())),
		zap.Int("system_prompt_length", len(req.SystemPrompt)),
		zap.Int("user_prompt_length", len(messages[1].Content)),
		zap.Int("extracted_length", len(extracted)),
	)

	content, err := p.completer.Complete(ctx, req.Credentials, toChatMessages(messages))
	if err != nil {
		return nil, err
	}

	resp := p.formatResponse(content)
	resp.Attachments = report.Outcomes
	return resp, nil
}

// formatResponse applies configured formatting options to the reply:
// 1. Trims whitespace if enabled
// 2. Truncates to max length if configured, on a rune boundary
//
// A reply left empty by formatting falls back to the empty-content text.
func (p *Processor) formatResponse(content string) *Response {
	if p.config.ResponseFormatting.TrimWhitespace {
		content = strings.TrimSpace(content)
	}
	if limit := p.config.ResponseFormatting.MaxLength; limit > 0 && len(content) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	if content == "" {
		content = provider.EmptyContentText
	}
	return &Response{Content: content}
}

func toChatMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}
