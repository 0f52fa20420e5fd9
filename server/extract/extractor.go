package extract

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/railgpt/relay/config"
	"github.com/railgpt/relay/server/metrics"
	"github.com/railgpt/relay/server/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errUnsupportedType = errors.New("unsupported file type")

// Parser turns decoded file bytes into text. A *SkipError return names
// the reason; any other error is recorded as an internal error.
type Parser interface {
	Kind() Kind
	Supports(filename string) bool
	Parse(data []byte) (string, error)
}

// DefaultParsers returns the parsers for every supported file type.
func DefaultParsers() []Parser {
	return []Parser{CSVParser{}, PDFParser{}}
}

// Extractor decodes attachments and pulls text out of them concurrently.
type Extractor struct {
	parsers     []Parser
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewExtractor creates an Extractor. m may be nil.
func NewExtractor(cfg config.ExtractionConfig, logger *zap.Logger, m *metrics.Metrics) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Extractor{
		parsers:     DefaultParsers(),
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// Extract processes every attachment and returns one Outcome per file, in
// input order. It never fails.
func (e *Extractor) Extract(ctx context.Context, files []Attachment) Report {
	outcomes := make([]Outcome, len(files))
	if len(files) == 0 {
		return Report{Outcomes: outcomes}
	}

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i := range files {
		i := i
		g.Go(func() error {
			outcomes[i] = e.extractOne(files[i])
			return nil
		})
	}
	_ = g.Wait()

	requestID := middleware.GetRequestID(ctx)
	for _, o := range outcomes {
		e.record(requestID, o)
	}
	return Report{Outcomes: outcomes}
}

func (e *Extractor) extractOne(f Attachment) (out Outcome) {
	out = Outcome{Filename: f.Filename, Kind: KindUnsupported}

	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusSkipped
			out.Reason = ReasonInternalError
			out.Err = fmt.Errorf("panic: %v", r)
			out.Text = ""
		}
	}()

	p := e.parserFor(f.Filename)
	if p == nil {
		return skipped(out, ReasonUnsupportedType, errUnsupportedType)
	}
	out.Kind = p.Kind()

	data, err := decodeContent(f.Content)
	if err != nil {
		return skipped(out, ReasonInvalidBase64, err)
	}
	if len(data) == 0 {
		return skipped(out, ReasonEmptyContent, errors.New("attachment is empty"))
	}

	text, err := p.Parse(data)
	if err != nil {
		var se *SkipError
		if errors.As(err, &se) {
			return skipped(out, se.Reason, se.Err)
		}
		return skipped(out, ReasonInternalError, err)
	}

	out.Status = StatusExtracted
	out.Text = text
	return out
}

func (e *Extractor) parserFor(filename string) Parser {
	for _, p := range e.parsers {
		if p.Supports(filename) {
			return p
		}
	}
	return nil
}

func (e *Extractor) record(requestID string, o Outcome) {
	if e.metrics != nil {
		e.metrics.AttachmentsTotal.WithLabelValues(string(o.Kind), string(o.Status), string(o.Reason)).Inc()
	}

	if o.Extracted() {
		e.logger.Info("attachment extracted",
			zap.String("request_id", requestID),
			zap.String("filename", o.Filename),
			zap.String("kind", string(o.Kind)),
			zap.Int("text_length", len(o.Text)),
		)
		return
	}

	fields := []zap.Field{
		zap.String("request_id", requestID),
		zap.String("filename", o.Filename),
		zap.String("kind", string(o.Kind)),
		zap.String("reason", string(o.Reason)),
	}
	if o.Err != nil {
		fields = append(fields, zap.Error(o.Err))
	}
	if o.Reason == ReasonUnsupportedType {
		e.logger.Info("attachment ignored", fields...)
		return
	}
	e.logger.Warn("attachment skipped", fields...)
}

func skipped(out Outcome, reason Reason, err error) Outcome {
	out.Status = StatusSkipped
	out.Reason = reason
	out.Err = err
	return out
}

// decodeContent decodes standard base64, tolerating surrounding
// whitespace and a data URL prefix.
func decodeContent(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ";base64,"); i >= 0 {
			s = s[i+len(";base64,"):]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}
