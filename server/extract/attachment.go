// Package extract turns base64 file attachments into plain text for the
// prompt. Every attachment yields exactly one Outcome; failures are recorded
// as skips and never abort the batch.
package extract

import (
	"strings"
)

// Attachment is a caller-supplied file transmitted as base64.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// Kind is the file type selected from the filename suffix.
type Kind string

const (
	KindCSV         Kind = "csv"
	KindPDF         Kind = "pdf"
	KindUnsupported Kind = "unsupported"
)

// Status tells whether an attachment contributed text.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusSkipped   Status = "skipped"
)

// Reason explains a skipped attachment.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonInvalidBase64   Reason = "invalid_base64"
	ReasonInvalidEncoding Reason = "invalid_encoding"
	ReasonMalformedCSV    Reason = "malformed_csv"
	ReasonEmptyContent    Reason = "empty_content"
	ReasonEncryptedPDF    Reason = "encrypted_pdf"
	ReasonMalformedPDF    Reason = "malformed_pdf"
	ReasonNoText          Reason = "no_text"
	ReasonInternalError   Reason = "internal_error"
)

// Outcome is the result of processing one attachment.
type Outcome struct {
	Filename string
	Kind     Kind
	Status   Status
	Reason   Reason
	Err      error
	Text     string
}

// Extracted reports whether the attachment contributed text.
func (o Outcome) Extracted() bool {
	return o.Status == StatusExtracted
}

// Report holds one Outcome per attachment in input order.
type Report struct {
	Outcomes []Outcome
}

// Text renders the extracted sections, each headed by the file name.
// It is empty when no attachment yielded text.
func (r Report) Text() string {
	var b strings.Builder
	for _, o := range r.Outcomes {
		if !o.Extracted() {
			continue
		}
		b.WriteString("\n--- Content from ")
		b.WriteString(o.Filename)
		b.WriteString(" ---\n")
		b.WriteString(o.Text)
	}
	return b.String()
}

// Skipped returns the outcomes that contributed no text.
func (r Report) Skipped() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Extracted() {
			out = append(out, o)
		}
	}
	return out
}

// SkipError carries the reason a parser rejected its input.
type SkipError struct {
	Reason Reason
	Err    error
}

func (e *SkipError) Error() string {
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *SkipError) Unwrap() error {
	return e.Err
}

func skip(reason Reason, err error) *SkipError {
	return &SkipError{Reason: reason, Err: err}
}
