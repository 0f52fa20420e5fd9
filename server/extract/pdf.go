package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	errEncrypted = errors.New("pdf is encrypted")
	errNoText    = errors.New("no page yielded text")
)

// PDFParser extracts the plain text of every page. Encrypted documents are
// rejected even when they open with an empty password.
type PDFParser struct{}

func (PDFParser) Kind() Kind { return KindPDF }

func (PDFParser) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

func (PDFParser) Parse(data []byte) (text string, err error) {
	// The reader panics on some structurally broken files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = skip(ReasonMalformedPDF, fmt.Errorf("read pdf: %v", r))
		}
	}()

	rdr, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if isEncryptionError(err) {
			return "", skip(ReasonEncryptedPDF, err)
		}
		return "", skip(ReasonMalformedPDF, fmt.Errorf("open pdf: %w", err))
	}

	if rdr.Trailer().Key("Encrypt").Kind() != pdf.Null {
		return "", skip(ReasonEncryptedPDF, errEncrypted)
	}

	n := rdr.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pg := rdr.Page(i)
		if pg.V.IsNull() {
			continue
		}
		txt, perr := pg.GetPlainText(nil)
		if perr != nil {
			// Image-only or problematic page.
			continue
		}
		if s := strings.TrimSpace(txt); s != "" {
			pages = append(pages, s)
		}
	}

	if len(pages) == 0 {
		return "", skip(ReasonNoText, errNoText)
	}
	return strings.Join(pages, "\n"), nil
}

func isEncryptionError(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "encrypt")
}
