package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

var (
	errInvalidUTF8       = errors.New("content is not valid UTF-8")
	errNoRows            = errors.New("csv has no rows")
	errUnterminatedQuote = errors.New("unexpected end of data inside quoted field")
)

// CSVParser extracts comma-delimited rows. Rows keep their order and are
// rejoined with commas. Blank lines stay in place as empty rows. Stray
// quotes inside a field are kept literally.
type CSVParser struct{}

func (CSVParser) Kind() Kind { return KindCSV }

func (CSVParser) Supports(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func (CSVParser) Parse(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", skip(ReasonInvalidEncoding, errInvalidUTF8)
	}
	// LazyQuotes accepts a quoted field that runs to the end of the data.
	if hasUnterminatedQuote(data) {
		return "", skip(ReasonMalformedCSV, fmt.Errorf("parse csv: %w", errUnterminatedQuote))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		lines   []string
		records int
		next    = 1 // line the next record would start on
	)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", skip(ReasonMalformedCSV, fmt.Errorf("parse csv: %w", err))
		}
		records++

		start, _ := r.FieldPos(0)
		for ; next < start; next++ {
			lines = append(lines, "")
		}
		last, _ := r.FieldPos(len(record) - 1)
		next = last + strings.Count(record[len(record)-1], "\n") + 1

		lines = append(lines, strings.Join(record, ","))
	}
	if records == 0 {
		return "", skip(ReasonEmptyContent, errNoRows)
	}

	for total := lineCount(data); next <= total; next++ {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n"), nil
}

// lineCount counts newline-terminated lines plus a final unterminated one.
func lineCount(data []byte) int {
	n := bytes.Count(data, []byte{'\n'})
	if len(data) > 0 && data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// hasUnterminatedQuote reports whether data ends inside a quoted field under
// the lazy quoting rules of encoding/csv: a quote opens a field only at its
// start, and closes it only before a comma, a line end or the end of data.
func hasUnterminatedQuote(data []byte) bool {
	quoted, fieldStart := false, true
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !quoted {
			switch {
			case c == '"' && fieldStart:
				quoted, fieldStart = true, false
			case c == ',' || c == '\n':
				fieldStart = true
			default:
				fieldStart = false
			}
			continue
		}
		if c != '"' {
			continue
		}
		switch rest := data[i+1:]; {
		case len(rest) == 0:
			quoted = false
		case rest[0] == '"':
			i++
		case rest[0] == ',' || rest[0] == '\n':
			quoted, fieldStart = false, true
			i++
		case bytes.HasPrefix(rest, []byte("\r\n")):
			quoted, fieldStart = false, true
			i += 2
		}
	}
	return quoted
}
