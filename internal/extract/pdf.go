// Package extract converts attachment bytes into prompt text. It is a pure
// collaborator: no retries, no side effects.
package extract

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/dslipak/pdf"
)

// Text extracts the text of a PDF document ordered by page. Pages that fail
// to decode or contain no text are skipped; a document that cannot be opened
// at all is an error.
func Text(data []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &ParseError{Detail: "malformed PDF document"}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// DecodeDataURI decodes a base64 payload, tolerating an optional
// "data:...;base64," prefix as sent by the shell.
func DecodeDataURI(payload string) ([]byte, error) {
	if idx := strings.IndexByte(payload, ','); idx >= 0 {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

// ParseError reports a document that could not be parsed
type ParseError struct {
	Detail string
}

func (e *ParseError) Error() string {
	return "pdf parse error: " + e.Detail
}
