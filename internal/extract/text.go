package extract

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Text handles plain text files.
type Text struct{}

func (e *Text) Name() string { return "text" }

func (e *Text) Extract(r io.Reader) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}

	text := normalizeNewlines(decodeText(raw))
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

// decodeText interprets raw bytes as UTF-8, falling back to the legacy
// single-byte encodings plain-text book files commonly carry.
func decodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	// Windows-1252 first: a superset of ISO-8859-1 for printable bytes.
	if out, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil && utf8.Valid(out) {
		return string(out)
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw); err == nil && utf8.Valid(out) {
		return string(out)
	}
	return strings.ToValidUTF8(string(raw), "")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
