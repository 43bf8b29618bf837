package extract

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoText is returned when a file parses cleanly but yields no usable text.
var ErrNoText = errors.New("no extractable text")

// Extractor pulls plain text out of one file format. Extracted text keeps
// line breaks so downstream structure detection can see heading lines.
type Extractor interface {
	Extract(r io.Reader) (string, error)
	Name() string
}

var extractors = map[string]func() Extractor{
	".txt":      func() Extractor { return &Text{} },
	".md":       func() Extractor { return &Markdown{} },
	".markdown": func() Extractor { return &Markdown{} },
	".html":     func() Extractor { return &HTML{} },
	".htm":      func() Extractor { return &HTML{} },
	".pdf":      func() Extractor { return &PDF{} },
	".epub":     func() Extractor { return &EPUB{} },
	".docx":     func() Extractor { return &DOCX{} },
}

// ForFile returns the extractor matching a filename's extension.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	mk, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
	return mk(), nil
}

// IsSupported checks if a filename's extension can be extracted.
func IsSupported(filename string) bool {
	_, ok := extractors[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Supported returns the recognized extensions, sorted.
func Supported() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
