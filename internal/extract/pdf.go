package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDF handles PDF files.
type PDF struct{}

func (e *PDF) Name() string { return "pdf" }

func (e *PDF) Extract(r io.Reader) (string, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we stage a temp file.
	tmp, err := os.CreateTemp("", "retain-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Scanned or damaged pages yield nothing; skip them.
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}

	out := strings.Join(pages, "\n\n")
	if strings.TrimSpace(out) == "" {
		return "", ErrNoText
	}
	return out, nil
}
