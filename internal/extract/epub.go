package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
)

// EPUB handles EPUB archives. Spine documents are extracted in reading
// order and joined with blank lines.
type EPUB struct{}

func (e *EPUB) Name() string { return "epub" }

func (e *EPUB) Extract(r io.Reader) (string, error) {
	// goreader opens by path, so we stage a temp file.
	tmp, err := os.CreateTemp("", "retain-epub-*.epub")
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

	rc, err := epub.OpenReader(tmpPath)
	if err != nil {
		return "", fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return "", fmt.Errorf("epub has no rootfiles")
	}
	book := rc.Rootfiles[0]

	var sections []string
	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		f, err := ref.Item.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			continue
		}
		text, err := htmlToText(bytes.NewReader(data))
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			sections = append(sections, t)
		}
	}

	out := strings.Join(sections, "\n\n")
	if strings.TrimSpace(out) == "" {
		return "", ErrNoText
	}
	return out, nil
}
