package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestForFile_DispatchByExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"book.txt", "text"},
		{"book.TXT", "text"},
		{"notes.md", "markdown"},
		{"notes.markdown", "markdown"},
		{"page.html", "html"},
		{"page.htm", "html"},
		{"book.pdf", "pdf"},
		{"book.PDF", "pdf"},
		{"book.epub", "epub"},
		{"report.docx", "docx"},
	}
	for _, tt := range tests {
		e, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if e.Name() != tt.want {
			t.Errorf("%s: expected extractor %q, got %q", tt.filename, tt.want, e.Name())
		}
	}
}

func TestForFile_UnsupportedExtension(t *testing.T) {
	for _, filename := range []string{"book.mobi", "archive.zip", "noext", "book.txt.exe"} {
		if _, err := ForFile(filename); err == nil {
			t.Errorf("%s: expected error for unsupported extension", filename)
		}
		if IsSupported(filename) {
			t.Errorf("%s: expected IsSupported false", filename)
		}
	}
}

func TestSupported_ContainsKnownExtensions(t *testing.T) {
	exts := Supported()
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	for _, want := range []string{".txt", ".pdf", ".epub", ".docx", ".md", ".html"} {
		if !set[want] {
			t.Errorf("expected %s in supported extensions %v", want, exts)
		}
	}
}

func TestTextExtractor_UTF8Passthrough(t *testing.T) {
	e := &Text{}
	got, err := e.Extract(strings.NewReader("Hello\r\nWorld\rAgain"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello\nWorld\nAgain" {
		t.Errorf("expected normalized newlines, got %q", got)
	}
}

func TestTextExtractor_Windows1252Fallback(t *testing.T) {
	// "café" encoded as Latin-1/Windows-1252: 0xE9 is not valid UTF-8.
	e := &Text{}
	got, err := e.Extract(strings.NewReader("caf\xe9 \x93quoted\x94"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "café") {
		t.Errorf("expected decoded é, got %q", got)
	}
	if !strings.Contains(got, "“quoted”") {
		t.Errorf("expected curly quotes from Windows-1252 bytes, got %q", got)
	}
}

func TestTextExtractor_EmptyInput(t *testing.T) {
	e := &Text{}
	if _, err := e.Extract(strings.NewReader("   \n\t\n")); !errors.Is(err, ErrNoText) {
		t.Errorf("expected ErrNoText, got %v", err)
	}
}

func TestMarkdownExtractor_KeepsHeadingLines(t *testing.T) {
	input := "# Chapter 1\n\nFirst paragraph of the story.\n\n## Section 2: Details\n\nMore *emphasized* prose.\n"
	e := &Markdown{}
	got, err := e.Extract(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blocks := strings.Split(got, "\n\n")
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d: %q", len(blocks), got)
	}
	if blocks[0] != "Chapter 1" {
		t.Errorf("expected heading block %q, got %q", "Chapter 1", blocks[0])
	}
	if blocks[1] != "First paragraph of the story." {
		t.Errorf("expected paragraph block, got %q", blocks[1])
	}
	if blocks[2] != "Section 2: Details" {
		t.Errorf("expected heading block %q, got %q", "Section 2: Details", blocks[2])
	}
	if !strings.Contains(blocks[3], "emphasized") {
		t.Errorf("expected emphasis text preserved, got %q", blocks[3])
	}
	if strings.Contains(got, "*") || strings.Contains(got, "#") {
		t.Errorf("expected markdown syntax stripped, got %q", got)
	}
}

func TestMarkdownExtractor_CodeBlocks(t *testing.T) {
	input := "Intro.\n\n```\nfirst line\nsecond line\n```\n"
	e := &Markdown{}
	got, err := e.Extract(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "first line") || !strings.Contains(got, "second line") {
		t.Errorf("expected code block content preserved, got %q", got)
	}
}

func TestHTMLExtractor_BasicDocument(t *testing.T) {
	input := `<html><head><title>ignored</title><style>p{color:red}</style></head>
<body>
<h1>Chapter 1</h1>
<p>This is the <b>first</b> paragraph.</p>
<script>var x = 1;</script>
<p>Second paragraph.</p>
</body></html>`

	e := &HTML{}
	got, err := e.Extract(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(got, "Chapter 1") {
		t.Errorf("expected output to start with the heading, got %q", got)
	}
	if !strings.Contains(got, "This is the first paragraph.") {
		t.Errorf("expected paragraph text with inline tags flattened, got %q", got)
	}
	if !strings.Contains(got, "Second paragraph.") {
		t.Errorf("expected second paragraph, got %q", got)
	}
	if strings.Contains(got, "var x") || strings.Contains(got, "color:red") {
		t.Errorf("expected script/style content skipped, got %q", got)
	}
}

func TestHTMLExtractor_TextOutsideBlocks(t *testing.T) {
	input := `<html><body><div>Loose text in a div.</div></body></html>`
	e := &HTML{}
	got, err := e.Extract(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "Loose text in a div.") {
		t.Errorf("expected fallback pass to keep div text, got %q", got)
	}
}
