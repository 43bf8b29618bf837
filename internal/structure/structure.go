package structure

// Structure is the detected layout of a book text: front matter, main
// content, chapter/section headings, and derived reading metrics.
type Structure struct {
	Title       string    // From front matter; "Unknown Title" when absent
	Author      string    // From front matter; "Unknown Author" when absent
	FrontMatter string    // Text before the first chapter marker (may be empty)
	MainContent string    // Text from the first chapter marker to the end
	Headings    []Heading // Detected headings in document order
	Metadata    Metadata
}

// Heading is one detected chapter or section heading. Start and End are byte
// offsets into the original analyzed text, so text[Start:End] is the span the
// heading owns (its own line through the start of the next heading).
type Heading struct {
	Kind   string // "chapter" or "section"
	Number string // Numbering token as written: "7", "IV"
	Title  string // Trimmed title text; "Chapter {Number}" when the line has none
	Start  int
	End    int
	Level  int // Always 1; the scanner is flat
}

// Metadata carries whole-document reading metrics.
type Metadata struct {
	WordCount      int     // Whitespace-separated tokens in the full text
	ReadingMinutes int     // At 225 wpm, floored at 1
	HasFrontMatter bool    // Front matter present and non-blank
	Complexity     float64 // 0.0 without headings, else headings/30 capped at 1.0
}

// Heading kinds.
const (
	KindChapter = "chapter"
	KindSection = "section"
)
