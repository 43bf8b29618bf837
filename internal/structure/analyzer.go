// Package structure detects the internal layout of plain book text: front
// matter, title and author, chapter and section headings, and reading
// metrics. Analysis is pure and total; any string input yields a result.
package structure

import (
	"math"
	"strings"
)

// UnknownTitle and UnknownAuthor are the fallbacks reported when the
// front matter carries no usable title or author line.
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

const (
	wordsPerMinute    = 225
	complexityCeiling = 30 // heading count at which complexity saturates
)

// Analyze inspects raw book text and returns its detected structure. All
// heading offsets are byte offsets into the input string, so callers can
// slice the original text directly.
func Analyze(text string) Structure {
	front, main := splitFrontMatter(text)
	title, author := extractTitleAuthor(front)
	headings := scanHeadings(main, len(front), len(text))
	words := WordCount(text)

	return Structure{
		Title:       title,
		Author:      author,
		FrontMatter: front,
		MainContent: main,
		Headings:    headings,
		Metadata: Metadata{
			WordCount:      words,
			ReadingMinutes: ReadingTime(words),
			HasFrontMatter: strings.TrimSpace(front) != "",
			Complexity:     complexity(len(headings)),
		},
	}
}

// splitFrontMatter separates leading front matter from the main content.
// The split point is the first occurrence of the highest-priority marker
// token; the token itself stays at the start of the main content.
func splitFrontMatter(text string) (front, main string) {
	for _, tok := range frontMatterTokens {
		if i := strings.Index(text, tok); i >= 0 {
			return text[:i], text[i:]
		}
	}
	return "", text
}

// extractTitleAuthor pulls the book title and author out of front matter.
// Title is the first non-blank line. Author is the remainder of the first
// line carrying an "author:" or "by " marker, matched case-insensitively.
func extractTitleAuthor(front string) (title, author string) {
	title, author = UnknownTitle, UnknownAuthor

	lines := strings.Split(front, "\n")
	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			title = t
			break
		}
	}

	for _, line := range lines {
		if a, ok := authorFromLine(line); ok {
			author = a
			break
		}
	}
	return title, author
}

func authorFromLine(line string) (string, bool) {
	lower := strings.ToLower(line)
	for _, marker := range []string{"author:", "by "} {
		i := strings.Index(lower, marker)
		if i < 0 {
			continue
		}
		// Case folding can shift byte lengths; stay inside the original line.
		if i+len(marker) > len(line) {
			continue
		}
		if a := strings.TrimSpace(line[i+len(marker):]); a != "" {
			return a, true
		}
	}
	return "", false
}

// scanHeadings walks the main content once, collecting pattern matches with
// their running byte offsets, then pairs consecutive matches: each heading
// ends where the next one starts, and the last one ends at the end of the
// text. base is the main content's offset within the original text; total
// is the original text's length.
func scanHeadings(main string, base, total int) []Heading {
	var headings []Heading

	offset := 0
	for _, line := range strings.Split(main, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			for _, p := range headingPatterns {
				m := p.re.FindStringSubmatch(trimmed)
				if m == nil {
					continue
				}
				title := strings.TrimSpace(m[2])
				if title == "" {
					title = "Chapter " + m[1]
				}
				headings = append(headings, Heading{
					Kind:   p.kind,
					Number: m[1],
					Title:  title,
					Start:  base + offset,
					Level:  1,
				})
				break
			}
		}
		offset += len(line) + 1
	}

	for i := range headings {
		if i+1 < len(headings) {
			headings[i].End = headings[i+1].Start
		} else {
			headings[i].End = total
		}
	}
	return headings
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReadingTime estimates minutes to read a word count at 225 wpm, never
// reporting less than one minute.
func ReadingTime(words int) int {
	m := int(math.Round(float64(words) / wordsPerMinute))
	if m < 1 {
		return 1
	}
	return m
}

func complexity(headings int) float64 {
	if headings == 0 {
		return 0
	}
	return math.Min(1, float64(headings)/complexityCeiling)
}
