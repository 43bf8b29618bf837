// Package chapter slices book text into reading units along the headings
// the structure analyzer finds.
package chapter

import (
	"strings"

	"github.com/mkotula/retain/internal/structure"
)

// Chapter is one reading unit cut out of a book text. Content keeps the
// heading line; Start/End are byte offsets into the analyzed text.
type Chapter struct {
	Number  int // 1-based position in reading order
	Title   string
	Content string
	Level   int
	Start   int
	End     int
}

// Entry is one table-of-contents row.
type Entry struct {
	Title    string
	Level    int
	Position int // byte offset where the chapter begins
}

// Split cuts book text into chapters along detected headings. Main content
// ahead of the first heading becomes an introduction chapter. Text with no
// detectable headings at all becomes a single chapter.
func Split(text string) []Chapter {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s := structure.Analyze(text)
	if len(s.Headings) == 0 {
		return []Chapter{{
			Number:  1,
			Title:   "Chapter 1",
			Content: text,
			Level:   1,
			Start:   0,
			End:     len(text),
		}}
	}

	var chapters []Chapter

	first := s.Headings[0]
	if pre := text[len(s.FrontMatter):first.Start]; strings.TrimSpace(pre) != "" {
		chapters = append(chapters, Chapter{
			Title:   "Introduction",
			Content: pre,
			Level:   1,
			Start:   len(s.FrontMatter),
			End:     first.Start,
		})
	}

	for _, h := range s.Headings {
		chapters = append(chapters, Chapter{
			Title:   h.Title,
			Content: text[h.Start:h.End],
			Level:   h.Level,
			Start:   h.Start,
			End:     h.End,
		})
	}

	for i := range chapters {
		chapters[i].Number = i + 1
	}
	return chapters
}

// TableOfContents lists chapters in reading order.
func TableOfContents(chapters []Chapter) []Entry {
	entries := make([]Entry, 0, len(chapters))
	for _, ch := range chapters {
		entries = append(entries, Entry{
			Title:    ch.Title,
			Level:    ch.Level,
			Position: ch.Start,
		})
	}
	return entries
}

// WordCount counts the chapter's whitespace-separated tokens.
func (c Chapter) WordCount() int {
	return structure.WordCount(c.Content)
}

// ReadingMinutes estimates how long the chapter takes to read.
func (c Chapter) ReadingMinutes() int {
	return structure.ReadingTime(c.WordCount())
}
