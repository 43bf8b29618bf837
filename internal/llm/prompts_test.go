package llm

import (
	"strings"
	"testing"
)

func TestBuildChapterPrompt(t *testing.T) {
	prompt := BuildChapterPrompt(ChapterRequest{
		BookTitle:    "My Book",
		BookAuthor:   "Jane Doe",
		ChapterTitle: "The Long Road",
		Text:         "A road went ever on.",
	})

	for _, want := range []string{
		"<book_context>",
		"Title: My Book",
		"Author: Jane Doe",
		"<chapter>",
		"Title: The Long Road",
		"A road went ever on.",
		"difficulty rating",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestBuildChapterPrompt_UnknownDefaultsAndTruncation(t *testing.T) {
	prompt := BuildChapterPrompt(ChapterRequest{
		Text: strings.Repeat("a", promptContentCap+100),
	})

	if !strings.Contains(prompt, "Title: Unknown") {
		t.Error("expected missing titles to render as Unknown")
	}
	if !strings.Contains(prompt, "[content truncated]") {
		t.Error("expected oversized content to carry a truncation marker")
	}

	short := BuildChapterPrompt(ChapterRequest{ChapterTitle: "T", Text: "short"})
	if strings.Contains(short, "[content truncated]") {
		t.Error("expected short content to pass through untruncated")
	}
}

func TestBuildSynthesisPrompt(t *testing.T) {
	prompt := BuildSynthesisPrompt(BookRequest{
		Title:  "My Book",
		Author: "Jane Doe",
		Chapters: []ChapterSummary{
			{Title: "One", Summary: "First.", KeyConcepts: []string{"a", "b"}},
			{},
		},
	})

	for _, want := range []string{
		"<book_metadata>",
		"<chapter_summaries>",
		"Chapter 1: One",
		"Key concepts: a, b",
		"Chapter 2: Chapter 2",
		"Summary: No summary available",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestBuildMaterialPrompt(t *testing.T) {
	req := MaterialRequest{
		Interval:  IntervalDay7,
		BookTitle: "My Book",
		Concepts:  []string{"recall"},
	}
	prompt := BuildMaterialPrompt(req)
	if !strings.Contains(prompt, "day-7 application") {
		t.Errorf("expected day-7 instruction, got %q", prompt)
	}
	if !strings.Contains(prompt, "Key concepts: recall") {
		t.Errorf("expected concepts listed, got %q", prompt)
	}
}
