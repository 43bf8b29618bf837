package llm

import (
	"fmt"
	"strings"
)

// Content caps keep prompts inside even the smallest context windows.
const (
	promptContentCap = 4000
	promptSummaryCap = 500
)

const chapterInstructions = `Analyze this chapter and provide:
1. A concise summary (3-5 sentences)
2. Key concepts and ideas presented
3. Important characters mentioned
4. Main themes explored
5. Notable quotes or passages
6. A difficulty rating: easy, medium, or hard

Focus on the most important elements that a reader should remember.
Respond with ONLY a JSON object, no other text.`

const synthesisInstructions = `Based on the chapter summaries above, please generate:
1. A comprehensive book summary (1-2 paragraphs)
2. The key themes explored throughout the book
3. Main characters and their significance
4. The overall plot arc and structure

Focus on creating a cohesive overview that captures the essence of the entire book.
Respond with ONLY a JSON object, no other text.`

// BuildChapterPrompt creates the full prompt for analyzing one chapter,
// including book context.
func BuildChapterPrompt(req ChapterRequest) string {
	var sb strings.Builder
	sb.WriteString("<book_context>\n")
	fmt.Fprintf(&sb, "Title: %s\n", orUnknown(req.BookTitle))
	fmt.Fprintf(&sb, "Author: %s\n", orUnknown(req.BookAuthor))
	sb.WriteString("</book_context>\n\n")

	sb.WriteString("<chapter>\n")
	fmt.Fprintf(&sb, "Title: %s\n\n", orUnknown(req.ChapterTitle))
	sb.WriteString("Content:\n")
	sb.WriteString(capContent(req.Text, promptContentCap))
	sb.WriteString("\n</chapter>\n\n")

	sb.WriteString(chapterInstructions)
	return sb.String()
}

// BuildSynthesisPrompt creates the full prompt for a whole-book synthesis
// from per-chapter summaries.
func BuildSynthesisPrompt(req BookRequest) string {
	var sb strings.Builder
	sb.WriteString("<book_metadata>\n")
	fmt.Fprintf(&sb, "Title: %s\n", orUnknown(req.Title))
	fmt.Fprintf(&sb, "Author: %s\n", orUnknown(req.Author))
	sb.WriteString("</book_metadata>\n\n")

	sb.WriteString("<chapter_summaries>\n")
	for i, ch := range req.Chapters {
		title := ch.Title
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		fmt.Fprintf(&sb, "Chapter %d: %s\n", i+1, title)
		summary := ch.Summary
		if summary == "" {
			summary = "No summary available"
		}
		fmt.Fprintf(&sb, "Summary: %s\n", capContent(summary, promptSummaryCap))
		fmt.Fprintf(&sb, "Key concepts: %s\n\n", strings.Join(ch.KeyConcepts, ", "))
	}
	sb.WriteString("</chapter_summaries>\n\n")

	sb.WriteString(synthesisInstructions)
	return sb.String()
}

// BuildMaterialPrompt creates the prompt for interval-specific
// spaced-repetition content.
func BuildMaterialPrompt(req MaterialRequest) string {
	var sb strings.Builder
	sb.WriteString("<book>\n")
	fmt.Fprintf(&sb, "Title: %s\n", orUnknown(req.BookTitle))
	fmt.Fprintf(&sb, "Key concepts: %s\n", strings.Join(req.Concepts, ", "))
	sb.WriteString("</book>\n\n")

	switch req.Interval {
	case IntervalDay1:
		sb.WriteString("Write a day-1 recap: remind the reader of each core concept in one short line.")
	case IntervalDay3:
		sb.WriteString("Write day-3 connection questions: relate the concepts to each other.")
	case IntervalDay7:
		sb.WriteString("Write day-7 application prompts: ask how each concept applies to the reader's own work.")
	case IntervalDay30:
		sb.WriteString("Write a day-30 comprehensive review covering every concept from memory.")
	default:
		fmt.Fprintf(&sb, "Write review material for interval %q.", req.Interval)
	}
	return sb.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func capContent(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [content truncated]"
}
