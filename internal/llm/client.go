// Package llm provides the model client used for chapter analysis, book
// synthesis, and spaced-repetition material, plus model selection and call
// statistics. Inference is canned: prompts are built and responses decoded
// the way a live client would, but no network calls are made.
package llm

import (
	"context"
	"errors"
)

// Spaced-repetition intervals, in review order.
const (
	IntervalDay1  = "day1"
	IntervalDay3  = "day3"
	IntervalDay7  = "day7"
	IntervalDay30 = "day30"
)

// ErrBadInterval indicates an interval outside the day1/day3/day7/day30 set.
var ErrBadInterval = errors.New("unknown learning interval")

// Intervals returns the spaced-repetition intervals in review order.
func Intervals() []string {
	return []string{IntervalDay1, IntervalDay3, IntervalDay7, IntervalDay30}
}

// ValidInterval reports whether s names a known interval.
func ValidInterval(s string) bool {
	switch s {
	case IntervalDay1, IntervalDay3, IntervalDay7, IntervalDay30:
		return true
	}
	return false
}

// ChapterRequest asks for analysis of one chapter.
type ChapterRequest struct {
	BookTitle    string
	BookAuthor   string
	ChapterTitle string
	Text         string
}

// ChapterAnalysis is the decoded model output for a chapter.
type ChapterAnalysis struct {
	Summary     string   `json:"summary"`
	KeyConcepts []string `json:"key_concepts"`
	Characters  []string `json:"characters"`
	Themes      []string `json:"themes"`
	Quotes      []string `json:"important_quotes"`
	Difficulty  string   `json:"difficulty"`
	Model       string   `json:"analysis_model"`
}

// ChapterSummary is one chapter's contribution to a book-level request.
type ChapterSummary struct {
	Title       string
	Summary     string
	KeyConcepts []string
}

// BookRequest asks for a whole-book synthesis from per-chapter summaries.
type BookRequest struct {
	Title    string
	Author   string
	Chapters []ChapterSummary
}

// BookSynthesis is the decoded model output for a whole book.
type BookSynthesis struct {
	Summary        string   `json:"summary"`
	KeyThemes      []string `json:"key_themes"`
	MainCharacters []string `json:"main_characters"`
	PlotArc        string   `json:"plot_arc"`
	Model          string   `json:"analysis_model"`
}

// MaterialRequest asks for spaced-repetition content for one interval.
type MaterialRequest struct {
	Interval  string
	BookTitle string
	Concepts  []string
}

// Client is the inference surface the pipeline and bot depend on.
type Client interface {
	AnalyzeChapter(ctx context.Context, req ChapterRequest) (ChapterAnalysis, error)
	SynthesizeBook(ctx context.Context, req BookRequest) (BookSynthesis, error)
	LearningMaterial(ctx context.Context, req MaterialRequest) (string, error)
}
