package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Anthropic stands in for the Anthropic Messages API. The prompt/response
// plumbing matches a live client; the model text itself comes from fixed
// templates so processing stays deterministic and offline.
type Anthropic struct {
	apiKey string
	model  string
	stats  *Stats
}

// NewAnthropic builds a client for the given model name. The API key may be
// empty; no requests are sent.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = "claude-3-5-sonnet"
	}
	return &Anthropic{
		apiKey: apiKey,
		model:  model,
		stats:  NewStats(time.Hour),
	}
}

// Stats exposes call counters and latency aggregates for the admin API.
func (c *Anthropic) Stats() *Stats {
	return c.stats
}

// Model returns the configured model name.
func (c *Anthropic) Model() string {
	return c.model
}

// AnalyzeChapter produces a summary, concepts, themes, and a difficulty
// rating for one chapter.
func (c *Anthropic) AnalyzeChapter(ctx context.Context, req ChapterRequest) (ChapterAnalysis, error) {
	start := time.Now()
	analysis, err := c.analyzeChapter(ctx, req)
	c.stats.Record("analyze_chapter", time.Since(start).Milliseconds(), err)
	return analysis, err
}

func (c *Anthropic) analyzeChapter(ctx context.Context, req ChapterRequest) (ChapterAnalysis, error) {
	prompt := BuildChapterPrompt(req)

	raw, err := c.complete(ctx, prompt, chapterPayload(req.ChapterTitle))
	if err != nil {
		return ChapterAnalysis{}, err
	}

	text := stripCodeBlock(raw)
	var analysis ChapterAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return ChapterAnalysis{}, fmt.Errorf("parse analysis json: %w (raw: %s)", err, truncate(text, 200))
	}
	analysis.Model = c.model
	if err := CleanAnalysis(&analysis); err != nil {
		return ChapterAnalysis{}, err
	}
	return analysis, nil
}

// SynthesizeBook produces a whole-book summary from per-chapter summaries.
func (c *Anthropic) SynthesizeBook(ctx context.Context, req BookRequest) (BookSynthesis, error) {
	start := time.Now()
	synthesis, err := c.synthesizeBook(ctx, req)
	c.stats.Record("synthesize_book", time.Since(start).Milliseconds(), err)
	return synthesis, err
}

func (c *Anthropic) synthesizeBook(ctx context.Context, req BookRequest) (BookSynthesis, error) {
	prompt := BuildSynthesisPrompt(req)

	raw, err := c.complete(ctx, prompt, synthesisPayload)
	if err != nil {
		return BookSynthesis{}, err
	}

	text := stripCodeBlock(raw)
	var synthesis BookSynthesis
	if err := json.Unmarshal([]byte(text), &synthesis); err != nil {
		return BookSynthesis{}, fmt.Errorf("parse synthesis json: %w (raw: %s)", err, truncate(text, 200))
	}
	synthesis.Model = c.model
	if err := CleanSynthesis(&synthesis); err != nil {
		return BookSynthesis{}, err
	}
	return synthesis, nil
}

// LearningMaterial produces spaced-repetition content for one interval.
func (c *Anthropic) LearningMaterial(ctx context.Context, req MaterialRequest) (string, error) {
	start := time.Now()
	content, err := c.learningMaterial(ctx, req)
	c.stats.Record("learning_material", time.Since(start).Milliseconds(), err)
	return content, err
}

func (c *Anthropic) learningMaterial(ctx context.Context, req MaterialRequest) (string, error) {
	if !ValidInterval(req.Interval) {
		return "", fmt.Errorf("%w: %q", ErrBadInterval, req.Interval)
	}
	prompt := BuildMaterialPrompt(req)

	raw, err := c.complete(ctx, prompt, materialPayload(req))
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", fmt.Errorf("empty material for interval %s", req.Interval)
	}
	return content, nil
}

// complete stands in for the Messages API round trip and returns the model
// text for the request.
func (c *Anthropic) complete(ctx context.Context, prompt, modelText string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("empty prompt")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	return modelText, nil
}

const chapterPayloadTemplate = `{
  "summary": "This is a mock summary of chapter '%s'.",
  "key_concepts": ["concept1", "concept2", "concept3"],
  "characters": ["character1", "character2"],
  "themes": ["theme1", "theme2"],
  "important_quotes": ["quote1", "quote2"],
  "difficulty": "medium"
}`

const synthesisPayload = `{
  "summary": "This is a mock book summary.",
  "key_themes": ["theme1", "theme2", "theme3"],
  "main_characters": ["character1", "character2"],
  "plot_arc": "This is a description of the plot arc."
}`

func chapterPayload(chapterTitle string) string {
	return fmt.Sprintf(chapterPayloadTemplate, jsonEscape(chapterTitle))
}

func materialPayload(req MaterialRequest) string {
	title := req.BookTitle
	if title == "" {
		title = "your book"
	}
	concepts := req.Concepts
	if len(concepts) == 0 {
		concepts = []string{"the book's central idea"}
	}

	var sb strings.Builder
	switch req.Interval {
	case IntervalDay1:
		fmt.Fprintf(&sb, "Day 1 recap for %q.\n\nCore concepts to revisit:\n", title)
		for _, concept := range concepts {
			fmt.Fprintf(&sb, "- %s\n", concept)
		}
		sb.WriteString("\nRe-read any concept you cannot explain in one sentence.")
	case IntervalDay3:
		fmt.Fprintf(&sb, "Day 3 connections for %q.\n\n", title)
		if len(concepts) < 2 {
			fmt.Fprintf(&sb, "How does %q relate to the rest of the book?\n", concepts[0])
		} else {
			for i := 0; i+1 < len(concepts); i += 2 {
				fmt.Fprintf(&sb, "How does %q relate to %q?\n", concepts[i], concepts[i+1])
			}
		}
		sb.WriteString("\nWrite one sentence for each connection.")
	case IntervalDay7:
		fmt.Fprintf(&sb, "Day 7 application for %q.\n\n", title)
		for _, concept := range concepts {
			fmt.Fprintf(&sb, "Where could you apply %q this week?\n", concept)
		}
		sb.WriteString("\nPick one and actually do it.")
	case IntervalDay30:
		fmt.Fprintf(&sb, "Day 30 mastery review for %q.\n\n", title)
		sb.WriteString("Without looking at your notes, explain each of these:\n")
		for _, concept := range concepts {
			fmt.Fprintf(&sb, "- %s\n", concept)
		}
		sb.WriteString("\nThen check the book summary and fill any gaps.")
	}
	return sb.String()
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// jsonEscape escapes s for interpolation inside a JSON string literal.
func jsonEscape(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(b[1 : len(b)-1])
}
