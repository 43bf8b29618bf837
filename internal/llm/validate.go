package llm

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptySummary indicates a model response with no usable summary text.
var ErrEmptySummary = errors.New("empty summary in model response")

const (
	maxSummaryLen = 2000
	maxListItems  = 10
)

// CleanAnalysis normalizes a chapter analysis in place: trims text, drops
// empty and duplicate list entries, caps list lengths, and settles the
// difficulty rating. An empty summary fails.
func CleanAnalysis(a *ChapterAnalysis) error {
	a.Summary = strings.TrimSpace(a.Summary)
	if a.Summary == "" {
		return ErrEmptySummary
	}
	if len(a.Summary) > maxSummaryLen {
		a.Summary = a.Summary[:maxSummaryLen]
	}
	a.KeyConcepts = cleanList(a.KeyConcepts, maxListItems)
	a.Characters = cleanList(a.Characters, maxListItems)
	a.Themes = cleanList(a.Themes, maxListItems)
	a.Quotes = cleanList(a.Quotes, maxListItems)
	a.Difficulty = normalizeDifficulty(a.Difficulty)
	return nil
}

// CleanSynthesis normalizes a book synthesis in place. An empty summary fails.
func CleanSynthesis(s *BookSynthesis) error {
	s.Summary = strings.TrimSpace(s.Summary)
	if s.Summary == "" {
		return ErrEmptySummary
	}
	if len(s.Summary) > maxSummaryLen {
		s.Summary = s.Summary[:maxSummaryLen]
	}
	s.KeyThemes = cleanList(s.KeyThemes, maxListItems)
	s.MainCharacters = cleanList(s.MainCharacters, maxListItems)
	s.PlotArc = strings.TrimSpace(s.PlotArc)
	return nil
}

// cleanList trims entries, drops empties, de-duplicates on the slug form,
// and caps the result at max entries.
func cleanList(items []string, max int) []string {
	var out []string
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := Slugify(item)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if len(out) == max {
			break
		}
	}
	return out
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return "easy"
	case "hard":
		return "hard"
	default:
		return "medium"
	}
}

var (
	slugInvalidRe = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashRe    = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a lowercase hyphenated key, used to match
// and de-duplicate concept names.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalidRe.ReplaceAllString(s, "-")
	s = slugDashRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
