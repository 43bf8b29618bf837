package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestCleanAnalysis_TrimsAndDedupes(t *testing.T) {
	a := ChapterAnalysis{
		Summary:     "  A summary.  ",
		KeyConcepts: []string{"Go", " go ", "GO!", "", "channels"},
		Themes:      []string{"growth", "growth"},
		Difficulty:  "Hard",
	}
	if err := CleanAnalysis(&a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Summary != "A summary." {
		t.Errorf("expected trimmed summary, got %q", a.Summary)
	}
	want := []string{"Go", "channels"}
	if len(a.KeyConcepts) != len(want) {
		t.Fatalf("expected concepts %v, got %v", want, a.KeyConcepts)
	}
	for i := range want {
		if a.KeyConcepts[i] != want[i] {
			t.Errorf("concept[%d]: expected %q, got %q", i, want[i], a.KeyConcepts[i])
		}
	}
	if len(a.Themes) != 1 {
		t.Errorf("expected duplicate theme dropped, got %v", a.Themes)
	}
	if a.Difficulty != "hard" {
		t.Errorf("expected difficulty hard, got %q", a.Difficulty)
	}
}

func TestCleanAnalysis_EmptySummary(t *testing.T) {
	a := ChapterAnalysis{Summary: "   "}
	if err := CleanAnalysis(&a); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("expected ErrEmptySummary, got %v", err)
	}
}

func TestCleanAnalysis_CapsListsAndSummary(t *testing.T) {
	concepts := make([]string, 15)
	for i := range concepts {
		concepts[i] = strings.Repeat("c", i+1)
	}
	a := ChapterAnalysis{
		Summary:     strings.Repeat("s", maxSummaryLen+500),
		KeyConcepts: concepts,
	}
	if err := CleanAnalysis(&a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.Summary) != maxSummaryLen {
		t.Errorf("expected summary capped at %d, got %d", maxSummaryLen, len(a.Summary))
	}
	if len(a.KeyConcepts) != maxListItems {
		t.Errorf("expected concepts capped at %d, got %d", maxListItems, len(a.KeyConcepts))
	}
}

func TestCleanAnalysis_DifficultyNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"easy", "easy"},
		{" EASY ", "easy"},
		{"Hard", "hard"},
		{"medium", "medium"},
		{"tricky", "medium"},
		{"", "medium"},
	}
	for _, tc := range tests {
		a := ChapterAnalysis{Summary: "s", Difficulty: tc.in}
		if err := CleanAnalysis(&a); err != nil {
			t.Fatalf("unexpected error for %q: %v", tc.in, err)
		}
		if a.Difficulty != tc.want {
			t.Errorf("difficulty %q: expected %q, got %q", tc.in, tc.want, a.Difficulty)
		}
	}
}

func TestCleanSynthesis(t *testing.T) {
	s := BookSynthesis{
		Summary:   " The book. ",
		KeyThemes: []string{" one ", "one", "two"},
		PlotArc:   "  rises then falls  ",
	}
	if err := CleanSynthesis(&s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Summary != "The book." {
		t.Errorf("expected trimmed summary, got %q", s.Summary)
	}
	if len(s.KeyThemes) != 2 {
		t.Errorf("expected themes deduplicated to 2, got %v", s.KeyThemes)
	}
	if s.PlotArc != "rises then falls" {
		t.Errorf("expected trimmed plot arc, got %q", s.PlotArc)
	}

	empty := BookSynthesis{}
	if err := CleanSynthesis(&empty); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("expected ErrEmptySummary, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello World!", "hello-world"},
		{"  --Already-Slugged--  ", "already-slugged"},
		{"Spaced   Repetition", "spaced-repetition"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range tests {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}

	long := Slugify(strings.Repeat("a", 80))
	if len(long) != 50 {
		t.Errorf("expected slug capped at 50 chars, got %d", len(long))
	}
}
