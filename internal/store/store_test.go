package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestUser(t *testing.T, s *Store, telegramID string) *User {
	t.Helper()
	u := &User{TelegramID: telegramID, Username: "reader", FirstName: "Test"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	newTestUser(t, s, "101")
	s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	u, err := s.UserByTelegramID(ctx, "101")
	if err != nil {
		t.Fatalf("expected user to survive reopen: %v", err)
	}
	if u.Username != "reader" {
		t.Errorf("expected username 'reader', got %q", u.Username)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, s, "42")
	if u.ID == 0 {
		t.Fatal("expected assigned user ID")
	}
	if u.Timezone != "UTC" || u.ReadingTime != "09:00" || u.DailyMessageLimit != 3 {
		t.Errorf("expected defaults filled, got tz=%q time=%q limit=%d",
			u.Timezone, u.ReadingTime, u.DailyMessageLimit)
	}

	if _, err := s.UserByTelegramID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}

	if err := s.UpdateTimezone(ctx, "42", "Europe/Warsaw"); err != nil {
		t.Fatalf("update timezone: %v", err)
	}
	if err := s.UpdatePreferences(ctx, "42", "07:30", 5); err != nil {
		t.Fatalf("update preferences: %v", err)
	}

	before := u.LastActive
	time.Sleep(10 * time.Millisecond)
	if err := s.TouchActivity(ctx, "42"); err != nil {
		t.Fatalf("touch activity: %v", err)
	}

	got, err := s.UserByTelegramID(ctx, "42")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Timezone != "Europe/Warsaw" {
		t.Errorf("expected timezone Europe/Warsaw, got %q", got.Timezone)
	}
	if got.ReadingTime != "07:30" || got.DailyMessageLimit != 5 {
		t.Errorf("expected updated preferences, got time=%q limit=%d", got.ReadingTime, got.DailyMessageLimit)
	}
	if !got.LastActive.After(before) {
		t.Errorf("expected last_active to advance past %v, got %v", before, got.LastActive)
	}

	if err := s.UpdateTimezone(ctx, "nope", "UTC"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound updating unknown user, got %v", err)
	}
}

func TestBookAndChapters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "42")

	b := &Book{UserID: u.ID, Title: "My Book", Author: "Jane Doe", FileType: ".txt"}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("expected assigned book ID")
	}
	if b.Status != StatusPending {
		t.Errorf("expected default status pending, got %q", b.Status)
	}

	chapters := []*Chapter{
		{Number: 1, Title: "One", Content: "First chapter text.", WordCount: 3},
		{Number: 2, Title: "Two", Content: "Second chapter text.", WordCount: 3},
		{Number: 3, Title: "Three", Content: "Third chapter text.", WordCount: 3},
	}
	if err := s.InsertChapters(ctx, b.ID, chapters); err != nil {
		t.Fatalf("insert chapters: %v", err)
	}
	for i, ch := range chapters {
		if ch.ID == 0 {
			t.Errorf("chapter %d: expected assigned ID", i+1)
		}
	}

	got, err := s.Chapters(ctx, b.ID)
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(got))
	}
	for i, ch := range got {
		if ch.Number != i+1 {
			t.Errorf("expected chapter number %d in order, got %d", i+1, ch.Number)
		}
	}

	ch2, err := s.ChapterByNumber(ctx, b.ID, 2)
	if err != nil {
		t.Fatalf("chapter by number: %v", err)
	}
	if ch2.Title != "Two" {
		t.Errorf("expected chapter 'Two', got %q", ch2.Title)
	}
	if _, err := s.ChapterByNumber(ctx, b.ID, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing chapter, got %v", err)
	}

	n, err := s.ChapterCount(ctx, b.ID)
	if err != nil || n != 3 {
		t.Errorf("expected chapter count 3, got %d (err %v)", n, err)
	}

	stored, err := s.Book(ctx, b.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if stored.TotalChapters != 3 {
		t.Errorf("expected total_chapters updated to 3, got %d", stored.TotalChapters)
	}

	if _, err := s.BookOwnedBy(ctx, b.ID, u.ID); err != nil {
		t.Errorf("expected owner lookup to succeed, got %v", err)
	}
	if _, err := s.BookOwnedBy(ctx, b.ID, u.ID+1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong owner, got %v", err)
	}

	b.Status = StatusCompleted
	b.WordCount = 9
	b.ReadingMinutes = 1
	b.Complexity = 0.1
	b.HasFrontMatter = true
	b.ProcessingLog = `[{"step":"extract_text","status":"completed"}]`
	if err := s.FinishBook(ctx, b); err != nil {
		t.Fatalf("finish book: %v", err)
	}

	finished, err := s.Book(ctx, b.ID)
	if err != nil {
		t.Fatalf("get finished book: %v", err)
	}
	if finished.Status != StatusCompleted {
		t.Errorf("expected status completed, got %q", finished.Status)
	}
	if finished.ProcessedAt == nil {
		t.Error("expected processed_at to be set")
	}
	if !finished.HasFrontMatter {
		t.Error("expected has_front_matter to round-trip")
	}
	if finished.ProcessingLog == "" {
		t.Error("expected processing log to round-trip")
	}

	counts, err := s.CountBooksByStatus(ctx, u.ID)
	if err != nil {
		t.Fatalf("count books: %v", err)
	}
	if counts[StatusCompleted] != 1 {
		t.Errorf("expected 1 completed book, got %v", counts)
	}

	if _, err := s.Book(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing book, got %v", err)
	}
	if err := s.SetBookStatus(ctx, 9999, StatusError); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound setting status on missing book, got %v", err)
	}
}

func TestChapterAnalysisUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "42")

	b := &Book{UserID: u.ID, Title: "B"}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}
	chapters := []*Chapter{
		{Number: 1, Title: "One", Content: "text"},
		{Number: 2, Title: "Two", Content: "text"},
	}
	if err := s.InsertChapters(ctx, b.ID, chapters); err != nil {
		t.Fatalf("insert chapters: %v", err)
	}

	a := &ChapterAnalysis{
		ChapterID:   chapters[0].ID,
		Summary:     "First pass.",
		KeyConcepts: []string{"alpha", "beta"},
		Themes:      []string{"growth"},
		Difficulty:  "medium",
		Model:       "claude-3-5-sonnet",
	}
	if err := s.SaveChapterAnalysis(ctx, a); err != nil {
		t.Fatalf("save analysis: %v", err)
	}

	a.Summary = "Second pass."
	a.KeyConcepts = []string{"gamma"}
	if err := s.SaveChapterAnalysis(ctx, a); err != nil {
		t.Fatalf("save analysis again: %v", err)
	}

	got, err := s.ChapterAnalysisFor(ctx, chapters[0].ID)
	if err != nil {
		t.Fatalf("get analysis: %v", err)
	}
	if got.Summary != "Second pass." {
		t.Errorf("expected upsert to replace summary, got %q", got.Summary)
	}
	if len(got.KeyConcepts) != 1 || got.KeyConcepts[0] != "gamma" {
		t.Errorf("expected concepts replaced, got %v", got.KeyConcepts)
	}

	if _, err := s.ChapterAnalysisFor(ctx, chapters[1].ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unanalyzed chapter, got %v", err)
	}

	second := &ChapterAnalysis{ChapterID: chapters[1].ID, Summary: "Ch2.", Model: "m"}
	if err := s.SaveChapterAnalysis(ctx, second); err != nil {
		t.Fatalf("save second analysis: %v", err)
	}
	all, err := s.AnalysesForBook(ctx, b.ID)
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 analyses, got %d", len(all))
	}
	if all[0].ChapterID != chapters[0].ID || all[1].ChapterID != chapters[1].ID {
		t.Error("expected analyses in chapter order")
	}
}

func TestSynthesisAndMaterials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "42")

	b := &Book{UserID: u.ID, Title: "B"}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	if _, err := s.BookSynthesisFor(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before synthesis saved, got %v", err)
	}

	syn := &BookSynthesis{
		BookID:    b.ID,
		Summary:   "A book.",
		KeyThemes: []string{"one", "two"},
		PlotArc:   "rises",
		Model:     "claude-3-5-sonnet",
	}
	if err := s.SaveBookSynthesis(ctx, syn); err != nil {
		t.Fatalf("save synthesis: %v", err)
	}
	syn.Summary = "A better take."
	if err := s.SaveBookSynthesis(ctx, syn); err != nil {
		t.Fatalf("save synthesis again: %v", err)
	}

	got, err := s.BookSynthesisFor(ctx, b.ID)
	if err != nil {
		t.Fatalf("get synthesis: %v", err)
	}
	if got.Summary != "A better take." {
		t.Errorf("expected upsert to replace summary, got %q", got.Summary)
	}
	if len(got.KeyThemes) != 2 {
		t.Errorf("expected themes to round-trip, got %v", got.KeyThemes)
	}

	if _, err := s.LearningMaterialFor(ctx, b.ID, "day1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before material saved, got %v", err)
	}

	m := &LearningMaterial{BookID: b.ID, Interval: "day1", Content: "Recap."}
	if err := s.SaveLearningMaterial(ctx, m); err != nil {
		t.Fatalf("save material: %v", err)
	}
	m.Content = "Fresh recap."
	if err := s.SaveLearningMaterial(ctx, m); err != nil {
		t.Fatalf("save material again: %v", err)
	}

	stored, err := s.LearningMaterialFor(ctx, b.ID, "day1")
	if err != nil {
		t.Fatalf("get material: %v", err)
	}
	if stored.Content != "Fresh recap." {
		t.Errorf("expected upsert to replace content, got %q", stored.Content)
	}

	if _, err := s.LearningMaterialFor(ctx, b.ID, "day3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other interval, got %v", err)
	}
}

func TestBookFileAndFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := newTestUser(t, s, "55")

	b := &Book{UserID: u.ID, Title: "draft", FileType: ".txt"}
	if err := s.CreateBook(ctx, b); err != nil {
		t.Fatalf("create book: %v", err)
	}

	if err := s.SetBookFile(ctx, b.ID, "/data/55/draft.txt"); err != nil {
		t.Fatalf("set book file: %v", err)
	}
	if err := s.FailBook(ctx, b.ID, `[{"step":"extract_text","status":"failed"}]`); err != nil {
		t.Fatalf("fail book: %v", err)
	}

	got, err := s.Book(ctx, b.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if got.FilePath != "/data/55/draft.txt" {
		t.Errorf("expected file path persisted, got %q", got.FilePath)
	}
	if got.Status != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, got.Status)
	}
	if got.ProcessingLog == "" {
		t.Error("expected failure to keep the processing log")
	}
	if got.ProcessedAt != nil {
		t.Error("expected no processed_at on a failed book")
	}

	if err := s.SetBookFile(ctx, 9999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing book, got %v", err)
	}
	if err := s.FailBook(ctx, 9999, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing book, got %v", err)
	}
}
