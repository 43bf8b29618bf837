package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ChapterAnalysis is the stored model output for one chapter.
type ChapterAnalysis struct {
	ID          int64
	ChapterID   int64
	Summary     string
	KeyConcepts []string
	Characters  []string
	Themes      []string
	Quotes      []string
	Difficulty  string
	Model       string
	CreatedAt   time.Time
}

// BookSynthesis is the stored whole-book model output.
type BookSynthesis struct {
	ID             int64
	BookID         int64
	Summary        string
	KeyThemes      []string
	MainCharacters []string
	PlotArc        string
	Model          string
	CreatedAt      time.Time
}

// LearningMaterial is stored spaced-repetition content for one interval.
type LearningMaterial struct {
	ID        int64
	BookID    int64
	Interval  string
	Content   string
	CreatedAt time.Time
}

// SaveChapterAnalysis stores an analysis, replacing any previous one for the
// chapter.
func (s *Store) SaveChapterAnalysis(ctx context.Context, a *ChapterAnalysis) error {
	concepts, err := encodeList(a.KeyConcepts)
	if err != nil {
		return err
	}
	characters, err := encodeList(a.Characters)
	if err != nil {
		return err
	}
	themes, err := encodeList(a.Themes)
	if err != nil {
		return err
	}
	quotes, err := encodeList(a.Quotes)
	if err != nil {
		return err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO chapter_analyses
		(chapter_id, summary, key_concepts, characters, themes, quotes, difficulty, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chapter_id) DO UPDATE SET
			summary = excluded.summary,
			key_concepts = excluded.key_concepts,
			characters = excluded.characters,
			themes = excluded.themes,
			quotes = excluded.quotes,
			difficulty = excluded.difficulty,
			model = excluded.model,
			created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, q,
		a.ChapterID, a.Summary, concepts, characters, themes, quotes,
		a.Difficulty, a.Model, a.CreatedAt); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// ChapterAnalysisFor returns the stored analysis for a chapter, or ErrNotFound.
func (s *Store) ChapterAnalysisFor(ctx context.Context, chapterID int64) (*ChapterAnalysis, error) {
	const q = `SELECT id, chapter_id, summary, key_concepts, characters, themes,
		quotes, difficulty, model, created_at
		FROM chapter_analyses WHERE chapter_id = ?`
	return scanAnalysis(s.db.QueryRowContext(ctx, q, chapterID))
}

// AnalysesForBook lists stored analyses for a book's chapters in reading
// order.
func (s *Store) AnalysesForBook(ctx context.Context, bookID int64) ([]*ChapterAnalysis, error) {
	const q = `SELECT a.id, a.chapter_id, a.summary, a.key_concepts, a.characters,
		a.themes, a.quotes, a.difficulty, a.model, a.created_at
		FROM chapter_analyses a
		JOIN chapters c ON c.id = a.chapter_id
		WHERE c.book_id = ?
		ORDER BY c.number`
	rows, err := s.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var out []*ChapterAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter analyses: %w", err)
	}
	return out, nil
}

// SaveBookSynthesis stores a synthesis, replacing any previous one for the
// book.
func (s *Store) SaveBookSynthesis(ctx context.Context, syn *BookSynthesis) error {
	themes, err := encodeList(syn.KeyThemes)
	if err != nil {
		return err
	}
	characters, err := encodeList(syn.MainCharacters)
	if err != nil {
		return err
	}
	if syn.CreatedAt.IsZero() {
		syn.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO book_syntheses
		(book_id, summary, key_themes, main_characters, plot_arc, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_id) DO UPDATE SET
			summary = excluded.summary,
			key_themes = excluded.key_themes,
			main_characters = excluded.main_characters,
			plot_arc = excluded.plot_arc,
			model = excluded.model,
			created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, q,
		syn.BookID, syn.Summary, themes, characters, syn.PlotArc,
		syn.Model, syn.CreatedAt); err != nil {
		return fmt.Errorf("save synthesis: %w", err)
	}
	return nil
}

// BookSynthesisFor returns the stored synthesis for a book, or ErrNotFound.
func (s *Store) BookSynthesisFor(ctx context.Context, bookID int64) (*BookSynthesis, error) {
	const q = `SELECT id, book_id, summary, key_themes, main_characters, plot_arc,
		model, created_at
		FROM book_syntheses WHERE book_id = ?`
	var syn BookSynthesis
	var themes, characters string
	err := s.db.QueryRowContext(ctx, q, bookID).Scan(
		&syn.ID, &syn.BookID, &syn.Summary, &themes, &characters,
		&syn.PlotArc, &syn.Model, &syn.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get synthesis: %w", err)
	}
	if syn.KeyThemes, err = decodeList(themes); err != nil {
		return nil, err
	}
	if syn.MainCharacters, err = decodeList(characters); err != nil {
		return nil, err
	}
	return &syn, nil
}

// SaveLearningMaterial stores interval content, replacing any previous
// content for the same book and interval.
func (s *Store) SaveLearningMaterial(ctx context.Context, m *LearningMaterial) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO learning_materials (book_id, interval_type, content, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(book_id, interval_type) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at`
	if _, err := s.db.ExecContext(ctx, q,
		m.BookID, m.Interval, m.Content, m.CreatedAt); err != nil {
		return fmt.Errorf("save material: %w", err)
	}
	return nil
}

// LearningMaterialFor returns stored interval content, or ErrNotFound.
func (s *Store) LearningMaterialFor(ctx context.Context, bookID int64, interval string) (*LearningMaterial, error) {
	const q = `SELECT id, book_id, interval_type, content, created_at
		FROM learning_materials WHERE book_id = ? AND interval_type = ?`
	var m LearningMaterial
	err := s.db.QueryRowContext(ctx, q, bookID, interval).Scan(
		&m.ID, &m.BookID, &m.Interval, &m.Content, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

func scanAnalysis(row rowScanner) (*ChapterAnalysis, error) {
	var a ChapterAnalysis
	var concepts, characters, themes, quotes string
	err := row.Scan(
		&a.ID, &a.ChapterID, &a.Summary, &concepts, &characters,
		&themes, &quotes, &a.Difficulty, &a.Model, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	if a.KeyConcepts, err = decodeList(concepts); err != nil {
		return nil, err
	}
	if a.Characters, err = decodeList(characters); err != nil {
		return nil, err
	}
	if a.Themes, err = decodeList(themes); err != nil {
		return nil, err
	}
	if a.Quotes, err = decodeList(quotes); err != nil {
		return nil, err
	}
	return &a, nil
}
