package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Book is one uploaded or manually added book.
type Book struct {
	ID             int64
	UserID         int64
	Title          string
	Author         string
	FilePath       string
	FileType       string
	Status         string
	TotalChapters  int
	WordCount      int
	ReadingMinutes int
	Complexity     float64
	HasFrontMatter bool
	ProcessingLog  string // JSON step log from the pipeline
	CreatedAt      time.Time
	ProcessedAt    *time.Time
}

// Chapter is one stored reading unit of a book.
type Chapter struct {
	ID             int64
	BookID         int64
	Number         int
	Title          string
	Content        string
	WordCount      int
	TokenCount     int
	ReadingMinutes int
	PositionPct    float64
	ChunkCount     int
}

const bookColumns = `id, user_id, title, author, file_path, file_type, status,
	total_chapters, word_count, reading_minutes, complexity, has_front_matter,
	processing_log, created_at, processed_at`

// CreateBook inserts a new book and fills in the assigned ID.
func (s *Store) CreateBook(ctx context.Context, b *Book) error {
	if b.Status == "" {
		b.Status = StatusPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	const q = `INSERT INTO books
		(user_id, title, author, file_path, file_type, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		b.UserID, b.Title, b.Author, b.FilePath, b.FileType, b.Status, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create book id: %w", err)
	}
	b.ID = id
	return nil
}

// Book returns a book by ID, or ErrNotFound.
func (s *Store) Book(ctx context.Context, id int64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	return s.scanBook(s.db.QueryRowContext(ctx, q, id))
}

// BookOwnedBy returns a book only when it belongs to userID, otherwise
// ErrNotFound.
func (s *Store) BookOwnedBy(ctx context.Context, id, userID int64) (*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE id = ? AND user_id = ?`
	return s.scanBook(s.db.QueryRowContext(ctx, q, id, userID))
}

// BooksByUser lists a user's books, oldest first.
func (s *Store) BooksByUser(ctx context.Context, userID int64) ([]*Book, error) {
	const q = `SELECT ` + bookColumns + ` FROM books WHERE user_id = ? ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var out []*Book
	for rows.Next() {
		b, err := s.scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter books: %w", err)
	}
	return out, nil
}

// SetBookStatus updates the processing status.
func (s *Store) SetBookStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE books SET status = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("set book status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set book status rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetBookFile records where the upload was saved on disk.
func (s *Store) SetBookFile(ctx context.Context, id int64, path string) error {
	const q = `UPDATE books SET file_path = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, path, id)
	if err != nil {
		return fmt.Errorf("set book file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set book file rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FailBook marks a book's processing as failed, keeping the step log
// accumulated so far.
func (s *Store) FailBook(ctx context.Context, id int64, processingLog string) error {
	const q = `UPDATE books SET status = ?, processing_log = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, StatusError, processingLog, id)
	if err != nil {
		return fmt.Errorf("fail book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("fail book rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FinishBook records the processing outcome on the book row: final status,
// whole-book metrics, the processing log, and the completion time.
func (s *Store) FinishBook(ctx context.Context, b *Book) error {
	now := time.Now().UTC()
	b.ProcessedAt = &now

	const q = `UPDATE books SET
		title = ?, author = ?, status = ?, total_chapters = ?, word_count = ?,
		reading_minutes = ?, complexity = ?, has_front_matter = ?,
		processing_log = ?, processed_at = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q,
		b.Title, b.Author, b.Status, b.TotalChapters, b.WordCount,
		b.ReadingMinutes, b.Complexity, b.HasFrontMatter,
		b.ProcessingLog, b.ProcessedAt, b.ID)
	if err != nil {
		return fmt.Errorf("finish book: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish book rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountBooksByStatus returns the user's book counts keyed by status.
func (s *Store) CountBooksByStatus(ctx context.Context, userID int64) (map[string]int, error) {
	const q = `SELECT status, COUNT(*) FROM books WHERE user_id = ? GROUP BY status`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan book count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter book counts: %w", err)
	}
	return counts, nil
}

// InsertChapters stores a book's chapters in one transaction and updates the
// chapter total on the book row.
func (s *Store) InsertChapters(ctx context.Context, bookID int64, chapters []*Chapter) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chapters tx: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO chapters
		(book_id, number, title, content, word_count, token_count, reading_minutes, position_pct, chunk_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, ch := range chapters {
		res, err := tx.ExecContext(ctx, q,
			bookID, ch.Number, ch.Title, ch.Content, ch.WordCount,
			ch.TokenCount, ch.ReadingMinutes, ch.PositionPct, ch.ChunkCount)
		if err != nil {
			return fmt.Errorf("insert chapter %d: %w", ch.Number, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert chapter id: %w", err)
		}
		ch.ID = id
		ch.BookID = bookID
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET total_chapters = ? WHERE id = ?`, len(chapters), bookID); err != nil {
		return fmt.Errorf("update chapter total: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chapters: %w", err)
	}
	return nil
}

const chapterColumns = `id, book_id, number, title, content, word_count,
	token_count, reading_minutes, position_pct, chunk_count`

// Chapters lists a book's chapters in reading order.
func (s *Store) Chapters(ctx context.Context, bookID int64) ([]*Chapter, error) {
	const q = `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = ? ORDER BY number`
	rows, err := s.db.QueryContext(ctx, q, bookID)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	defer rows.Close()

	var out []*Chapter
	for rows.Next() {
		ch, err := scanChapter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iter chapters: %w", err)
	}
	return out, nil
}

// ChapterByNumber returns one chapter of a book, or ErrNotFound.
func (s *Store) ChapterByNumber(ctx context.Context, bookID int64, number int) (*Chapter, error) {
	const q = `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = ? AND number = ?`
	return scanChapter(s.db.QueryRowContext(ctx, q, bookID, number))
}

// ChapterCount returns how many chapters a book has.
func (s *Store) ChapterCount(ctx context.Context, bookID int64) (int, error) {
	const q = `SELECT COUNT(*) FROM chapters WHERE book_id = ?`
	var n int
	if err := s.db.QueryRowContext(ctx, q, bookID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count chapters: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanBook(row rowScanner) (*Book, error) {
	var b Book
	var processedAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.FilePath, &b.FileType, &b.Status,
		&b.TotalChapters, &b.WordCount, &b.ReadingMinutes, &b.Complexity, &b.HasFrontMatter,
		&b.ProcessingLog, &b.CreatedAt, &processedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	if processedAt.Valid {
		b.ProcessedAt = &processedAt.Time
	}
	return &b, nil
}

func scanChapter(row rowScanner) (*Chapter, error) {
	var ch Chapter
	err := row.Scan(
		&ch.ID, &ch.BookID, &ch.Number, &ch.Title, &ch.Content, &ch.WordCount,
		&ch.TokenCount, &ch.ReadingMinutes, &ch.PositionPct, &ch.ChunkCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan chapter: %w", err)
	}
	return &ch, nil
}
