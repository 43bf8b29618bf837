package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mkotula/retain/internal/chapter"
	"github.com/mkotula/retain/internal/chunk"
	"github.com/mkotula/retain/internal/extract"
	"github.com/mkotula/retain/internal/files"
	"github.com/mkotula/retain/internal/store"
	"github.com/mkotula/retain/internal/structure"
)

// Step names as they appear in job snapshots and the persisted step log.
const (
	stepSaveFile         = "save_file"
	stepExtractText      = "extract_text"
	stepAnalyzeStructure = "analyze_structure"
	stepDetectChapters   = "detect_chapters"
	stepStoreBook        = "store_book"
)

// StepEntry is one record of the processing log kept on the book row.
type StepEntry struct {
	Step       string    `json:"step"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	TextChars  int       `json:"text_chars,omitempty"`
	Headings   int       `json:"headings,omitempty"`
	Chapters   int       `json:"chapters,omitempty"`
	Error      string    `json:"error,omitempty"`
}

func stepDone(step string, start time.Time) StepEntry {
	return StepEntry{
		Step:       step,
		Status:     "completed",
		StartedAt:  start.UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// Notifier delivers processing outcomes back to the user. The Telegram
// bot implements it.
type Notifier interface {
	NotifyProcessed(telegramID string, book *store.Book)
	NotifyFailed(telegramID, filename, reason string)
}

// Worker processes a single book job.
type Worker struct {
	store    *store.Store
	files    *files.Store
	log      *slog.Logger
	chunkCfg chunk.Config
	notify   Notifier
}

func NewWorker(st *store.Store, fs *files.Store, log *slog.Logger, chunkCfg chunk.Config, notify Notifier) *Worker {
	return &Worker{
		store:    st,
		files:    fs,
		log:      log,
		chunkCfg: chunkCfg,
		notify:   notify,
	}
}

// Process runs the full book pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "book_id", job.BookID, "telegram_id", job.TelegramID)

	if err := w.store.SetBookStatus(ctx, job.BookID, store.StatusProcessing); err != nil {
		log.Warn("book status update failed", "error", err)
	}

	var steps []StepEntry

	// Step 1: persist the upload.
	job.SetStatus(StatusSaving, stepSaveFile)
	start := time.Now()
	path, err := w.files.Save(job.TelegramID, job.Filename, job.FileData())
	if err != nil {
		w.fail(ctx, log, job, steps, stepSaveFile, start, fmt.Errorf("save file: %w", err))
		return
	}
	if err := w.store.SetBookFile(ctx, job.BookID, path); err != nil {
		log.Warn("file path update failed", "error", err)
	}
	steps = append(steps, stepDone(stepSaveFile, start))
	log.Info("file saved", "path", path)

	// Step 2: extract plain text.
	job.SetStatus(StatusExtracting, stepExtractText)
	start = time.Now()
	ex, err := extract.ForFile(job.Filename)
	if err != nil {
		w.fail(ctx, log, job, steps, stepExtractText, start, err)
		return
	}
	text, err := ex.Extract(bytes.NewReader(job.FileData()))
	if err != nil {
		w.fail(ctx, log, job, steps, stepExtractText, start, fmt.Errorf("%s extract: %w", ex.Name(), err))
		return
	}
	entry := stepDone(stepExtractText, start)
	entry.TextChars = len(text)
	steps = append(steps, entry)
	job.SetTextChars(len(text))
	log.Info("text extracted", "extractor", ex.Name(), "chars", len(text))

	// Step 3: detect book structure.
	job.SetStatus(StatusAnalyzing, stepAnalyzeStructure)
	start = time.Now()
	st := structure.Analyze(text)
	entry = stepDone(stepAnalyzeStructure, start)
	entry.Headings = len(st.Headings)
	steps = append(steps, entry)
	job.SetHeadingsFound(len(st.Headings))
	log.Info("structure analyzed", "headings", len(st.Headings), "words", st.Metadata.WordCount)

	// Step 4: split into chapters and compute per-chapter metrics.
	job.SetStatus(StatusChunking, stepDetectChapters)
	start = time.Now()
	chapters := chapter.Split(text)
	if len(chapters) == 0 {
		w.fail(ctx, log, job, steps, stepDetectChapters, start, errors.New("no usable text content"))
		return
	}
	rows := make([]*store.Chapter, 0, len(chapters))
	for i, ch := range chapters {
		rows = append(rows, &store.Chapter{
			Number:         ch.Number,
			Title:          ch.Title,
			Content:        ch.Content,
			WordCount:      ch.WordCount(),
			TokenCount:     chunk.EstimateTokens(ch.Content),
			ReadingMinutes: ch.ReadingMinutes(),
			PositionPct:    float64(i) / float64(len(chapters)) * 100,
			ChunkCount:     len(chunk.ChunkChapter(ch, w.chunkCfg)),
		})
	}
	entry = stepDone(stepDetectChapters, start)
	entry.Chapters = len(rows)
	steps = append(steps, entry)
	job.SetChaptersDetected(len(rows))
	log.Info("chapters detected", "chapters", len(rows))

	// Step 5: write the book and its chapters.
	job.SetStatus(StatusStoring, stepStoreBook)
	start = time.Now()
	if err := w.store.InsertChapters(ctx, job.BookID, rows); err != nil {
		w.fail(ctx, log, job, steps, stepStoreBook, start, fmt.Errorf("insert chapters: %w", err))
		return
	}
	job.SetChaptersStored(len(rows))

	entry = stepDone(stepStoreBook, start)
	entry.Chapters = len(rows)
	steps = append(steps, entry)

	title := st.Title
	if title == structure.UnknownTitle {
		// Fall back to the filename stem, as uploads often carry the
		// title only in the name.
		title = strings.TrimSuffix(job.Filename, filepath.Ext(job.Filename))
	}

	logJSON, err := json.Marshal(steps)
	if err != nil {
		log.Warn("step log marshal failed", "error", err)
		logJSON = []byte("[]")
	}

	book := &store.Book{
		ID:             job.BookID,
		Title:          title,
		Author:         st.Author,
		Status:         store.StatusCompleted,
		TotalChapters:  len(rows),
		WordCount:      st.Metadata.WordCount,
		ReadingMinutes: st.Metadata.ReadingMinutes,
		Complexity:     st.Metadata.Complexity,
		HasFrontMatter: st.Metadata.HasFrontMatter,
		ProcessingLog:  string(logJSON),
	}
	if err := w.store.FinishBook(ctx, book); err != nil {
		w.fail(ctx, log, job, steps, stepStoreBook, start, fmt.Errorf("finish book: %w", err))
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("book processed", "title", book.Title, "chapters", len(rows), "words", book.WordCount)
	if w.notify != nil {
		w.notify.NotifyProcessed(job.TelegramID, book)
	}
}

// fail marks the job failed, persists the step log with the failure on
// the book row, and tells the user.
func (w *Worker) fail(ctx context.Context, log *slog.Logger, job *Job, steps []StepEntry, step string, start time.Time, err error) {
	log.Error("processing failed", "step", step, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, step)

	entry := stepDone(step, start)
	entry.Status = "failed"
	entry.Error = err.Error()
	steps = append(steps, entry)

	logJSON, mErr := json.Marshal(steps)
	if mErr != nil {
		logJSON = []byte("[]")
	}
	if dbErr := w.store.FailBook(ctx, job.BookID, string(logJSON)); dbErr != nil {
		log.Error("book failure update failed", "error", dbErr)
	}
	if w.notify != nil {
		w.notify.NotifyFailed(job.TelegramID, job.Filename, err.Error())
	}
}
