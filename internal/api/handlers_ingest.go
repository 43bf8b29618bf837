package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkotula/retain/internal/extract"
	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

// handleIngest accepts a book upload for a registered user and queues it,
// mirroring what a file sent to the chat does.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	telegramID := r.FormValue("telegram_id")
	if telegramID == "" {
		jsonError(w, "telegram_id is required", http.StatusBadRequest)
		return
	}
	user, err := s.store.UserByTelegramID(r.Context(), telegramID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "unknown telegram_id", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "user lookup failed", http.StatusInternalServerError)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extract.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxFileBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxFileBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxFileBytes), http.StatusRequestEntityTooLarge)
		return
	}

	book := &store.Book{
		UserID:   user.ID,
		Title:    strings.TrimSuffix(filename, filepath.Ext(filename)),
		FileType: strings.ToLower(filepath.Ext(filename)),
		Status:   store.StatusPending,
	}
	if err := s.store.CreateBook(r.Context(), book); err != nil {
		jsonError(w, "failed to create book", http.StatusInternalServerError)
		return
	}

	job := pipeline.NewJob(telegramID, user.ID, book.ID, filename, data)
	if err := s.orch.Submit(job); err != nil {
		if ferr := s.store.FailBook(r.Context(), book.ID, "[]"); ferr != nil {
			s.log.Error("book failure update failed", "book_id", book.ID, "error", ferr)
		}
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"book_id":  job.BookID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orch.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// sanitizeFilename strips path components, keeping only the base name.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
