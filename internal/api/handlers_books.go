package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mkotula/retain/internal/store"
)

type bookJSON struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Author         string     `json:"author,omitempty"`
	FileType       string     `json:"file_type,omitempty"`
	Status         string     `json:"status"`
	TotalChapters  int        `json:"total_chapters"`
	WordCount      int        `json:"word_count"`
	ReadingMinutes int        `json:"reading_minutes"`
	Complexity     float64    `json:"complexity"`
	HasFrontMatter bool       `json:"has_front_matter"`
	CreatedAt      time.Time  `json:"created_at"`
	ProcessedAt    *time.Time `json:"processed_at,omitempty"`
}

// handleUserBooks lists a user's library.
func (s *Server) handleUserBooks(w http.ResponseWriter, r *http.Request) {
	telegramID := chi.URLParam(r, "telegramID")
	user, err := s.store.UserByTelegramID(r.Context(), telegramID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "unknown telegram_id", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "user lookup failed", http.StatusInternalServerError)
		return
	}

	books, err := s.store.BooksByUser(r.Context(), user.ID)
	if err != nil {
		jsonError(w, "failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]bookJSON, 0, len(books))
	for _, b := range books {
		out = append(out, bookJSON{
			ID:             b.ID,
			Title:          b.Title,
			Author:         b.Author,
			FileType:       b.FileType,
			Status:         b.Status,
			TotalChapters:  b.TotalChapters,
			WordCount:      b.WordCount,
			ReadingMinutes: b.ReadingMinutes,
			Complexity:     b.Complexity,
			HasFrontMatter: b.HasFrontMatter,
			CreatedAt:      b.CreatedAt,
			ProcessedAt:    b.ProcessedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"books": out, "count": len(out)})
}
