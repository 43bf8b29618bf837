package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

var statusOrder = []string{
	store.StatusPending,
	store.StatusProcessing,
	store.StatusCompleted,
	store.StatusError,
	store.StatusManual,
}

func formatBookList(books []*store.Book) string {
	var sb strings.Builder
	sb.WriteString("Your books:\n\n")
	for _, book := range books {
		fmt.Fprintf(&sb, "ID: %d - %s", book.ID, book.Title)
		if !unknownAuthor(book.Author) {
			sb.WriteString(" by " + book.Author)
		}
		sb.WriteString("\n")
		sb.WriteString("Status: " + capitalize(book.Status) + "\n")
		fmt.Fprintf(&sb, "Chapters: %d\n\n", book.TotalChapters)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatSynthesis(book *store.Book, syn *store.BookSynthesis) string {
	var sb strings.Builder
	sb.WriteString(book.Title)
	if !unknownAuthor(book.Author) {
		sb.WriteString(" by " + book.Author)
	}
	sb.WriteString("\n\n")
	sb.WriteString(syn.Summary)
	if len(syn.KeyThemes) > 0 {
		sb.WriteString("\n\nKey themes:\n")
		sb.WriteString(bulletList(syn.KeyThemes))
	}
	if len(syn.MainCharacters) > 0 {
		sb.WriteString("\n\nMain characters: ")
		sb.WriteString(strings.Join(syn.MainCharacters, ", "))
	}
	if syn.PlotArc != "" {
		sb.WriteString("\n\nPlot arc: ")
		sb.WriteString(syn.PlotArc)
	}
	return sb.String()
}

func formatEstimate(book *store.Book) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Reading estimate for %s:\n", book.Title)
	fmt.Fprintf(&sb, "- Words: %d\n", book.WordCount)
	fmt.Fprintf(&sb, "- Reading time: about %s\n", formatMinutes(book.ReadingMinutes))
	fmt.Fprintf(&sb, "- Chapters: %d\n", book.TotalChapters)
	fmt.Fprintf(&sb, "- Structure complexity: %.2f", book.Complexity)
	return sb.String()
}

func formatStatus(counts map[string]int, jobs []pipeline.JobSnapshot) string {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "You don't have any books yet. Use /add [title] [author] to add a book manually, or upload a book file."
	}

	var sb strings.Builder
	sb.WriteString("Your books by status:\n")
	for _, status := range statusOrder {
		if n := counts[status]; n > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", capitalize(status), n)
		}
	}
	if len(jobs) > 0 {
		fmt.Fprintf(&sb, "\nProcessing right now: %d\n", len(jobs))
		for _, j := range jobs {
			fmt.Fprintf(&sb, "- %s: %s\n", j.Filename, j.Status)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// chapterLabel renders a chapter heading for replies, avoiding the doubled
// "Chapter 2: Chapter 2" when the title is only a number line.
func chapterLabel(number int, title string) string {
	if strings.HasPrefix(title, "Chapter ") {
		return title
	}
	if title == "" {
		return fmt.Sprintf("Chapter %d", number)
	}
	return fmt.Sprintf("Chapter %d: %s", number, title)
}

func bulletList(items []string) string {
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- " + item)
	}
	return sb.String()
}

func formatMinutes(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func validReadingTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
