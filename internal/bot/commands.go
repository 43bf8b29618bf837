package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkotula/retain/internal/llm"
	"github.com/mkotula/retain/internal/store"
	"github.com/mkotula/retain/internal/structure"
)

const (
	needRegisterText   = "You need to register first. Use /register [timezone] to create an account."
	somethingWrongText = "Something went wrong on my end. Please try again."
)

// Chapters analyzed per book for summaries, concepts, and learning material.
const maxAnalyzedChapters = 5

const helpText = `*Book Retention Bot Commands*

*User Management*
/start - Get started with the bot
/register [timezone] - Create your account with a timezone preference
/preferences [HH:MM] [daily_limit] - Show or update your reading reminder time and daily message limit

*Book Management*
/add [title] [author] - Manually add a book
/mybooks - View your books and their processing status
Send a book file (PDF, EPUB, DOCX, TXT, Markdown, HTML) as a document to have it processed.

*Book Analysis*
/summary [book_id] - Get an overall book summary
/concepts [book_id] - Get key concepts chapter by chapter
/estimate [book_id] - Show reading time and complexity estimates

*Spaced Repetition*
/recap [book_id] - Core concept reminders (day 1)
/connect [book_id] - Concept connections (day 3)
/apply [book_id] - Application prompts (day 7)
/master [book_id] - Comprehensive review (day 30)

*Other*
/status - Processing progress across your books
/help - Show this message`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.Fields(msg.CommandArguments())
	chatID := msg.Chat.ID
	telegramID := strconv.FormatInt(msg.From.ID, 10)

	// These work without an account.
	switch cmd {
	case "start":
		b.cmdStart(chatID, msg.From.FirstName)
		return
	case "help":
		b.replyMarkdown(chatID, helpText)
		return
	case "register":
		b.cmdRegister(ctx, chatID, telegramID, msg.From, args)
		return
	}

	user, err := b.store.UserByTelegramID(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(chatID, needRegisterText)
		return
	}
	if err != nil {
		b.log.Error("user lookup failed", "telegram_id", telegramID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	if err := b.store.TouchActivity(ctx, telegramID); err != nil {
		b.log.Warn("activity update failed", "telegram_id", telegramID, "error", err)
	}

	switch cmd {
	case "preferences":
		b.cmdPreferences(ctx, chatID, user, args)
	case "add":
		b.cmdAdd(ctx, chatID, user, args)
	case "mybooks":
		b.cmdMyBooks(ctx, chatID, user)
	case "summary":
		b.cmdSummary(ctx, chatID, user, args)
	case "concepts":
		b.cmdConcepts(ctx, chatID, user, args)
	case "estimate":
		b.cmdEstimate(ctx, chatID, user, args)
	case "recap":
		b.cmdMaterial(ctx, chatID, user, args, llm.IntervalDay1, "recap")
	case "connect":
		b.cmdMaterial(ctx, chatID, user, args, llm.IntervalDay3, "connect")
	case "apply":
		b.cmdMaterial(ctx, chatID, user, args, llm.IntervalDay7, "apply")
	case "master":
		b.cmdMaterial(ctx, chatID, user, args, llm.IntervalDay30, "master")
	case "status":
		b.cmdStatus(ctx, chatID, user, telegramID)
	default:
		b.reply(chatID, "I don't recognize that command. Try /help to see what I can do!")
	}
}

func (b *Bot) cmdStart(chatID int64, firstName string) {
	name := firstName
	if name == "" {
		name = "there"
	}
	b.reply(chatID, fmt.Sprintf(
		"Hi %s! I'm your Book Retention Bot. I'll help you process, analyze, and create spaced repetition learning schedules for books.\n\nUse /register [timezone] to set up your account with your timezone preference.\nFor example: /register UTC or /register America/New_York\n\nType /help to see all available commands.",
		name))
}

func (b *Bot) cmdRegister(ctx context.Context, chatID int64, telegramID string, from *tgbotapi.User, args []string) {
	timezone := "UTC"
	if len(args) > 0 {
		if _, err := time.LoadLocation(args[0]); err != nil {
			b.reply(chatID, fmt.Sprintf(
				"Invalid timezone: %s. Using UTC instead.\nPlease see https://en.wikipedia.org/wiki/List_of_tz_database_time_zones for valid timezones.",
				args[0]))
		} else {
			timezone = args[0]
		}
	}

	_, err := b.store.UserByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if err := b.store.UpdateTimezone(ctx, telegramID, timezone); err != nil {
			b.log.Error("timezone update failed", "telegram_id", telegramID, "error", err)
			b.reply(chatID, somethingWrongText)
			return
		}
		b.reply(chatID, fmt.Sprintf("Your account has been updated with timezone: %s", timezone))
	case errors.Is(err, store.ErrNotFound):
		u := &store.User{
			TelegramID: telegramID,
			Username:   from.UserName,
			FirstName:  from.FirstName,
			LastName:   from.LastName,
			Timezone:   timezone,
		}
		if err := b.store.CreateUser(ctx, u); err != nil {
			b.log.Error("user create failed", "telegram_id", telegramID, "error", err)
			b.reply(chatID, somethingWrongText)
			return
		}
		b.log.Info("user registered", "telegram_id", telegramID, "timezone", timezone)
		b.reply(chatID, fmt.Sprintf(
			"Welcome! Your account has been created with timezone: %s\n\nYou can now use the bot to manage your books and learning schedules.\nTry uploading a book file or adding one manually with /add [title] [author]",
			timezone))
	default:
		b.log.Error("user lookup failed", "telegram_id", telegramID, "error", err)
		b.reply(chatID, somethingWrongText)
	}
}

func (b *Bot) cmdPreferences(ctx context.Context, chatID int64, user *store.User, args []string) {
	if len(args) == 0 {
		b.reply(chatID, fmt.Sprintf(
			"Your current preferences:\n- Timezone: %s\n- Reading reminder time: %s\n- Daily message limit: %d\n\nTo change your timezone, use /register [timezone]\nTo update the rest, use /preferences [HH:MM] [daily_limit]",
			user.Timezone, user.ReadingTime, user.DailyMessageLimit))
		return
	}

	readingTime := args[0]
	if !validReadingTime(readingTime) {
		b.reply(chatID, fmt.Sprintf("Invalid time %q. Please use 24-hour HH:MM, for example 08:30.", readingTime))
		return
	}
	limit := user.DailyMessageLimit
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > 10 {
			b.reply(chatID, "The daily message limit must be a number between 1 and 10.")
			return
		}
		limit = n
	}
	if err := b.store.UpdatePreferences(ctx, user.TelegramID, readingTime, limit); err != nil {
		b.log.Error("preferences update failed", "telegram_id", user.TelegramID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Preferences updated:\n- Reading reminder time: %s\n- Daily message limit: %d",
		readingTime, limit))
}

func (b *Bot) cmdAdd(ctx context.Context, chatID int64, user *store.User, args []string) {
	if len(args) < 1 {
		b.reply(chatID, "Please provide a book title. Usage: /add [title] [author]")
		return
	}
	title := args[0]
	author := strings.Join(args[1:], " ")

	book := &store.Book{
		UserID: user.ID,
		Title:  title,
		Author: author,
		Status: store.StatusManual,
	}
	if err := b.store.CreateBook(ctx, book); err != nil {
		b.log.Error("book create failed", "user_id", user.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}

	text := "Book added: " + title
	if author != "" {
		text += " by " + author
	}
	text += fmt.Sprintf("\nBook ID: %d\n\nSince this book was added manually, you'll need to upload content or add notes later.", book.ID)
	b.reply(chatID, text)
}

func (b *Bot) cmdMyBooks(ctx context.Context, chatID int64, user *store.User) {
	books, err := b.store.BooksByUser(ctx, user.ID)
	if err != nil {
		b.log.Error("book list failed", "user_id", user.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	if len(books) == 0 {
		b.reply(chatID, "You don't have any books yet. Use /add [title] [author] to add a book manually, or upload a book file.")
		return
	}
	b.reply(chatID, formatBookList(books))
}

func (b *Bot) cmdSummary(ctx context.Context, chatID int64, user *store.User, args []string) {
	book, ok := b.bookForCommand(ctx, chatID, user, args, "summary")
	if !ok || !b.requireProcessed(chatID, book) {
		return
	}

	syn, err := b.store.BookSynthesisFor(ctx, book.ID)
	if errors.Is(err, store.ErrNotFound) {
		syn, err = b.generateSynthesis(ctx, book)
	}
	if err != nil {
		b.log.Error("synthesis failed", "book_id", book.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	b.reply(chatID, formatSynthesis(book, syn))
}

func (b *Bot) cmdConcepts(ctx context.Context, chatID int64, user *store.User, args []string) {
	book, ok := b.bookForCommand(ctx, chatID, user, args, "concepts")
	if !ok || !b.requireProcessed(chatID, book) {
		return
	}

	pairs, err := b.ensureAnalyses(ctx, book)
	if err != nil {
		b.log.Error("analysis failed", "book_id", book.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Key concepts from %s:\n", book.Title)
	for _, p := range pairs {
		fmt.Fprintf(&sb, "\n%s\n", chapterLabel(p.chapter.Number, p.chapter.Title))
		sb.WriteString(bulletList(p.analysis.KeyConcepts))
		sb.WriteString("\n")
	}
	if book.TotalChapters > len(pairs) {
		fmt.Fprintf(&sb, "\nShowing the first %d of %d chapters.", len(pairs), book.TotalChapters)
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) cmdEstimate(ctx context.Context, chatID int64, user *store.User, args []string) {
	book, ok := b.bookForCommand(ctx, chatID, user, args, "estimate")
	if !ok || !b.requireProcessed(chatID, book) {
		return
	}
	b.reply(chatID, formatEstimate(book))
}

func (b *Bot) cmdMaterial(ctx context.Context, chatID int64, user *store.User, args []string, interval, cmdName string) {
	book, ok := b.bookForCommand(ctx, chatID, user, args, cmdName)
	if !ok || !b.requireProcessed(chatID, book) {
		return
	}

	m, err := b.store.LearningMaterialFor(ctx, book.ID, interval)
	if errors.Is(err, store.ErrNotFound) {
		m, err = b.generateMaterial(ctx, book, interval)
	}
	if err != nil {
		b.log.Error("learning material failed", "book_id", book.ID, "interval", interval, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	b.reply(chatID, m.Content)
}

func (b *Bot) cmdStatus(ctx context.Context, chatID int64, user *store.User, telegramID string) {
	counts, err := b.store.CountBooksByStatus(ctx, user.ID)
	if err != nil {
		b.log.Error("status counts failed", "user_id", user.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}
	b.reply(chatID, formatStatus(counts, b.orch.ActiveJobs(telegramID)))
}

// bookForCommand parses the book ID argument and loads the caller's book.
// On any problem it replies with guidance and returns ok=false.
func (b *Bot) bookForCommand(ctx context.Context, chatID int64, user *store.User, args []string, cmdName string) (*store.Book, bool) {
	if len(args) < 1 {
		b.reply(chatID, fmt.Sprintf("Please provide a book ID. Usage: /%s [book_id]", cmdName))
		return nil, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Book IDs are numbers. Usage: /%s [book_id]", cmdName))
		return nil, false
	}
	book, err := b.store.BookOwnedBy(ctx, id, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(chatID, fmt.Sprintf("Book %d not found. Use /mybooks to see your books.", id))
		return nil, false
	}
	if err != nil {
		b.log.Error("book lookup failed", "book_id", id, "error", err)
		b.reply(chatID, somethingWrongText)
		return nil, false
	}
	return book, true
}

func (b *Bot) requireProcessed(chatID int64, book *store.Book) bool {
	switch book.Status {
	case store.StatusCompleted:
		return true
	case store.StatusManual:
		b.reply(chatID, "This book was added manually and has no content to analyze.")
	case store.StatusError:
		b.reply(chatID, "Processing this book failed. Please try uploading it again.")
	default:
		b.reply(chatID, "This book is still being processed. I'll let you know when it's ready.")
	}
	return false
}

type analyzedChapter struct {
	chapter  *store.Chapter
	analysis *store.ChapterAnalysis
}

// ensureAnalyses returns analyses for the book's first chapters, generating
// and caching any that are missing.
func (b *Bot) ensureAnalyses(ctx context.Context, book *store.Book) ([]analyzedChapter, error) {
	chapters, err := b.store.Chapters(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("load chapters: %w", err)
	}
	if len(chapters) == 0 {
		return nil, fmt.Errorf("book %d has no chapters", book.ID)
	}
	if len(chapters) > maxAnalyzedChapters {
		chapters = chapters[:maxAnalyzedChapters]
	}

	pairs := make([]analyzedChapter, 0, len(chapters))
	for _, ch := range chapters {
		a, err := b.store.ChapterAnalysisFor(ctx, ch.ID)
		if errors.Is(err, store.ErrNotFound) {
			a, err = b.analyzeChapter(ctx, book, ch)
		}
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, analyzedChapter{chapter: ch, analysis: a})
	}
	return pairs, nil
}

func (b *Bot) analyzeChapter(ctx context.Context, book *store.Book, ch *store.Chapter) (*store.ChapterAnalysis, error) {
	res, err := b.llm.AnalyzeChapter(ctx, llm.ChapterRequest{
		BookTitle:    book.Title,
		BookAuthor:   book.Author,
		ChapterTitle: ch.Title,
		Text:         ch.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("analyze chapter %d: %w", ch.Number, err)
	}
	a := &store.ChapterAnalysis{
		ChapterID:   ch.ID,
		Summary:     res.Summary,
		KeyConcepts: res.KeyConcepts,
		Characters:  res.Characters,
		Themes:      res.Themes,
		Quotes:      res.Quotes,
		Difficulty:  res.Difficulty,
		Model:       res.Model,
	}
	if err := b.store.SaveChapterAnalysis(ctx, a); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return a, nil
}

func (b *Bot) generateSynthesis(ctx context.Context, book *store.Book) (*store.BookSynthesis, error) {
	pairs, err := b.ensureAnalyses(ctx, book)
	if err != nil {
		return nil, err
	}

	summaries := make([]llm.ChapterSummary, 0, len(pairs))
	for _, p := range pairs {
		summaries = append(summaries, llm.ChapterSummary{
			Title:       p.chapter.Title,
			Summary:     p.analysis.Summary,
			KeyConcepts: p.analysis.KeyConcepts,
		})
	}
	res, err := b.llm.SynthesizeBook(ctx, llm.BookRequest{
		Title:    book.Title,
		Author:   book.Author,
		Chapters: summaries,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize book: %w", err)
	}

	syn := &store.BookSynthesis{
		BookID:         book.ID,
		Summary:        res.Summary,
		KeyThemes:      res.KeyThemes,
		MainCharacters: res.MainCharacters,
		PlotArc:        res.PlotArc,
		Model:          res.Model,
	}
	if err := b.store.SaveBookSynthesis(ctx, syn); err != nil {
		return nil, fmt.Errorf("save synthesis: %w", err)
	}
	return syn, nil
}

func (b *Bot) generateMaterial(ctx context.Context, book *store.Book, interval string) (*store.LearningMaterial, error) {
	pairs, err := b.ensureAnalyses(ctx, book)
	if err != nil {
		return nil, err
	}
	var concepts []string
	for _, p := range pairs {
		concepts = append(concepts, p.analysis.KeyConcepts...)
	}

	content, err := b.llm.LearningMaterial(ctx, llm.MaterialRequest{
		Interval:  interval,
		BookTitle: book.Title,
		Concepts:  concepts,
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s material: %w", interval, err)
	}

	m := &store.LearningMaterial{
		BookID:   book.ID,
		Interval: interval,
		Content:  content,
	}
	if err := b.store.SaveLearningMaterial(ctx, m); err != nil {
		return nil, fmt.Errorf("save material: %w", err)
	}
	return m, nil
}

// unknownAuthor reports whether the stored author is the analyzer's fallback
// value, which reads poorly in replies.
func unknownAuthor(author string) bool {
	return author == "" || author == structure.UnknownAuthor
}
