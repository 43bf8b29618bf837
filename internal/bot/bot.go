// Package bot implements the Telegram chat surface: command handling,
// book file uploads, and processing notifications.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkotula/retain/internal/config"
	"github.com/mkotula/retain/internal/llm"
	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

// Bot connects a Telegram account to the store, the processing pipeline,
// and the model client.
type Bot struct {
	api   *tgbotapi.BotAPI
	store *store.Store
	orch  *pipeline.Orchestrator
	llm   llm.Client
	dl    *Downloader
	cfg   config.Config
	log   *slog.Logger
}

func New(cfg config.Config, st *store.Store, orch *pipeline.Orchestrator, client llm.Client, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("telegram connect: %w", err)
	}
	return &Bot{
		api:   api,
		store: st,
		orch:  orch,
		llm:   client,
		dl:    NewDownloader(cfg.HTTPTimeout),
		cfg:   cfg,
		log:   log,
	}, nil
}

// Username returns the bot account name reported by Telegram.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.PollTimeoutSec
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("update handler panicked", "chat_id", msg.Chat.ID, "panic", r)
		}
	}()

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.handleDocument(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) replyMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "chat_id", chatID, "error", err)
	}
}

// NotifyProcessed tells the uploader their book is ready.
func (b *Bot) NotifyProcessed(telegramID string, book *store.Book) {
	chatID, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		b.log.Error("bad telegram id in notification", "telegram_id", telegramID, "error", err)
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"Your book has been processed successfully!\nTitle: %s\nChapters: %d\nBook ID: %d\n\nYou can now use commands like /summary %d or /concepts %d to work with this book.",
		book.Title, book.TotalChapters, book.ID, book.ID, book.ID))
}

// NotifyFailed tells the uploader their book could not be processed.
func (b *Bot) NotifyFailed(telegramID, filename, reason string) {
	chatID, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		b.log.Error("bad telegram id in notification", "telegram_id", telegramID, "error", err)
		return
	}
	b.log.Warn("notifying upload failure", "telegram_id", telegramID, "filename", filename, "reason", reason)
	b.reply(chatID, "There was an error processing your book. Please try again or try a different file.")
}
