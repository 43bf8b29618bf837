package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mkotula/retain/internal/extract"
	"github.com/mkotula/retain/internal/pipeline"
	"github.com/mkotula/retain/internal/store"
)

func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	telegramID := strconv.FormatInt(msg.From.ID, 10)

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

	doc := msg.Document
	filename := doc.FileName
	if !extract.IsSupported(filename) {
		b.reply(chatID, fmt.Sprintf(
			"Sorry, this file type is not supported. Please upload one of: %s.",
			strings.Join(extract.Supported(), ", ")))
		return
	}
	if int64(doc.FileSize) > b.cfg.MaxFileBytes {
		b.reply(chatID, fmt.Sprintf(
			"This file is too large. The maximum size I can handle is %d MB.",
			b.cfg.MaxFileBytes/(1024*1024)))
		return
	}

	b.reply(chatID, fmt.Sprintf(
		"I've received your book: %s\nI'll start processing it now. This may take a few minutes depending on the size.\nI'll notify you when it's ready.",
		filename))

	data, err := b.downloadDocument(ctx, doc)
	if err != nil {
		b.log.Error("download failed", "telegram_id", telegramID, "file_id", doc.FileID, "error", err)
		b.reply(chatID, "I couldn't download your file from Telegram. Please try again.")
		return
	}

	book := &store.Book{
		UserID:   user.ID,
		Title:    strings.TrimSuffix(filename, filepath.Ext(filename)),
		FileType: strings.ToLower(filepath.Ext(filename)),
		Status:   store.StatusPending,
	}
	if err := b.store.CreateBook(ctx, book); err != nil {
		b.log.Error("book create failed", "user_id", user.ID, "error", err)
		b.reply(chatID, somethingWrongText)
		return
	}

	job := pipeline.NewJob(telegramID, user.ID, book.ID, filename, data)
	if err := b.orch.Submit(job); err != nil {
		b.log.Warn("submit failed", "book_id", book.ID, "error", err)
		if err := b.store.FailBook(ctx, book.ID, "[]"); err != nil {
			b.log.Error("book failure update failed", "book_id", book.ID, "error", err)
		}
		b.reply(chatID, "I'm handling a lot of books right now and my queue is full. Please send the file again in a few minutes.")
		return
	}
	b.log.Info("book queued", "job_id", job.ID, "book_id", book.ID, "telegram_id", telegramID, "filename", filename, "bytes", len(data))
}

func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: doc.FileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return b.dl.Fetch(ctx, file.Link(b.api.Token), b.cfg.MaxFileBytes)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	telegramID := strconv.FormatInt(msg.From.ID, 10)
	_, err := b.store.UserByTelegramID(ctx, telegramID)
	if errors.Is(err, store.ErrNotFound) {
		b.reply(msg.Chat.ID, needRegisterText)
		return
	}
	if err != nil {
		b.log.Error("user lookup failed", "telegram_id", telegramID, "error", err)
		return
	}
	if err := b.store.TouchActivity(ctx, telegramID); err != nil {
		b.log.Warn("activity update failed", "telegram_id", telegramID, "error", err)
	}
	b.reply(msg.Chat.ID, "I'm designed to work with commands and book files. Try /help to see what I can do!")
}
