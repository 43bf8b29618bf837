package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// User is one Telegram account known to the bot.
type User struct {
	ID                int64
	TelegramID        string
	Username          string
	FirstName         string
	LastName          string
	Timezone          string
	ReadingTime       string // HH:MM, reminder preference
	DailyMessageLimit int
	CreatedAt         time.Time
	LastActive        time.Time
}

// CreateUser inserts a new user and fills in the assigned ID. Zero-value
// preference fields get defaults.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if u.Timezone == "" {
		u.Timezone = "UTC"
	}
	if u.ReadingTime == "" {
		u.ReadingTime = "09:00"
	}
	if u.DailyMessageLimit <= 0 {
		u.DailyMessageLimit = 3
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastActive.IsZero() {
		u.LastActive = now
	}

	const q = `INSERT INTO users
		(telegram_id, username, first_name, last_name, timezone, reading_time, daily_message_limit, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		u.TelegramID, u.Username, u.FirstName, u.LastName,
		u.Timezone, u.ReadingTime, u.DailyMessageLimit, u.CreatedAt, u.LastActive)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create user id: %w", err)
	}
	u.ID = id
	return nil
}

// UserByTelegramID returns the user for a Telegram account, or ErrNotFound.
func (s *Store) UserByTelegramID(ctx context.Context, telegramID string) (*User, error) {
	const q = `SELECT id, telegram_id, username, first_name, last_name, timezone,
		reading_time, daily_message_limit, created_at, last_active
		FROM users WHERE telegram_id = ?`
	var u User
	err := s.db.QueryRowContext(ctx, q, telegramID).Scan(
		&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName,
		&u.Timezone, &u.ReadingTime, &u.DailyMessageLimit, &u.CreatedAt, &u.LastActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateTimezone sets the user's timezone.
func (s *Store) UpdateTimezone(ctx context.Context, telegramID, timezone string) error {
	const q = `UPDATE users SET timezone = ? WHERE telegram_id = ?`
	return s.updateUser(ctx, q, timezone, telegramID)
}

// UpdatePreferences sets the reading-reminder time and daily message limit.
func (s *Store) UpdatePreferences(ctx context.Context, telegramID, readingTime string, dailyLimit int) error {
	const q = `UPDATE users SET reading_time = ?, daily_message_limit = ? WHERE telegram_id = ?`
	return s.updateUser(ctx, q, readingTime, dailyLimit, telegramID)
}

// TouchActivity bumps the user's last-active timestamp.
func (s *Store) TouchActivity(ctx context.Context, telegramID string) error {
	const q = `UPDATE users SET last_active = ? WHERE telegram_id = ?`
	return s.updateUser(ctx, q, time.Now().UTC(), telegramID)
}

func (s *Store) updateUser(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
