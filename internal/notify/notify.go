// Package notify delivers reminders to the user.
package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends a plain-text message to the user.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Telegram sends messages to one chat through a bot.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram wraps an authenticated bot.
func NewTelegram(bot *tgbotapi.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

// DialTelegram authenticates token against the Telegram API.
func DialTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting telegram bot: %w", err)
	}
	return NewTelegram(bot, chatID), nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

// Log writes messages to a logger. It is used when no bot is configured.
type Log struct {
	Logger *log.Logger
}

func (l Log) Notify(_ context.Context, text string) error {
	l.Logger.Info("reminder", "message", text)
	return nil
}
