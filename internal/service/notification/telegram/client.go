// Package telegram sends notifications to one Telegram chat and reads commands from it.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/KNICEX/market-sentinel/internal/service/notification"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram 单条消息最多 4096 个字符
const maxMessageLen = 4096

var _ notification.Sink = (*Client)(nil)

// CommandHandler returns the reply for a command text.
type CommandHandler func(ctx context.Context, text string) string

type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewClient(bot *tgbotapi.BotAPI, chatID int64) *Client {
	return &Client{bot: bot, chatID: chatID}
}

// Send delivers a plain text message. Retries are left to the caller.
func (c *Client) Send(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.send(c.chatID, message)
}

func (c *Client) send(chatID int64, text string) error {
	if utf8.RuneCountInString(text) > maxMessageLen {
		runes := []rune(text)
		text = string(runes[:maxMessageLen-1]) + "…"
	}
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// ListenForCommands polls updates in a goroutine until ctx is done. Messages
// from chats other than the configured one are ignored.
func (c *Client) ListenForCommands(ctx context.Context, handle CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(ctx, update, handle)
			}
		}
	}()
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update, handle CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	if msg.Chat.ID != c.chatID {
		slog.Warn("ignore message from unknown chat", "chat", msg.Chat.ID)
		return
	}
	reply := handle(ctx, msg.Text)
	if reply == "" {
		return
	}
	if err := c.send(msg.Chat.ID, reply); err != nil {
		slog.Error("reply command failed", "error", err)
	}
}
