package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NopNotifier drops every alert.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, text string) error { return nil }

// BotNotifier posts alerts to one admin chat.
type BotNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewBotNotifier(bot *tgbotapi.BotAPI, chatID int64) *BotNotifier {
	return &BotNotifier{bot: bot, chatID: chatID}
}

func (n *BotNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// New returns a BotNotifier, or a NopNotifier when token or chat are unset or the bot cannot log in.
func New(token string, chatID int64, logger *zap.Logger) Notifier {
	if token == "" || chatID == 0 {
		return NopNotifier{}
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Warn("telegram alerts disabled", zap.Error(err))
		return NopNotifier{}
	}
	logger.Info("telegram alerts enabled", zap.String("bot", bot.Self.UserName))
	return NewBotNotifier(bot, chatID)
}

// JobFailedMessage formats the alert sent when a generation job fails.
func JobFailedMessage(jobID uint, pipeline, reason string, details []string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("❌ Generation job #%d (%s) failed\n", jobID, EscapeMessage(pipeline)))
	sb.WriteString(EscapeMessage(reason))
	for _, detail := range details {
		sb.WriteString("\n• ")
		sb.WriteString(EscapeMessage(detail))
	}
	return sb.String()
}
