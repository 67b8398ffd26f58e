package notify

import (
	"context"
	"fmt"

	"github.com/LJTian/SyndicateHub/internal/collector"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier 发布成功后的通知，失败不影响发布记录
type Notifier interface {
	Notify(ctx context.Context, a collector.Article, location string) error
}

// TelegramNotifier 把新文章推送到一个 Telegram 频道或群
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewTelegramWithEndpoint endpoint 形如 https://api.telegram.org/bot%s/%s
func NewTelegramWithEndpoint(token, endpoint string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, a collector.Article, location string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, Message(a, location))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// Message 通知文案
func Message(a collector.Article, location string) string {
	return fmt.Sprintf("[%s] %s\n%s", a.Category, a.Title, location)
}
