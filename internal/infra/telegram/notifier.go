package telegram

import (
	"context"

	"github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers alerts to a single configured chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewNotifier(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Notifier{api: api, chatID: chatID, logger: logger}, nil
}

func (n *Notifier) Notify(ctx context.Context, title, message string) error {
	n.logger.Info("telegram notify send", zap.Int64("chat_id", n.chatID), zap.String("title", title))
	msg := tgbotapi.NewMessage(n.chatID, title+"\n"+message)
	_, err := n.api.Send(msg)
	if err != nil {
		n.logger.Warn("failed to notify", zap.Error(err))
	}
	return err
}
