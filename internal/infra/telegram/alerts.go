package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/lovevibesai/Love-Vibes-sub001/internal/infra/httpclient"
)

const alertPrefix = "[lovevibes] "

// Alerts posts operator notifications to a single chat. A zero value, or one
// built without a token, only logs.
type Alerts struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewAlerts(token string, chatID int64, logger *zap.Logger) (*Alerts, error) {
	return NewAlertsWithEndpoint(token, chatID, tgbotapi.APIEndpoint, logger)
}

func NewAlertsWithEndpoint(token string, chatID int64, endpoint string, logger *zap.Logger) (*Alerts, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	token = strings.TrimSpace(token)
	if token == "" || chatID == 0 {
		logger.Warn("telegram alerts disabled: token or chat id is empty")
		return &Alerts{logger: logger}, nil
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpclient.New(0))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Alerts{api: api, chatID: chatID, logger: logger}, nil
}

func (a *Alerts) Enabled() bool {
	return a != nil && a.api != nil
}

func (a *Alerts) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !a.Enabled() {
		if a != nil && a.logger != nil {
			a.logger.Info("telegram alert skipped", zap.String("text", text))
		}
		return nil
	}

	msg := tgbotapi.NewMessage(a.chatID, alertPrefix+text)
	msg.DisableWebPagePreview = true
	if _, err := a.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}
