package sender

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jhrabal/linewatch/internal/model"
)

type TelegramSender struct {
	bot *tgbotapi.BotAPI
}

func NewTelegramSender(bot *tgbotapi.BotAPI) *TelegramSender {
	return &TelegramSender{bot: bot}
}

// Send delivers the content as one plain-text message. The subscriber
// address is the chat id.
func (s *TelegramSender) Send(ctx context.Context, address string, content model.NotificationContent) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return Permanent(fmt.Errorf("bad chat id %q: %w", address, err))
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, content.Title+"\n\n"+content.Body)
	if _, err := s.bot.Send(msg); err != nil {
		var apiErr *tgbotapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return Permanent(err)
		}
		return err
	}
	return nil
}
