package notify

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bitunix_bot/internal/models"
)

// Telegram пассивный канал: только отправка, без команд.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: b, chatID: chatID}, nil
}

// NewTelegramWithBot для тестов и нестандартных API-эндпоинтов.
func NewTelegramWithBot(b *tgbot.BotAPI, chatID int64) *Telegram {
	return &Telegram{bot: b, chatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Deliver(ctx context.Context, ev models.Event) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	text := Text(ev)
	var msg tgbot.Chattable
	if len(ev.Image) > 0 {
		photo := tgbot.NewPhoto(t.chatID, tgbot.FileBytes{Name: attachmentName, Bytes: ev.Image})
		photo.Caption = text
		msg = photo
	} else {
		msg = tgbot.NewMessage(t.chatID, text)
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
