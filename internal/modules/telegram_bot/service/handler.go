package service

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bitunix_bot/pkg/logger"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.IsCommand() {
		return
	}
	// чужие чаты молча игнорируем
	if msg.Chat.ID != t.chatID {
		logger.Warn("[TELEGRAM] command from foreign chat %d ignored", msg.Chat.ID)
		return
	}

	text, ok := t.reply(msg.Command())
	if !ok {
		return
	}
	if _, err := t.Send(ctx, msg.Chat.ID, text); err != nil {
		logger.Error("[TELEGRAM] reply to /%s: %v", msg.Command(), err)
	}
}

// reply текст ответа на команду; false: команда неизвестна.
func (t *Telegram) reply(cmd string) (string, bool) {
	switch cmd {
	case "start", "help":
		return helpText, true
	case "status":
		return t.formatStatus(), true
	case "stats":
		return t.formatStats(), true
	case "position":
		return t.formatPosition(), true
	}
	return "", false
}
