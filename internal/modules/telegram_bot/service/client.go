package service

import (
	"context"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bitunix_bot/internal/models"
	healthsvc "bitunix_bot/internal/modules/health/service"
	ledger "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/pkg/logger"
)

type PositionSource interface {
	Current() models.Position
}

type StatsSource interface {
	Stats() ledger.Stats
}

// Telegram команды только на чтение: торговое состояние отсюда не меняется.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	symbol string

	health    *healthsvc.State
	positions PositionSource
	stats     StatsSource

	stopOnce sync.Once
}

func NewTelegram(token string, chatID int64, symbol string, h *healthsvc.State, p PositionSource, s StatsSource) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewTelegramWithBot(b, chatID, symbol, h, p, s), nil
}

func NewTelegramWithBot(b *tgbot.BotAPI, chatID int64, symbol string, h *healthsvc.State, p PositionSource, s StatsSource) *Telegram {
	return &Telegram{
		bot:       b,
		chatID:    chatID,
		symbol:    symbol,
		health:    h,
		positions: p,
		stats:     s,
	}
}

func (t *Telegram) Send(_ context.Context, chatID int64, msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(chatID, msg))
}

// Start long polling до отмены ctx.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	logger.Info("[TELEGRAM] commands enabled for chat %d", t.chatID)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) Stop() {
	t.stopOnce.Do(t.bot.StopReceivingUpdates)
}
