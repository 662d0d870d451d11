package telegram

import (
	"context"

	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	healthsvc "bitunix_bot/internal/modules/health/service"
	ledger "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/internal/modules/telegram_bot/service"
	"bitunix_bot/internal/position"
	"bitunix_bot/pkg/logger"
)

func run(lc fx.Lifecycle, cfg *config.Config, h *healthsvc.State, tr *position.Tracker, l *ledger.Ledger) {
	n := cfg.Notify
	if !n.TelegramCommands || n.TelegramToken == "" || n.TelegramChatID == 0 {
		return
	}
	t, err := service.NewTelegram(n.TelegramToken, n.TelegramChatID, cfg.Exchange.Symbol, h, tr, l)
	if err != nil {
		// команды не критичны для торговли
		logger.Error("[TELEGRAM] commands disabled: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go t.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			t.Stop()
			return nil
		},
	})
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Invoke(run),
	)
}
