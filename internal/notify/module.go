package notify

import (
	"context"

	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	"bitunix_bot/pkg/logger"
)

// NewFromConfig Discord и/или Telegram; лог всегда.
func NewFromConfig(cfg *config.Config) *Async {
	sinks := []Sink{NewLog()}

	if cfg.Notify.DiscordWebhook != "" {
		sinks = append(sinks, NewDiscord(cfg.Notify.DiscordWebhook, cfg.Exchange.Symbol, cfg.Notify.Timeout))
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != 0 {
		tg, err := NewTelegram(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			logger.Error("[NOTIFY] telegram disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
		}
	}

	return NewAsync(Options{
		QueueSize:  cfg.Notify.QueueSize,
		RatePerSec: cfg.Notify.RatePerSec,
		Burst:      cfg.Notify.Burst,
		Timeout:    cfg.Notify.Timeout,
	}, sinks...)
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			NewFromConfig,
			func(a *Async) Notifier { return a },
		),
		fx.Invoke(func(lc fx.Lifecycle, a *Async) {
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					a.Start()
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return a.Close(ctx)
				},
			})
		}),
	)
}
