package strategy

import (
	"go.uber.org/fx"

	"bitunix_bot/internal/modules/bitunix/service"
	"bitunix_bot/internal/modules/config"
	ledger "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/internal/notify"
	"bitunix_bot/internal/position"
)

func newEngine(
	cfg *config.Config,
	client *service.Client,
	tracker *position.Tracker,
	l *ledger.Ledger,
	n notify.Notifier,
) *Engine {
	return NewEngine(ConfigFrom(cfg), client, tracker, l, n)
}

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			position.NewTracker,
			newEngine,
		),
	)
}
