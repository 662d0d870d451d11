package runner

import (
	"context"

	"go.uber.org/fx"

	bitunixsvc "bitunix_bot/internal/modules/bitunix/service"
	"bitunix_bot/internal/modules/config"
	healthsvc "bitunix_bot/internal/modules/health/service"
	ledger "bitunix_bot/internal/modules/ledger/service"
	marketsvc "bitunix_bot/internal/modules/market/service"
	"bitunix_bot/internal/notify"
	"bitunix_bot/internal/position"
	"bitunix_bot/internal/strategy"
)

type params struct {
	fx.In

	Config     *config.Config
	Market     *marketsvc.Client
	Stream     *marketsvc.Stream
	Client     *bitunixsvc.Client
	Engine     *strategy.Engine
	Tracker    *position.Tracker
	Ledger     *ledger.Ledger
	Notifier   *notify.Async
	Health     *healthsvc.State
	Shutdowner fx.Shutdowner
}

func newRunner(p params) *Runner {
	return New(Deps{
		Config:     p.Config,
		Market:     p.Market,
		Account:    p.Client,
		Engine:     p.Engine,
		Tracker:    p.Tracker,
		Notifier:   p.Notifier,
		Health:     p.Health,
		Stream:     p.Stream,
		Shutdowner: p.Shutdowner,
		Stats:      func() WinRate { return p.Ledger.Stats() },
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(newRunner),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner) {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						defer close(done)
						r.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
					case <-stopCtx.Done():
					}
					return nil
				},
			})
		}),
	)
}
