package market

import (
	"context"

	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	"bitunix_bot/internal/modules/market/service"
)

func NewClient(cfg *config.Config) *service.Client {
	return service.NewClient(cfg.Market.BaseURL)
}

// NewStream nil, если поток выключен в конфиге.
func NewStream(lc fx.Lifecycle, cfg *config.Config) *service.Stream {
	if !cfg.Market.StreamEnabled {
		return nil
	}
	s := service.NewStream(cfg.Market.WSURL, cfg.Market.TradingPair, cfg.Market.Timeframe)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				s.Run(ctx)
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
	return s
}

func Module() fx.Option {
	return fx.Module("market",
		fx.Provide(
			NewClient,
			NewStream,
		),
	)
}
