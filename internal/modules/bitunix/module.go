package bitunix

import (
	"go.uber.org/fx"

	"bitunix_bot/internal/modules/bitunix/service"
	"bitunix_bot/internal/modules/config"
	"bitunix_bot/internal/notify"
)

func NewClient(cfg *config.Config, n notify.Notifier) *service.Client {
	return service.NewClient(service.Options{
		BaseURL:   cfg.Exchange.BaseURL,
		APIKey:    cfg.Exchange.APIKey,
		SecretKey: cfg.Exchange.SecretKey,
		Timeout:   cfg.Exchange.Timeout,
	}, n)
}

func Module() fx.Option {
	return fx.Module("bitunix",
		fx.Provide(
			NewClient,
		),
	)
}
