package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	"bitunix_bot/pkg/db"
)

// NewTxManager пул к DATABASE_DSN, закрывается на остановке приложения.
func NewTxManager(lc fx.Lifecycle, cfg *config.Config) (*db.PgTxManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.Timeout)
	defer cancel()

	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN: cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.StopHook(m.Close))
	return m, nil
}

// Module подключается только при ledger.backend=postgres.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(NewTxManager),
	)
}
