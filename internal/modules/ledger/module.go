package ledger

import (
	"context"

	"go.uber.org/fx"

	"bitunix_bot/internal/modules/config"
	"bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/internal/modules/ledger/service/file"
	"bitunix_bot/internal/modules/ledger/service/pg"
	"bitunix_bot/internal/modules/postgres"
	"bitunix_bot/pkg/db"
)

func NewLedger(store service.Store) *service.Ledger {
	return service.New(context.Background(), store)
}

func newFileStore(cfg *config.Config) service.Store {
	return file.NewStore(cfg.Ledger.File)
}

func newPgStore(cfg *config.Config, m *db.PgTxManager) (service.Store, error) {
	s := pg.NewStore(m, cfg.Exchange.Symbol)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.Timeout)
	defer cancel()
	if err := s.Migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Module backend выбирается по ledger.backend.
func Module(cfg *config.Config) fx.Option {
	store := fx.Provide(newFileStore)
	if cfg.Ledger.Backend == "postgres" {
		store = fx.Options(postgres.Module(), fx.Provide(newPgStore))
	}
	return fx.Module("ledger",
		store,
		fx.Provide(NewLedger),
	)
}
