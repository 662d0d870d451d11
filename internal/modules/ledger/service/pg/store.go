package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/pkg/db"
)

const (
	createLedger = `CREATE TABLE IF NOT EXISTS ledger (
	symbol     TEXT PRIMARY KEY,
	win_count  INTEGER NOT NULL DEFAULT 0,
	loss_count INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	createTrades = `CREATE TABLE IF NOT EXISTS trades (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT NOT NULL,
	qty         DOUBLE PRECISION NOT NULL,
	entry_kind  TEXT NOT NULL DEFAULT '',
	entry_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	exit_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
	pnl         DOUBLE PRECISION,
	closed_at   TIMESTAMPTZ NOT NULL
)`

	selectLedger = `SELECT win_count, loss_count FROM ledger WHERE symbol = $1`
	upsertLedger = `INSERT INTO ledger (symbol, win_count, loss_count, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (symbol) DO UPDATE SET win_count = EXCLUDED.win_count, loss_count = EXCLUDED.loss_count, updated_at = now()`
	insertTrade = `INSERT INTO trades (symbol, qty, entry_kind, entry_price, exit_price, pnl, closed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Store счётчики по символу + журнал сделок в Postgres.
type Store struct {
	db     *db.PgTxManager
	symbol string
}

func NewStore(m *db.PgTxManager, symbol string) *Store {
	return &Store{db: m, symbol: symbol}
}

// Migrate создаёт таблицы, если их нет.
func (s *Store) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Migrate: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctxTx, createLedger); err != nil {
			return err
		}
		_, err := tx.Exec(ctxTx, createTrades)
		return err
	})
}

func (s *Store) Load(ctx context.Context) (st service.Stats, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Load: %w", err)
		}
	}()
	err = s.db.Conn().QueryRow(ctx, selectLedger, s.symbol).Scan(&st.WinCount, &st.LossCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.Stats{}, nil
	}
	return st, err
}

func (s *Store) Save(ctx context.Context, st service.Stats) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Save: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, upsertLedger, s.symbol, st.WinCount, st.LossCount)
		return err
	})
}

func (s *Store) RecordTrade(ctx context.Context, t service.ClosedTrade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.RecordTrade: %w", err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, insertTrade,
		t.Symbol, t.Qty, t.EntryKind, t.EntryPrice, t.ExitPrice, t.PnL, t.ClosedAt)
	return err
}
