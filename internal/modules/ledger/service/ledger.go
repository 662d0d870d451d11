package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bitunix_bot/pkg/logger"
)

// Stats счётчики побед/поражений.
type Stats struct {
	WinCount  int `json:"win_count"`
	LossCount int `json:"loss_count"`
}

func (s Stats) Total() int { return s.WinCount + s.LossCount }

// WinRate в процентах, 0 если сделок не было.
func (s Stats) WinRate() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.WinCount) / float64(s.Total()) * 100
}

func (s Stats) String() string {
	return fmt.Sprintf("%.2f%% (%dW/%dL)", s.WinRate(), s.WinCount, s.LossCount)
}

// apply win iff pnl > 0, ноль считается поражением.
func (s Stats) apply(pnl float64) Stats {
	if pnl > 0 {
		s.WinCount++
	} else {
		s.LossCount++
	}
	return s
}

type Store interface {
	Load(ctx context.Context) (Stats, error)
	Save(ctx context.Context, s Stats) error
}

// Journal опционально: история закрытых сделок.
type Journal interface {
	RecordTrade(ctx context.Context, t ClosedTrade) error
}

// ClosedTrade PnL nil: хотя бы один снимок баланса не получен.
type ClosedTrade struct {
	Symbol     string
	Qty        float64
	EntryKind  string
	EntryPrice float64
	ExitPrice  float64
	PnL        *float64
	ClosedAt   time.Time
}

type Ledger struct {
	store Store

	mu    sync.RWMutex
	stats Stats
}

// New загружает счётчики. Отсутствующий/битый источник не фатален: старт с нуля.
func New(ctx context.Context, store Store) *Ledger {
	l := &Ledger{store: store}
	s, err := store.Load(ctx)
	if err != nil {
		logger.Warn("[LEDGER] load failed, starting from zero: %v", err)
		s = Stats{}
	}
	l.stats = s
	return l
}

func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

// RecordClose один раз на реализованное закрытие.
// Память обновляется только после успешного сохранения.
func (l *Ledger) RecordClose(ctx context.Context, t ClosedTrade) (Stats, error) {
	if j, ok := l.store.(Journal); ok {
		if err := j.RecordTrade(ctx, t); err != nil {
			logger.Error("[LEDGER] journal: %v", err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if t.PnL == nil {
		logger.Warn("[LEDGER] pnl unknown, counters untouched")
		return l.stats, nil
	}

	next := l.stats.apply(*t.PnL)
	if err := l.store.Save(ctx, next); err != nil {
		return l.stats, fmt.Errorf("ledger save: %w", err)
	}
	l.stats = next
	return next, nil
}

// Reset обнуляет счётчики (CLI).
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Save(ctx, Stats{}); err != nil {
		return fmt.Errorf("ledger reset: %w", err)
	}
	l.stats = Stats{}
	return nil
}
