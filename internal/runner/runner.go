package runner

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"

	"bitunix_bot/internal/models"
	"bitunix_bot/internal/modules/config"
	healthsvc "bitunix_bot/internal/modules/health/service"
	marketsvc "bitunix_bot/internal/modules/market/service"
	"bitunix_bot/internal/position"
	"bitunix_bot/internal/strategy"
	"bitunix_bot/pkg/logger"
)

type Market interface {
	Candles(ctx context.Context, pair, timeframe string, limit int) ([]models.Candle, error)
}

// Account запросы к бирже, которые делает сам раннер (не стратегия).
type Account interface {
	GetBalance(ctx context.Context, marginCoin string) (float64, error)
	GetPosition(ctx context.Context, symbol, marginCoin string) (models.PositionSnapshot, error)
}

type Engine interface {
	Step(ctx context.Context, frame strategy.Frame) (strategy.Outcome, error)
	State() strategy.State
}

type Notifier interface {
	Notify(ev models.Event)
	Flush(ctx context.Context) error
}

type WinRate interface {
	String() string
}

type Deps struct {
	Config     *config.Config
	Market     Market
	Account    Account
	Engine     Engine
	Tracker    *position.Tracker
	Notifier   Notifier
	Health     *healthsvc.State
	Stream     *marketsvc.Stream // nil: поток выключен
	Shutdowner fx.Shutdowner
	// текущий винрейт для стартового сообщения
	Stats func() WinRate
}

// Runner один цикл за раз: баланс -> свечи -> индикаторы -> сверка -> стратегия.
type Runner struct {
	cfg     *config.Config
	market  Market
	account Account
	engine  Engine
	tracker *position.Tracker
	n       Notifier
	health  *healthsvc.State
	stream  *marketsvc.Stream
	stop    fx.Shutdowner
	stats   func() WinRate

	params     strategy.Params
	minCandles int
	limit      int
	now        func() time.Time

	// циклы и проверки баланса не пересекаются
	cycleMu sync.Mutex

	haltOnce sync.Once
	halted   chan struct{}

	lastErr string
}

func New(d Deps) *Runner {
	cfg := d.Config
	minCandles := cfg.MinCandles()
	limit := cfg.Market.CandleLimit
	if limit < minCandles {
		logger.Warn("[RUNNER] candle_limit %d < required %d, raising", limit, minCandles)
		limit = minCandles
	}
	stats := d.Stats
	if stats == nil {
		stats = func() WinRate { return noStats{} }
	}
	health := d.Health
	if health == nil {
		health = healthsvc.NewState()
	}
	return &Runner{
		cfg:     cfg,
		market:  d.Market,
		account: d.Account,
		engine:  d.Engine,
		tracker: d.Tracker,
		n:       d.Notifier,
		health:  health,
		stream:  d.Stream,
		stop:    d.Shutdowner,
		stats:   stats,

		params:     strategy.ParamsFrom(cfg),
		minCandles: minCandles,
		limit:      limit,
		now:        time.Now,
		halted:     make(chan struct{}),
	}
}

type noStats struct{}

func (noStats) String() string { return "n/a" }

// Halted закрывается после fail-stop.
func (r *Runner) Halted() <-chan struct{} { return r.halted }

// Run блокирует до отмены ctx или fail-stop. Первый цикл сразу, дальше по тикеру.
func (r *Runner) Run(ctx context.Context) {
	r.announce()
	r.reconcileAtStartup(ctx)

	go r.balanceLoop(ctx)

	ticker := time.NewTicker(r.cfg.Runner.Interval)
	defer ticker.Stop()

	for {
		r.runCycle(ctx)

		select {
		case <-ctx.Done():
			logger.Info("[RUNNER] stopped")
			return
		case <-r.halted:
			logger.Error("[RUNNER] halted")
			return
		case <-ticker.C:
		}
	}
}
