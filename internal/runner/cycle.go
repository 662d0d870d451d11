package runner

import (
	"context"
	"errors"
	"fmt"

	"bitunix_bot/internal/models"
	"bitunix_bot/internal/position"
	"bitunix_bot/internal/strategy"
	"bitunix_bot/pkg/errs"
	"bitunix_bot/pkg/logger"
	"bitunix_bot/pkg/tracing"
)

var errHalted = errors.New("runner halted")

func (r *Runner) runCycle(ctx context.Context) {
	err := r.Cycle(ctx)
	ok := err == nil
	r.health.TouchCycle(r.now(), ok)

	switch {
	case ok:
		r.lastErr = ""
		r.health.SetReady(true)
	case errors.Is(err, errHalted):
	default:
		logger.Error("[RUNNER] cycle: %v", err)
		r.health.SetError(err.Error())
		// одна и та же ошибка каждый цикл не спамит
		if msg := err.Error(); msg != r.lastErr {
			r.lastErr = msg
			r.n.Notify(models.Event{
				Kind:    models.EventError,
				Title:   "Cycle failed",
				Message: msg,
				At:      r.now(),
			}.With("kind", string(errs.KindOf(err))))
		}
	}
}

// Cycle один полный проход. Паника внутри цикла превращается в ошибку.
func (r *Runner) Cycle(ctx context.Context) (err error) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()

	ctx, finish := tracing.StartSpan(ctx, "runner.cycle")
	defer func() { finish(err) }()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cycle panic: %v", p)
		}
	}()

	if r.isHalted() {
		return errHalted
	}
	if !r.checkBalance(ctx) {
		return errHalted
	}

	candles, err := r.market.Candles(ctx, r.cfg.Market.TradingPair, r.cfg.Market.Timeframe, r.limit)
	if err != nil {
		return fmt.Errorf("candles: %w", err)
	}
	if len(candles) < r.minCandles {
		return errs.New(errs.KindInsufficientData, "Cycle", "got %d candles, need %d", len(candles), r.minCandles)
	}

	frame, err := strategy.Compute(candles, r.params)
	if err != nil {
		return err
	}
	snap := frame.Latest()
	r.health.SetPrice(snap.Close)
	r.observeStream()
	logger.Info("[RUNNER] %s %s", r.cfg.Exchange.Symbol, snap)

	r.reconcile(ctx)

	out, err := r.engine.Step(ctx, frame)
	pos := r.tracker.Current()
	r.health.SetPosition(string(pos.Side), out.State.String())
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if !out.Idle() {
		logger.Info("[RUNNER] actions=%v state=%s", out.Actions, out.State)
	}
	return nil
}

func (r *Runner) observeStream() {
	if r.stream == nil {
		return
	}
	r.health.SetStreamConnected(r.stream.Connected())
	if px, _, ok := r.stream.LastPrice(); ok {
		r.health.SetPrice(px)
	}
}

// reconcile сверка трекера с биржей. Ошибка запроса не трогает состояние.
func (r *Runner) reconcile(ctx context.Context) {
	snap, err := r.account.GetPosition(ctx, r.cfg.Exchange.Symbol, r.cfg.Exchange.MarginCoin)
	res, prev := r.tracker.Reconcile(snap, err)

	switch res {
	case position.QueryFailed:
		logger.Warn("[RUNNER] position query failed, keeping %+v: %v", prev, err)

	case position.ClosedExternally:
		// SL/TP сработал на бирже; PnL не знаем, счётчики не трогаем
		logger.Info("[RUNNER] position %s closed on exchange", prev.PositionID)
		r.n.Notify(models.Event{
			Kind:    models.EventStatus,
			Title:   "Position closed on exchange",
			Message: fmt.Sprintf("Position %s is no longer open (stop or take profit hit)", prev.PositionID),
			At:      r.now(),
		}.With("qty", fmt.Sprintf("%g", prev.Qty)))

	case position.Adopted:
		cur := r.tracker.Current()
		logger.Warn("[RUNNER] adopted exchange position %+v", cur)
		r.n.Notify(models.Event{
			Kind:    models.EventStatus,
			Title:   "Position adopted",
			Message: fmt.Sprintf("Tracking %s position %s qty %g found on exchange", cur.Side, cur.PositionID, cur.Qty),
			At:      r.now(),
		}.With("unrealized_pnl", fmt.Sprintf("%.4f", snap.UnrealizedPnL)))

	case position.Refreshed:
		logger.Info("[RUNNER] position qty %g -> %g", prev.Qty, snap.Qty)
	}
}
