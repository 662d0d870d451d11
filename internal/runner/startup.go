package runner

import (
	"context"
	"fmt"
	"time"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/logger"
)

// announce стартовое сообщение с параметрами стратегии.
func (r *Runner) announce() {
	s := r.cfg.Strategy
	ev := models.Event{
		Kind:    models.EventStartup,
		Title:   "Bot started",
		Message: fmt.Sprintf("Trading %s on %s every %s", r.cfg.Exchange.Symbol, r.cfg.Market.Timeframe, r.cfg.Runner.Interval),
		At:      r.now(),
	}.
		With("leverage", fmt.Sprintf("%dx", r.cfg.Exchange.Leverage)).
		With("wallet_fraction", fmt.Sprintf("%.2f", s.WalletFraction)).
		With("rsi", fmt.Sprintf("len=%d buy>%.1f exit<%.1f", s.RSILen, s.RSIBuy, s.ExitRSI)).
		With("breakout_len", fmt.Sprintf("%d", s.BreakoutLen)).
		With("atr", fmt.Sprintf("len=%d mult=%.2f", s.ATRLen, s.ATRMult)).
		With("stop_limit_mult", fmt.Sprintf("%.2f / %.2f", s.StopMult, s.LimitMult)).
		With("window", fmt.Sprintf("%s .. %s", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))).
		With("win_rate", r.stats().String())
	r.n.Notify(ev)
	logger.Info("[RUNNER] start %s tf=%s interval=%s min_candles=%d",
		r.cfg.Exchange.Symbol, r.cfg.Market.Timeframe, r.cfg.Runner.Interval, r.minCandles)
}

// reconcileAtStartup подхватывает позицию, открытую до рестарта.
func (r *Runner) reconcileAtStartup(ctx context.Context) {
	r.cycleMu.Lock()
	defer r.cycleMu.Unlock()
	r.reconcile(ctx)
}
