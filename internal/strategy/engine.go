package strategy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitunix_bot/internal/helper"
	"bitunix_bot/internal/models"
	ledger "bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/internal/position"
	"bitunix_bot/pkg/logger"
)

const (
	reasonMomentum = "RSI Mean Reversion"
	reasonBreakout = "Breakout Entry"
)

type Config struct {
	Symbol     string
	MarginCoin string
	Leverage   int

	WalletFraction    float64
	StopMult          float64
	LimitMult         float64
	RSIBuy            float64
	ExitRSI           float64
	QuantityPrecision int32

	// окно активной торговли по времени свечи, нулевые границы не ограничивают
	Start time.Time
	End   time.Time

	Heartbeat bool
}

// Engine автомат Flat -> LongViaMomentum|LongViaBreakout -> Flat.
// Step вызывается из одного цикла раннера, конкурентных вызовов нет.
type Engine struct {
	cfg     Config
	ex      Exchange
	tracker *position.Tracker
	ledger  Ledger
	n       Notifier
	now     func() time.Time
}

func NewEngine(cfg Config, ex Exchange, tracker *position.Tracker, l Ledger, n Notifier) *Engine {
	return &Engine{
		cfg:     cfg,
		ex:      ex,
		tracker: tracker,
		ledger:  l,
		n:       n,
		now:     time.Now,
	}
}

func (e *Engine) State() State { return StateOf(e.tracker.Current()) }

// Step одно решение по последней свече frame.
// Ошибки биржи уже отправлены в нотифайер клиентом; сюда возвращаются только
// ошибки, после которых цикл стоит считать неудачным.
func (e *Engine) Step(ctx context.Context, frame Frame) (Outcome, error) {
	if frame.Len() == 0 || !frame.Valid(frame.Len()-1) {
		return Outcome{State: e.State()}, fmt.Errorf("strategy.Step: latest candle has no indicators")
	}
	snap := frame.Latest()
	pos := e.tracker.Current()

	var (
		out Outcome
		err error
	)
	switch {
	case pos.IsFlat():
		err = e.evaluateEntry(ctx, snap, &out)

	case pos.IsLong():
		// трейлинг и выход решаются независимо по одному снимку, трейлинг первым
		if StateOf(pos) == StateLongViaBreakout && pos.PositionID != "" {
			e.evaluateTrail(ctx, snap, pos, &out)
		}
		if snap.RSI < e.cfg.ExitRSI {
			err = e.evaluateExit(ctx, snap, &out)
		}
	}

	out.State = e.State()
	if out.Idle() && e.cfg.Heartbeat {
		e.heartbeat(snap, out.State)
	}
	return out, err
}

func (e *Engine) inWindow(t time.Time) bool {
	if !e.cfg.Start.IsZero() && t.Before(e.cfg.Start) {
		return false
	}
	if !e.cfg.End.IsZero() && t.After(e.cfg.End) {
		return false
	}
	return true
}

func (e *Engine) evaluateEntry(ctx context.Context, snap Snapshot, out *Outcome) error {
	momentum := snap.RSI > e.cfg.RSIBuy
	breakout := snap.Close > snap.Breakout
	if !momentum && !breakout {
		return nil
	}
	if !e.inWindow(snap.Time) {
		logger.Debug("[STRATEGY] signal at %s outside trading window, skip", snap.Time.Format(time.RFC3339))
		return nil
	}

	var reasons []string
	kind := models.EntryBreakout
	if momentum {
		reasons = append(reasons, reasonMomentum)
		kind = models.EntryMomentum
	}
	if breakout {
		reasons = append(reasons, reasonBreakout)
	}
	reason := strings.Join(reasons, " & ")
	out.Reason = reason
	logger.Info("[STRATEGY] open signal (%s): %s", reason, snap)

	balance, err := e.ex.GetBalance(ctx, e.cfg.MarginCoin)
	if err != nil {
		logger.Warn("[STRATEGY] balance for sizing is stale: %v", err)
	}
	qty, err := PositionSize(balance, e.cfg.WalletFraction, e.cfg.Leverage, snap.Close, e.cfg.QuantityPrecision)
	if err != nil {
		return err
	}
	if qty <= 0 {
		logger.Info("[STRATEGY] size rounds to zero (balance=%.4f), skip entry", balance)
		return nil
	}

	res, err := e.ex.PlaceOrder(ctx, models.OrderRequest{
		Symbol:     e.cfg.Symbol,
		MarginCoin: e.cfg.MarginCoin,
		Side:       models.OpenLong,
		Qty:        qty,
		Leverage:   e.cfg.Leverage,
	})
	if err != nil {
		// клиент уже сообщил детали запроса
		logger.Error("[STRATEGY] open long failed: %v", err)
		return nil
	}

	positionID := res.PositionID
	if positionID == "" {
		// в ответе place_order positionId бывает пустым, спрашиваем позицию
		p, perr := e.ex.GetPosition(ctx, e.cfg.Symbol, e.cfg.MarginCoin)
		if perr == nil && p.Side == models.SideLong {
			positionID = p.PositionID
			if p.Qty > 0 {
				qty = p.Qty
			}
		}
	}

	e.n.Notify(models.Event{
		Kind:    models.EventOpenSuccess,
		Title:   "Open long",
		Message: fmt.Sprintf("Opened long %s %s", helper.FormatQty(qty, e.cfg.QuantityPrecision), e.cfg.Symbol),
		At:      e.now(),
	}.
		With("side", string(models.SideLong)).
		With("qty", helper.FormatQty(qty, e.cfg.QuantityPrecision)).
		With("entry_price", helper.FormatPrice(snap.Close)).
		With("signal", reason))

	if positionID == "" {
		// позиция на бирже есть, но без id её не закрыть; сверка подхватит её в следующем цикле
		e.n.Notify(models.Event{
			Kind:    models.EventError,
			Title:   "Position id unknown",
			Message: "Long opened but exchange returned no positionId, TP/SL not placed",
			At:      e.now(),
		})
		out.Actions = append(out.Actions, ActionOpen)
		return nil
	}

	stop := snap.Close - snap.ATR*e.cfg.StopMult
	tpsl := models.TPSL{Stop: &stop}
	if kind == models.EntryMomentum {
		limit := snap.Close + snap.ATR*e.cfg.LimitMult
		tpsl.Limit = &limit
	}
	if err := e.ex.PlaceConditionalOrders(ctx, e.cfg.Symbol, e.cfg.MarginCoin, positionID, tpsl); err != nil {
		// позиция открыта без стопа; для breakout трейлинг выставит его заново
		logger.Error("[STRATEGY] tp/sl for %s failed: %v", positionID, err)
		stop = 0
	}

	if err := e.tracker.RecordOpen(models.SideLong, qty, positionID, kind, stop, snap.Close); err != nil {
		return err
	}
	out.Actions = append(out.Actions, ActionOpen)
	return nil
}

func (e *Engine) evaluateTrail(ctx context.Context, snap Snapshot, pos models.Position, out *Outcome) {
	candidate := snap.Close - snap.ATR*e.cfg.StopMult
	if candidate <= 0 || (pos.HasStop && candidate <= pos.Stop) {
		return
	}

	tpsl := models.TPSL{Stop: &candidate}
	var err error
	if pos.HasStop {
		err = e.ex.ModifyConditionalOrders(ctx, e.cfg.Symbol, pos.PositionID, tpsl)
	} else {
		// первичный стоп не встал при открытии
		err = e.ex.PlaceConditionalOrders(ctx, e.cfg.Symbol, e.cfg.MarginCoin, pos.PositionID, tpsl)
	}
	if err != nil {
		e.n.Notify(models.Event{
			Kind:    models.EventError,
			Title:   "Trailing stop update failed",
			Message: fmt.Sprintf("Position %s: stop %s not applied: %v", pos.PositionID, helper.FormatPrice(candidate), err),
			At:      e.now(),
		})
		return
	}

	if !e.tracker.AdvanceStop(candidate) {
		return
	}
	out.Actions = append(out.Actions, ActionTrail)
	e.n.Notify(models.Event{
		Kind:    models.EventStatus,
		Title:   "Trailing stop moved",
		Message: fmt.Sprintf("Position %s new stop %s", pos.PositionID, helper.FormatPrice(candidate)),
		At:      e.now(),
	}.
		With("previous_stop", helper.FormatPrice(pos.Stop)).
		With("stop", helper.FormatPrice(candidate)))
}

func (e *Engine) evaluateExit(ctx context.Context, snap Snapshot, out *Outcome) error {
	pos := e.tracker.Current()
	if pos.Qty <= 0 || pos.PositionID == "" {
		logger.Warn("[STRATEGY] exit signal but no closable position: %+v", pos)
		return nil
	}
	logger.Info("[STRATEGY] exit signal rsi=%.2f < %.2f", snap.RSI, e.cfg.ExitRSI)

	before, beforeErr := e.ex.GetBalance(ctx, e.cfg.MarginCoin)

	_, err := e.ex.PlaceOrder(ctx, models.OrderRequest{
		Symbol:     e.cfg.Symbol,
		MarginCoin: e.cfg.MarginCoin,
		Side:       models.CloseLong,
		Qty:        pos.Qty,
		Leverage:   e.cfg.Leverage,
		PositionID: pos.PositionID,
	})
	if err != nil {
		logger.Error("[STRATEGY] close long failed, will retry next cycle: %v", err)
		return nil
	}

	after, afterErr := e.ex.GetBalance(ctx, e.cfg.MarginCoin)
	var pnl *float64
	if beforeErr == nil && afterErr == nil {
		v := after - before
		pnl = &v
	}

	stats, lerr := e.ledger.RecordClose(ctx, ledger.ClosedTrade{
		Symbol:     e.cfg.Symbol,
		Qty:        pos.Qty,
		EntryKind:  string(pos.EntryKind),
		EntryPrice: pos.EntryPrice,
		ExitPrice:  snap.Close,
		PnL:        pnl,
		ClosedAt:   e.now(),
	})
	if lerr != nil {
		logger.Error("[STRATEGY] ledger: %v", lerr)
		e.n.Notify(models.Event{
			Kind:    models.EventError,
			Title:   "Ledger update failed",
			Message: lerr.Error(),
			At:      e.now(),
		})
		stats = e.ledger.Stats()
	}

	e.tracker.RecordClose()
	out.Actions = append(out.Actions, ActionClose)
	out.PnL = pnl

	pnlText := "unknown"
	if pnl != nil {
		pnlText = fmt.Sprintf("%.4f", *pnl)
	}
	e.n.Notify(models.Event{
		Kind:    models.EventCloseSuccess,
		Title:   "Close long",
		Message: fmt.Sprintf("Closed long %s %s, pnl %s", helper.FormatQty(pos.Qty, e.cfg.QuantityPrecision), e.cfg.Symbol, pnlText),
		At:      e.now(),
	}.
		With("side", string(models.SideLong)).
		With("qty", helper.FormatQty(pos.Qty, e.cfg.QuantityPrecision)).
		With("exit_price", helper.FormatPrice(snap.Close)).
		With("pnl", pnlText).
		With("win_rate", stats.String()))
	return nil
}

func (e *Engine) heartbeat(snap Snapshot, st State) {
	pos := e.tracker.Current()
	ev := models.Event{
		Kind:    models.EventStatus,
		Title:   "Status",
		Message: fmt.Sprintf("%s %s, no action", e.cfg.Symbol, st),
		At:      e.now(),
	}.
		With("close", helper.FormatPrice(snap.Close)).
		With("rsi", fmt.Sprintf("%.2f", snap.RSI)).
		With("atr", fmt.Sprintf("%.4f", snap.ATR)).
		With("breakout", helper.FormatPrice(snap.Breakout)).
		With("win_rate", e.ledger.Stats().String())
	if !pos.IsFlat() {
		ev = ev.With("qty", helper.FormatQty(pos.Qty, e.cfg.QuantityPrecision))
		if pos.HasStop {
			ev = ev.With("stop", helper.FormatPrice(pos.Stop))
		}
	}
	e.n.Notify(ev)
}
