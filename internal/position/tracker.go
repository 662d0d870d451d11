package position

import (
	"sync"
	"time"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

// Tracker единственный источник "что мы считаем открытым".
// Мутирует только стратегия, поэтому мьютекс нужен лишь для чтения из health/статуса.
type Tracker struct {
	mu  sync.RWMutex
	pos models.Position
}

func NewTracker() *Tracker { return &Tracker{} }

func (t *Tracker) Current() models.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pos
}

// RecordOpen фиксирует открытие. stop <= 0: стоп не выставлен.
func (t *Tracker) RecordOpen(
	side models.Side,
	qty float64,
	positionID string,
	kind models.EntryKind,
	stop float64,
	entryPrice float64,
) error {
	const op = "RecordOpen"
	if side == models.SideNone || qty <= 0 || positionID == "" {
		return errs.New(errs.KindInvalidInput, op, "side=%q qty=%v positionId=%q", side, qty, positionID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = models.Position{
		Side:       side,
		Qty:        qty,
		PositionID: positionID,
		EntryKind:  kind,
		Stop:       stop,
		HasStop:    stop > 0,
		EntryPrice: entryPrice,
		OpenedAt:   time.Now(),
	}
	return nil
}

func (t *Tracker) RecordClose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pos = models.Position{}
}

// AdvanceStop только для long и только строго выше текущего стопа.
// false: ничего не изменилось.
func (t *Tracker) AdvanceStop(newStop float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pos.Side != models.SideLong || newStop <= 0 {
		return false
	}
	if t.pos.HasStop && newStop <= t.pos.Stop {
		return false
	}
	t.pos.Stop = newStop
	t.pos.HasStop = true
	return true
}

type ReconcileResult int

const (
	Unchanged ReconcileResult = iota
	// ошибка запроса: состояние не тронуто
	QueryFailed
	// биржа flat, а мы считали long: сработал SL/TP
	ClosedExternally
	// позиция есть на бирже, а у нас flat (рестарт)
	Adopted
	// обновили qty/positionId
	Refreshed
)

func (r ReconcileResult) String() string {
	switch r {
	case QueryFailed:
		return "query_failed"
	case ClosedExternally:
		return "closed_externally"
	case Adopted:
		return "adopted"
	case Refreshed:
		return "refreshed"
	}
	return "unchanged"
}

// Reconcile сверка с биржей. При ошибке запроса ничего не меняем:
// временный отказ не должен выглядеть как "позиции нет".
func (t *Tracker) Reconcile(snap models.PositionSnapshot, queryErr error) (ReconcileResult, models.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.pos
	if queryErr != nil {
		return QueryFailed, prev
	}

	switch {
	case snap.IsFlat() && prev.IsFlat():
		return Unchanged, prev

	case snap.IsFlat():
		t.pos = models.Position{}
		return ClosedExternally, prev

	case prev.IsFlat():
		t.pos = models.Position{
			Side:       snap.Side,
			Qty:        snap.Qty,
			PositionID: snap.PositionID,
			EntryPrice: snap.AvgOpenPrice,
			OpenedAt:   time.Now(),
		}
		return Adopted, prev

	case prev.Side != snap.Side || prev.PositionID != snap.PositionID:
		// другая позиция: вид входа и стоп к ней не относятся
		t.pos = models.Position{
			Side:       snap.Side,
			Qty:        snap.Qty,
			PositionID: snap.PositionID,
			EntryPrice: snap.AvgOpenPrice,
			OpenedAt:   time.Now(),
		}
		return Adopted, prev

	case prev.Qty != snap.Qty:
		t.pos.Qty = snap.Qty
		return Refreshed, prev
	}
	return Unchanged, prev
}
