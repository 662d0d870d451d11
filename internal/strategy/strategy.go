package strategy

import (
	"context"

	"bitunix_bot/internal/models"
	ledger "bitunix_bot/internal/modules/ledger/service"
)

// State производное от позиции, отдельно не хранится.
type State int

const (
	StateFlat State = iota
	StateLongViaMomentum
	StateLongViaBreakout
	// шорт описан в типах, но движок его не открывает
	StateShort
)

func (s State) String() string {
	switch s {
	case StateLongViaMomentum:
		return "LongViaMomentum"
	case StateLongViaBreakout:
		return "LongViaBreakout"
	case StateShort:
		return "Short"
	}
	return "Flat"
}

// StateOf лонг без известного вида входа (подхвачен с биржи) ведём как momentum:
// трейлинга нет, работает только выход по RSI.
func StateOf(p models.Position) State {
	switch p.Side {
	case models.SideLong:
		if p.EntryKind == models.EntryBreakout {
			return StateLongViaBreakout
		}
		return StateLongViaMomentum
	case models.SideShort:
		return StateShort
	}
	return StateFlat
}

// Exchange торговые операции, нужные движку.
type Exchange interface {
	PlaceOrder(ctx context.Context, r models.OrderRequest) (models.OrderResult, error)
	PlaceConditionalOrders(ctx context.Context, symbol, marginCoin, positionID string, tpsl models.TPSL) error
	ModifyConditionalOrders(ctx context.Context, symbol, positionID string, tpsl models.TPSL) error
	GetPosition(ctx context.Context, symbol, marginCoin string) (models.PositionSnapshot, error)
	GetBalance(ctx context.Context, marginCoin string) (float64, error)
}

type Ledger interface {
	RecordClose(ctx context.Context, t ledger.ClosedTrade) (ledger.Stats, error)
	Stats() ledger.Stats
}

type Notifier interface {
	Notify(ev models.Event)
}

// Action что сделано за цикл.
type Action string

const (
	ActionNone  Action = "none"
	ActionOpen  Action = "open"
	ActionTrail Action = "trail"
	ActionClose Action = "close"
)

// Outcome итог одного Step.
type Outcome struct {
	Actions []Action
	State   State
	Reason  string
	PnL     *float64
}

func (o Outcome) Did(a Action) bool {
	for _, x := range o.Actions {
		if x == a {
			return true
		}
	}
	return false
}

func (o Outcome) Idle() bool { return len(o.Actions) == 0 }
