package models

import "time"

type Side string

const (
	SideNone  Side = ""
	SideLong  Side = "long"
	SideShort Side = "short"
)

// EntryKind каким сигналом открыта позиция.
type EntryKind string

const (
	EntryNone     EntryKind = ""
	EntryMomentum EntryKind = "momentum"
	EntryBreakout EntryKind = "breakout"
)

// Position то, что бот считает открытым. Меняется только через position.Tracker.
type Position struct {
	Side       Side
	Qty        float64
	PositionID string
	EntryKind  EntryKind
	Stop       float64
	HasStop    bool
	EntryPrice float64
	OpenedAt   time.Time
}

func (p Position) IsFlat() bool { return p.Side == SideNone }
func (p Position) IsLong() bool { return p.Side == SideLong }

// Valid side=none <=> qty=0 <=> нет positionId.
func (p Position) Valid() bool {
	flat := p.Side == SideNone
	return flat == (p.Qty == 0) && flat == (p.PositionID == "")
}

// PositionSnapshot позиция по данным биржи.
type PositionSnapshot struct {
	Side          Side
	Qty           float64
	PositionID    string
	UnrealizedPnL float64
	AvgOpenPrice  float64
	Margin        float64
}

func (s PositionSnapshot) IsFlat() bool { return s.Side == SideNone }

// AccountSnapshot баланс по марже.
type AccountSnapshot struct {
	Available     float64
	Margin        float64
	UnrealizedPnL float64
}

func (a AccountSnapshot) Equity() float64 { return a.Available + a.Margin + a.UnrealizedPnL }
