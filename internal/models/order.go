package models

type OrderSide string

const (
	OpenLong   OrderSide = "open_long"
	CloseLong  OrderSide = "close_long"
	OpenShort  OrderSide = "open_short"
	CloseShort OrderSide = "close_short"
)

// Wire side/tradeSide в терминах Bitunix.
func (s OrderSide) Wire() (side, tradeSide string, ok bool) {
	switch s {
	case OpenLong:
		return "BUY", "OPEN", true
	case CloseLong:
		return "SELL", "CLOSE", true
	case OpenShort:
		return "SELL", "OPEN", true
	case CloseShort:
		return "BUY", "CLOSE", true
	}
	return "", "", false
}

func (s OrderSide) IsClose() bool { return s == CloseLong || s == CloseShort }

type OrderRequest struct {
	Symbol     string
	MarginCoin string
	Side       OrderSide
	Qty        float64
	Leverage   int
	PositionID string // только для close_*
}

type OrderResult struct {
	OrderID    string
	PositionID string
}

// TPSL триггеры условных ордеров; nil = не задан.
type TPSL struct {
	Stop  *float64
	Limit *float64
}

func (t TPSL) Empty() bool { return t.Stop == nil && t.Limit == nil }
