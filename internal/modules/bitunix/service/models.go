package service

import (
	"strconv"
	"strings"
)

// flexFloat Bitunix отдаёт числа то строкой, то числом.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type placeOrderBody struct {
	Symbol     string `json:"symbol"`
	MarginCoin string `json:"marginCoin"`
	Qty        string `json:"qty"`
	Side       string `json:"side"`
	TradeSide  string `json:"tradeSide"`
	OrderType  string `json:"orderType"`
	Effect     string `json:"effect"`
	PositionID string `json:"positionId,omitempty"`
}

type placeOrderData struct {
	OrderID    string `json:"orderId"`
	ClientID   string `json:"clientId"`
	PositionID string `json:"positionId"`
}

type tpslBody struct {
	Symbol     string `json:"symbol"`
	PositionID string `json:"positionId"`
	SlPrice    string `json:"slPrice,omitempty"`
	SlStopType string `json:"slStopType,omitempty"`
	TpPrice    string `json:"tpPrice,omitempty"`
	TpStopType string `json:"tpStopType,omitempty"`
}

type pendingPosition struct {
	PositionID    string    `json:"positionId"`
	Symbol        string    `json:"symbol"`
	Qty           flexFloat `json:"qty"`
	Side          string    `json:"side"`
	UnrealizedPNL flexFloat `json:"unrealizedPNL"`
	AvgOpenPrice  flexFloat `json:"avgOpenPrice"`
	Margin        flexFloat `json:"margin"`
}

type accountData struct {
	MarginCoin             string    `json:"marginCoin"`
	Available              flexFloat `json:"available"`
	Margin                 flexFloat `json:"margin"`
	CrossUnrealizedPNL     flexFloat `json:"crossUnrealizedPNL"`
	IsolationUnrealizedPNL flexFloat `json:"isolationUnrealizedPNL"`
}
