package service

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"

	"bitunix_bot/internal/helper"
	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
	"bitunix_bot/pkg/logger"
)

const (
	placeOrderPath = "/api/v1/futures/trade/place_order"

	// qty уже округлён сайзингом, здесь только убираем хвосты float
	qtyWireDecimals = 8
)

// PlaceOrder рыночный ордер. Не идемпотентен: повторять вслепую нельзя.
// Плечо на Bitunix задаётся на аккаунте, здесь только логируется.
func (c *Client) PlaceOrder(ctx context.Context, r models.OrderRequest) (res models.OrderResult, err error) {
	const op = "PlaceOrder"

	side, tradeSide, ok := r.Side.Wire()
	if !ok {
		err = errs.New(errs.KindInvalidInput, op, "unsupported side %q", r.Side)
		c.report(op, r, err)
		return res, err
	}
	if r.Qty <= 0 {
		err = errs.New(errs.KindInvalidInput, op, "qty must be > 0, got %v", r.Qty)
		c.report(op, r, err)
		return res, err
	}
	if r.Side.IsClose() && r.PositionID == "" {
		err = errs.New(errs.KindInvalidInput, op, "%s requires positionId", r.Side)
		c.report(op, r, err)
		return res, err
	}

	body := placeOrderBody{
		Symbol:     r.Symbol,
		MarginCoin: r.MarginCoin,
		Qty:        helper.FormatQty(r.Qty, qtyWireDecimals),
		Side:       side,
		TradeSide:  tradeSide,
		OrderType:  "MARKET",
		Effect:     "GTC",
	}
	if r.Side.IsClose() {
		body.PositionID = r.PositionID
	}

	logger.Info("[BITUNIX] %s %s qty=%s lev=%dx", r.Side, r.Symbol, body.Qty, r.Leverage)

	data, err := c.do(ctx, op, http.MethodPost, placeOrderPath, nil, body)
	if err != nil {
		c.report(op, body, err)
		return res, err
	}

	var d placeOrderData
	if len(data) > 0 && string(data) != "null" {
		if err = sonic.Unmarshal(data, &d); err != nil {
			err = errs.New(errs.KindMalformedResponse, op, "decode data: %v; RAW=%s", err, string(data))
			c.report(op, body, err)
			return res, err
		}
	}

	return models.OrderResult{OrderID: d.OrderID, PositionID: d.PositionID}, nil
}
