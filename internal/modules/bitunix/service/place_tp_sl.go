package service

import (
	"context"
	"net/http"

	"bitunix_bot/internal/helper"
	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

const (
	placeTpSlPath  = "/api/v1/futures/tpsl/position/place_order"
	modifyTpSlPath = "/api/v1/futures/tpsl/modify_position_tp_sl_order"

	// триггер по последней цене сделки
	stopTypeLastPrice = "LAST_PRICE"
)

// PlaceConditionalOrders TP/SL на позицию. Нужна хотя бы одна цена.
// marginCoin в теле не нужен, но оставлен в сигнатуре как у остальных операций.
func (c *Client) PlaceConditionalOrders(
	ctx context.Context,
	symbol string,
	_ string,
	positionID string,
	tpsl models.TPSL,
) error {
	return c.tpsl(ctx, "PlaceConditionalOrders", placeTpSlPath, symbol, positionID, tpsl)
}

// ModifyConditionalOrders заменяет ранее выставленные триггеры позиции (трейлинг).
func (c *Client) ModifyConditionalOrders(
	ctx context.Context,
	symbol string,
	positionID string,
	tpsl models.TPSL,
) error {
	return c.tpsl(ctx, "ModifyConditionalOrders", modifyTpSlPath, symbol, positionID, tpsl)
}

func (c *Client) tpsl(ctx context.Context, op, path, symbol, positionID string, tpsl models.TPSL) error {
	body := tpslBody{Symbol: symbol, PositionID: positionID}

	if tpsl.Empty() {
		err := errs.New(errs.KindInvalidInput, op, "no price supplied")
		c.report(op, body, err)
		return err
	}
	if positionID == "" {
		err := errs.New(errs.KindInvalidInput, op, "positionId is empty")
		c.report(op, body, err)
		return err
	}
	if tpsl.Stop != nil {
		if *tpsl.Stop <= 0 {
			err := errs.New(errs.KindInvalidInput, op, "stop price must be > 0, got %v", *tpsl.Stop)
			c.report(op, body, err)
			return err
		}
		body.SlPrice = helper.FormatPrice(*tpsl.Stop)
		body.SlStopType = stopTypeLastPrice
	}
	if tpsl.Limit != nil {
		if *tpsl.Limit <= 0 {
			err := errs.New(errs.KindInvalidInput, op, "limit price must be > 0, got %v", *tpsl.Limit)
			c.report(op, body, err)
			return err
		}
		body.TpPrice = helper.FormatPrice(*tpsl.Limit)
		body.TpStopType = stopTypeLastPrice
	}

	if _, err := c.do(ctx, op, http.MethodPost, path, nil, body); err != nil {
		c.report(op, body, err)
		return err
	}
	return nil
}
