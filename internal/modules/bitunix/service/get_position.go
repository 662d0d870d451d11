package service

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

const pendingPositionsPath = "/api/v1/futures/position/get_pending_positions"

// GetPosition первая позиция с qty>0 и side BUY/SELL.
// При любом отказе возвращает пустой снимок и ошибку: снимок всегда можно
// использовать как "позиция неизвестна", а трекер по ошибке понимает, что сверять нельзя.
// marginCoin эндпоинту не нужен, параметр для единообразия с GetBalance.
func (c *Client) GetPosition(ctx context.Context, symbol, _ string) (models.PositionSnapshot, error) {
	const op = "GetPosition"

	query := map[string]string{"symbol": symbol}
	data, err := c.do(ctx, op, http.MethodGet, pendingPositionsPath, query, nil)
	if err != nil {
		c.report(op, query, err)
		return models.PositionSnapshot{}, err
	}

	var list []pendingPosition
	if len(data) > 0 && string(data) != "null" {
		if err := sonic.Unmarshal(data, &list); err != nil {
			err = errs.New(errs.KindMalformedResponse, op, "decode data: %v; RAW=%s", err, string(data))
			c.report(op, query, err)
			return models.PositionSnapshot{}, err
		}
	}

	for _, p := range list {
		if float64(p.Qty) <= 0 {
			continue
		}
		var side models.Side
		switch p.Side {
		case "BUY":
			side = models.SideLong
		case "SELL":
			side = models.SideShort
		default:
			continue
		}
		return models.PositionSnapshot{
			Side:          side,
			Qty:           float64(p.Qty),
			PositionID:    p.PositionID,
			UnrealizedPnL: float64(p.UnrealizedPNL),
			AvgOpenPrice:  float64(p.AvgOpenPrice),
			Margin:        float64(p.Margin),
		}, nil
	}
	return models.PositionSnapshot{}, nil
}
