package service

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
	"bitunix_bot/pkg/logger"
)

const accountPath = "/api/v1/futures/account"

// Account снимок счёта по марже.
func (c *Client) Account(ctx context.Context, marginCoin string) (models.AccountSnapshot, error) {
	const op = "Account"

	query := map[string]string{"marginCoin": marginCoin}
	data, err := c.do(ctx, op, http.MethodGet, accountPath, query, nil)
	if err != nil {
		c.report(op, query, err)
		return models.AccountSnapshot{}, err
	}

	// пустой data не значит нулевой баланс: кэш не трогаем
	if len(data) == 0 || string(data) == "null" {
		err = errs.New(errs.KindMalformedResponse, op, "empty data")
		c.report(op, query, err)
		return models.AccountSnapshot{}, err
	}

	// data бывает объектом или списком из одного элемента
	var acc accountData
	if err := sonic.Unmarshal(data, &acc); err != nil {
		var list []accountData
		if lErr := sonic.Unmarshal(data, &list); lErr != nil || len(list) == 0 {
			err = errs.New(errs.KindMalformedResponse, op, "decode data: %v; RAW=%s", err, string(data))
			c.report(op, query, err)
			return models.AccountSnapshot{}, err
		}
		acc = list[0]
	}

	snap := models.AccountSnapshot{
		Available:     float64(acc.Available),
		Margin:        float64(acc.Margin),
		UnrealizedPnL: float64(acc.CrossUnrealizedPNL) + float64(acc.IsolationUnrealizedPNL),
	}

	c.mu.Lock()
	c.lastBalance = snap.Available
	c.hasBalance = true
	c.mu.Unlock()

	return snap, nil
}

// GetBalance доступный баланс. При отказе отдаёт последний удачный
// (кэш) вместе с ошибкой, чтобы не остановиться по ложному "баланс кончился".
func (c *Client) GetBalance(ctx context.Context, marginCoin string) (float64, error) {
	snap, err := c.Account(ctx, marginCoin)
	if err != nil {
		last, ok := c.LastBalance()
		if ok {
			logger.Warn("[BITUNIX] balance fallback to cached %.4f: %v", last, err)
		}
		return last, err
	}
	return snap.Available, nil
}

// LastBalance последний удачно полученный баланс.
func (c *Client) LastBalance() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBalance, c.hasBalance
}
