package strategy

import (
	"github.com/shopspring/decimal"

	"bitunix_bot/pkg/errs"
)

// PositionSize = round(balance*fraction*leverage/price, precision).
// Округление half away from zero (1.0005 при p=3 -> 1.001).
// Результат <= 0 не ошибка: вход просто пропускается.
func PositionSize(balance, fraction float64, leverage int, price float64, precision int32) (float64, error) {
	const op = "PositionSize"
	if price <= 0 {
		return 0, errs.New(errs.KindInvalidInput, op, "price must be > 0, got %v", price)
	}
	if fraction <= 0 || fraction > 1 {
		return 0, errs.New(errs.KindInvalidInput, op, "wallet fraction must be in (0,1], got %v", fraction)
	}
	if leverage <= 0 {
		return 0, errs.New(errs.KindInvalidInput, op, "leverage must be > 0, got %d", leverage)
	}
	if balance <= 0 {
		return 0, nil
	}

	size := decimal.NewFromFloat(balance).
		Mul(decimal.NewFromFloat(fraction)).
		Mul(decimal.NewFromInt(int64(leverage))).
		DivRound(decimal.NewFromFloat(price), precision+8).
		Round(precision)

	qty, _ := size.Float64()
	if qty <= 0 {
		return 0, nil
	}
	return qty, nil
}
