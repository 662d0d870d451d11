package helper

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// интервалы, которые понимает Binance USDⓈ-M klines
var intervals = map[string]time.Duration{
	"1m":  time.Minute,
	"3m":  3 * time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"2h":  2 * time.Hour,
	"4h":  4 * time.Hour,
	"6h":  6 * time.Hour,
	"8h":  8 * time.Hour,
	"12h": 12 * time.Hour,
	"1d":  24 * time.Hour,
	"3d":  72 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

// NormTF приводит таймфрейм к виду Binance ("60m" -> "1h", "4H" -> "4h").
// Второе значение false, если такого интервала нет.
func NormTF(raw string) (string, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m":
		s = "1h"
	case "240m":
		s = "4h"
	case "24h":
		s = "1d"
	}
	_, ok := intervals[s]
	return s, ok
}

// TFDuration длительность свечи; 0 для неизвестного интервала.
func TFDuration(tf string) time.Duration {
	s, _ := NormTF(tf)
	return intervals[s]
}

// RoundQty округляет до precision знаков, половина от нуля (1.0005 -> 1.001 при p=3).
func RoundQty(v float64, precision int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(precision).Float64()
	return f
}

// FormatQty строка без экспоненты и лишних нулей, как ждёт биржа.
func FormatQty(v float64, precision int32) string {
	return decimal.NewFromFloat(v).Round(precision).String()
}

// FormatPrice цена для TP/SL, не больше 8 знаков.
func FormatPrice(px float64) string {
	return decimal.NewFromFloat(px).Round(8).String()
}
