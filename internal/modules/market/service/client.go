package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

// Client свечи USDⓈ-M фьючерсов Binance (публичные, без ключей).
type Client struct {
	fut *futures.Client
}

// NewClient baseURL пустой: боевой fapi.binance.com.
func NewClient(baseURL string) *Client {
	fut := futures.NewClient("", "")
	if baseURL != "" {
		fut.BaseURL = baseURL
	}
	return &Client{fut: fut}
}

// Symbol "ETH/USDT" -> "ETHUSDT".
func Symbol(pair string) string {
	return strings.ToUpper(strings.NewReplacer("/", "", "-", "", "_", "").Replace(pair))
}

// Candles по возрастанию времени, без дублей. Последняя свеча может быть ещё не закрыта.
func (c *Client) Candles(ctx context.Context, pair, timeframe string, limit int) ([]models.Candle, error) {
	const op = "Candles"
	if limit <= 0 {
		limit = 100
	}

	klines, err := c.fut.NewKlinesService().
		Symbol(Symbol(pair)).
		Interval(timeframe).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.KindTransport, op)
	}

	out := make([]models.Candle, 0, len(klines))
	for _, k := range klines {
		if k == nil {
			continue
		}
		cd, err := parseKline(k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
		if err != nil {
			return nil, errs.New(errs.KindMalformedResponse, op, "kline %d: %v", k.OpenTime, err)
		}
		out = append(out, cd)
	}
	return normalize(out), nil
}

func parseKline(openTime int64, o, h, l, cl, v string) (models.Candle, error) {
	vals := make([]float64, 5)
	for i, s := range []string{o, h, l, cl, v} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = f
	}
	return models.Candle{
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// normalize сортировка по времени; при дублях остаётся последняя версия свечи.
func normalize(in []models.Candle) []models.Candle {
	slices.SortStableFunc(in, func(a, b models.Candle) int { return a.Time.Compare(b.Time) })
	out := in[:0]
	for _, c := range in {
		if n := len(out); n > 0 && out[n-1].Time.Equal(c.Time) {
			out[n-1] = c
			continue
		}
		out = append(out, c)
	}
	return out
}
