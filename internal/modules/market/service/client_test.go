package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
	"bitunix_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func kline(openMs int64, o, h, l, c string) string {
	return `[` + itoa(openMs) + `,"` + o + `","` + h + `","` + l + `","` + c + `","10",` + itoa(openMs+59999) + `,"100",5,"1","1","0"]`
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func TestSymbol(t *testing.T) {
	assert.Equal(t, "ETHUSDT", Symbol("ETH/USDT"))
	assert.Equal(t, "BTCUSDT", Symbol("btc-usdt"))
	assert.Equal(t, "ETHUSDT", Symbol("ETHUSDT"))
}

func TestCandles(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fapi/v1/klines", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		// вне порядка и с дублем последней свечи
		_, _ = w.Write([]byte(`[` +
			kline(120000, "3", "4", "2", "3.5") + `,` +
			kline(60000, "2", "3", "1", "2.5") + `,` +
			kline(120000, "3", "5", "2", "4.5") +
			`]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Candles(context.Background(), "ETH/USDT", "1m", 3)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "symbol=ETHUSDT")
	assert.Contains(t, gotQuery, "interval=1m")
	assert.Contains(t, gotQuery, "limit=3")

	require.Len(t, got, 2)
	assert.Equal(t, models.Candle{
		Time: time.UnixMilli(60000).UTC(), Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 10,
	}, got[0])
	assert.Equal(t, 4.5, got[1].Close, "later duplicate wins")
	assert.True(t, got[1].Time.After(got[0].Time))
}

func TestCandlesErrors(t *testing.T) {
	t.Run("http error is transport", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"code":-1003,"msg":"too many requests"}`, http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Candles(context.Background(), "ETH/USDT", "1m", 10)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindTransport))
	})

	t.Run("bad number is malformed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[` + kline(60000, "x", "3", "1", "2") + `]`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Candles(context.Background(), "ETH/USDT", "1m", 10)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.KindMalformedResponse))
	})
}
