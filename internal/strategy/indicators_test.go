package strategy

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

var defaultParams = Params{RSILen: 12, ATRLen: 12, BreakoutLen: 4}

func genCandles(n int, seed int64) []models.Candle {
	r := rand.New(rand.NewSource(seed))
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	px := 2500.0
	for i := range out {
		open := px
		px += r.Float64()*40 - 20
		hi := math.Max(open, px) + r.Float64()*10
		lo := math.Min(open, px) - r.Float64()*10
		out[i] = models.Candle{
			Time:  start.Add(time.Duration(i) * 4 * time.Hour),
			Open:  open,
			High:  hi,
			Low:   lo,
			Close: px,
		}
	}
	return out
}

func windowMax(xs []float64) float64 {
	m := xs[0]
	for _, v := range xs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func TestComputeWarmup(t *testing.T) {
	candles := genCandles(60, 1)
	f, err := Compute(candles, defaultParams)
	require.NoError(t, err)

	assert.Equal(t, 13, f.Warmup)
	for i := 0; i < f.Warmup; i++ {
		assert.False(t, f.Valid(i), i)
		assert.True(t, math.IsNaN(f.RSI[i]), i)
		assert.True(t, math.IsNaN(f.ATR[i]), i)
		assert.True(t, math.IsNaN(f.Breakout[i]), i)
	}
	for i := f.Warmup; i < f.Len(); i++ {
		require.True(t, f.Valid(i), i)
		assert.GreaterOrEqual(t, f.RSI[i], 0.0)
		assert.LessOrEqual(t, f.RSI[i], 100.0)
		assert.GreaterOrEqual(t, f.ATR[i], 0.0)
	}
}

func TestBreakoutUsesOnlyPriorHighs(t *testing.T) {
	candles := genCandles(80, 7)
	f, err := Compute(candles, defaultParams)
	require.NoError(t, err)

	L := defaultParams.BreakoutLen
	for i := f.Warmup; i < f.Len(); i++ {
		highs := make([]float64, 0, L)
		for _, c := range candles[i-L : i] {
			highs = append(highs, c.High)
		}
		assert.InDelta(t, windowMax(highs), f.Breakout[i], 1e-9, i)
	}

	// задираем high последней свечи: её порог не меняется
	last := len(candles) - 1
	spiked := append([]models.Candle(nil), candles...)
	spiked[last].High = 1e9
	g, err := Compute(spiked, defaultParams)
	require.NoError(t, err)
	assert.Equal(t, f.Breakout[last], g.Breakout[last])
}

func TestComputeRisingCloses(t *testing.T) {
	candles := genCandles(30, 3)
	for i := range candles {
		candles[i].Close = 100 + float64(i)
		candles[i].High = candles[i].Close + 1
		candles[i].Low = candles[i].Close - 1
	}
	f, err := Compute(candles, defaultParams)
	require.NoError(t, err)

	s := f.Latest()
	assert.InDelta(t, 100.0, s.RSI, 1e-9)
	assert.InDelta(t, 2.0, s.ATR, 1e-9)
	assert.InDelta(t, 129.0, s.Close, 1e-9)
	// max high за 4 предыдущие свечи: close[28]+1
	assert.InDelta(t, 129.0, s.Breakout, 1e-9)
}

func TestComputeErrors(t *testing.T) {
	t.Run("insufficient", func(t *testing.T) {
		_, err := Compute(genCandles(13, 1), defaultParams)
		assert.True(t, errs.IsKind(err, errs.KindInsufficientData))
	})

	t.Run("bad lengths", func(t *testing.T) {
		_, err := Compute(genCandles(40, 1), Params{RSILen: 0, ATRLen: 12, BreakoutLen: 4})
		assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
	})

	t.Run("unordered", func(t *testing.T) {
		c := genCandles(40, 1)
		c[10].Time = c[9].Time
		_, err := Compute(c, defaultParams)
		assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
	})

	t.Run("minimum accepted", func(t *testing.T) {
		_, err := Compute(genCandles(14, 1), defaultParams)
		assert.NoError(t, err)
	})
}
