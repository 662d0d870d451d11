package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

// Params длины индикаторов.
type Params struct {
	RSILen      int
	ATRLen      int
	BreakoutLen int
}

// Warmup сколько первых свечей не имеют значений.
func (p Params) Warmup() int {
	n := p.RSILen
	if p.ATRLen > n {
		n = p.ATRLen
	}
	if p.BreakoutLen > n {
		n = p.BreakoutLen
	}
	return n + 1
}

// Frame ряды индикаторов по свечам. В прогреве значения NaN, не ноль.
type Frame struct {
	Candles  []models.Candle
	RSI      []float64
	ATR      []float64
	Breakout []float64
	Warmup   int
}

// Snapshot значения на одной свече.
type Snapshot struct {
	Time     time.Time
	Close    float64
	RSI      float64
	ATR      float64
	Breakout float64
}

func (f Frame) Len() int { return len(f.Candles) }

func (f Frame) Valid(i int) bool {
	return i >= f.Warmup && i < len(f.Candles) &&
		!math.IsNaN(f.RSI[i]) && !math.IsNaN(f.ATR[i]) && !math.IsNaN(f.Breakout[i])
}

func (f Frame) At(i int) Snapshot {
	return Snapshot{
		Time:     f.Candles[i].Time,
		Close:    f.Candles[i].Close,
		RSI:      f.RSI[i],
		ATR:      f.ATR[i],
		Breakout: f.Breakout[i],
	}
}

// Latest последняя свеча; Compute гарантирует, что она валидна.
func (f Frame) Latest() Snapshot { return f.At(len(f.Candles) - 1) }

// Compute RSI(close), ATR(h,l,c) и порог пробоя = max high за breakoutLen
// свечей ДО текущей (своя high в свой порог не попадает).
func Compute(candles []models.Candle, p Params) (frame Frame, err error) {
	const op = "Compute"

	if p.RSILen <= 0 || p.ATRLen <= 0 || p.BreakoutLen <= 0 {
		return Frame{}, errs.New(errs.KindInvalidInput, op, "lengths must be > 0: %+v", p)
	}
	warm := p.Warmup()
	if len(candles) < warm+1 {
		return Frame{}, errs.New(errs.KindInsufficientData, op, "need %d candles, got %d", warm+1, len(candles))
	}
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return Frame{}, errs.New(errs.KindInvalidInput, op, "candles not strictly ascending at %d", i)
		}
	}

	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range candles {
		closes[i], highs[i], lows[i] = c.Close, c.High, c.Low
	}

	// talib паникует на кривых входах, наружу это отказ зависимости
	defer func() {
		if r := recover(); r != nil {
			frame = Frame{}
			err = errs.New(errs.KindDependencyUnavailable, op, "talib: %v", r)
		}
	}()

	rsi := talib.Rsi(closes, p.RSILen)
	atr := talib.Atr(highs, lows, closes, p.ATRLen)
	rollMax := talib.Max(highs, p.BreakoutLen)
	if len(rsi) != n || len(atr) != n || len(rollMax) != n {
		return Frame{}, errs.New(errs.KindDependencyUnavailable, op, "talib returned short series")
	}

	breakout := make([]float64, n)
	for i := range breakout {
		// rollMax[i-1] = max(high[i-L .. i-1])
		if i-1 >= p.BreakoutLen-1 {
			breakout[i] = rollMax[i-1]
		} else {
			breakout[i] = math.NaN()
		}
	}
	for i := 0; i < warm && i < n; i++ {
		rsi[i] = math.NaN()
		atr[i] = math.NaN()
		breakout[i] = math.NaN()
	}

	frame = Frame{
		Candles:  candles,
		RSI:      rsi,
		ATR:      atr,
		Breakout: breakout,
		Warmup:   warm,
	}
	if !frame.Valid(n - 1) {
		return Frame{}, errs.New(errs.KindInsufficientData, op, "latest candle has no indicator values")
	}
	return frame, nil
}

func (s Snapshot) String() string {
	return fmt.Sprintf("close=%.4f rsi=%.2f atr=%.4f breakout=%.4f", s.Close, s.RSI, s.ATR, s.Breakout)
}
