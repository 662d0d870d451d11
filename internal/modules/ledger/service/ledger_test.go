package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

type memStore struct {
	stats   Stats
	loadErr error
	saveErr error
	saves   int
	trades  []ClosedTrade
}

func (m *memStore) Load(context.Context) (Stats, error) { return m.stats, m.loadErr }
func (m *memStore) Save(_ context.Context, s Stats) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stats = s
	return nil
}
func (m *memStore) RecordTrade(_ context.Context, t ClosedTrade) error {
	m.trades = append(m.trades, t)
	return nil
}

func pnl(v float64) *float64 { return &v }

func TestLedgerRecordClose(t *testing.T) {
	ctx := context.Background()

	t.Run("wins and losses, zero is a loss", func(t *testing.T) {
		st := &memStore{}
		l := New(ctx, st)
		for _, v := range []float64{5, -2, 1, 0} {
			_, err := l.RecordClose(ctx, ClosedTrade{PnL: pnl(v)})
			require.NoError(t, err)
		}
		assert.Equal(t, Stats{WinCount: 2, LossCount: 2}, l.Stats())
		assert.Equal(t, Stats{WinCount: 2, LossCount: 2}, st.stats)
		assert.InDelta(t, 50.0, l.Stats().WinRate(), 1e-9)
		assert.Len(t, st.trades, 4)
	})

	t.Run("unknown pnl leaves counters", func(t *testing.T) {
		st := &memStore{stats: Stats{WinCount: 1}}
		l := New(ctx, st)
		s, err := l.RecordClose(ctx, ClosedTrade{})
		require.NoError(t, err)
		assert.Equal(t, Stats{WinCount: 1}, s)
		assert.Equal(t, 0, st.saves)
		assert.Len(t, st.trades, 1)
	})

	t.Run("failed save keeps memory", func(t *testing.T) {
		st := &memStore{stats: Stats{WinCount: 3, LossCount: 1}}
		l := New(ctx, st)
		st.saveErr = errors.New("disk full")
		_, err := l.RecordClose(ctx, ClosedTrade{PnL: pnl(10)})
		require.Error(t, err)
		assert.Equal(t, Stats{WinCount: 3, LossCount: 1}, l.Stats())
	})

	t.Run("load error starts from zero", func(t *testing.T) {
		l := New(ctx, &memStore{stats: Stats{WinCount: 9}, loadErr: errors.New("boom")})
		assert.Equal(t, Stats{}, l.Stats())
	})
}

func TestLedgerReset(t *testing.T) {
	ctx := context.Background()
	st := &memStore{stats: Stats{WinCount: 4, LossCount: 4}}
	l := New(ctx, st)
	require.NoError(t, l.Reset(ctx))
	assert.Equal(t, Stats{}, l.Stats())
	assert.Equal(t, Stats{}, st.stats)
}

func TestStatsWinRate(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.WinRate())
	assert.InDelta(t, 75.0, Stats{WinCount: 3, LossCount: 1}.WinRate(), 1e-9)
	assert.Equal(t, "75.00% (3W/1L)", Stats{WinCount: 3, LossCount: 1}.String())
}
