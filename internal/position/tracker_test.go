package position

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/internal/models"
	"bitunix_bot/pkg/errs"
)

func TestRecordOpenClose(t *testing.T) {
	tr := NewTracker()
	assert.True(t, tr.Current().IsFlat())
	assert.True(t, tr.Current().Valid())

	require.NoError(t, tr.RecordOpen(models.SideLong, 0.5, "p-1", models.EntryBreakout, 2400, 2450))
	p := tr.Current()
	assert.True(t, p.Valid())
	assert.Equal(t, models.EntryBreakout, p.EntryKind)
	assert.True(t, p.HasStop)
	assert.Equal(t, 2400.0, p.Stop)

	tr.RecordClose()
	assert.Equal(t, models.Position{}, tr.Current())
}

func TestRecordOpenRejectsBrokenInvariant(t *testing.T) {
	tr := NewTracker()
	err := tr.RecordOpen(models.SideLong, 0.5, "", models.EntryMomentum, 0, 0)
	assert.True(t, errs.IsKind(err, errs.KindInvalidInput))
	assert.True(t, tr.Current().IsFlat())

	err = tr.RecordOpen(models.SideLong, 0, "p-1", models.EntryMomentum, 0, 0)
	assert.Error(t, err)
}

func TestAdvanceStop(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.AdvanceStop(100), "flat")

	require.NoError(t, tr.RecordOpen(models.SideLong, 1, "p-1", models.EntryBreakout, 100, 110))

	assert.False(t, tr.AdvanceStop(100), "equal")
	assert.False(t, tr.AdvanceStop(99.5), "lower")
	assert.Equal(t, 100.0, tr.Current().Stop)

	accepted := []float64{}
	for _, c := range []float64{101, 101, 100.5, 103, 102, 105} {
		if tr.AdvanceStop(c) {
			accepted = append(accepted, c)
		}
	}
	assert.Equal(t, []float64{101, 103, 105}, accepted)
	assert.Equal(t, 105.0, tr.Current().Stop)
}

func TestAdvanceStopWithoutInitialStop(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.RecordOpen(models.SideLong, 1, "p-1", models.EntryBreakout, 0, 110))
	assert.True(t, tr.AdvanceStop(90))
	assert.True(t, tr.Current().HasStop)
}

func TestReconcile(t *testing.T) {
	long := models.PositionSnapshot{Side: models.SideLong, Qty: 0.5, PositionID: "p-1", AvgOpenPrice: 2500}

	t.Run("query failure keeps state", func(t *testing.T) {
		tr := NewTracker()
		require.NoError(t, tr.RecordOpen(models.SideLong, 0.5, "p-1", models.EntryBreakout, 2400, 2500))
		before := tr.Current()

		res, _ := tr.Reconcile(models.PositionSnapshot{}, errors.New("timeout"))
		assert.Equal(t, QueryFailed, res)
		assert.Equal(t, before, tr.Current())
	})

	t.Run("closed on exchange", func(t *testing.T) {
		tr := NewTracker()
		require.NoError(t, tr.RecordOpen(models.SideLong, 0.5, "p-1", models.EntryMomentum, 2400, 2500))

		res, prev := tr.Reconcile(models.PositionSnapshot{}, nil)
		assert.Equal(t, ClosedExternally, res)
		assert.Equal(t, "p-1", prev.PositionID)
		assert.True(t, tr.Current().IsFlat())
		assert.True(t, tr.Current().Valid())
	})

	t.Run("adopt after restart", func(t *testing.T) {
		tr := NewTracker()
		res, _ := tr.Reconcile(long, nil)
		assert.Equal(t, Adopted, res)
		p := tr.Current()
		assert.True(t, p.Valid())
		assert.Equal(t, models.EntryNone, p.EntryKind)
		assert.False(t, p.HasStop)
		assert.Equal(t, 2500.0, p.EntryPrice)
	})

	t.Run("same position keeps kind and stop", func(t *testing.T) {
		tr := NewTracker()
		require.NoError(t, tr.RecordOpen(models.SideLong, 0.5, "p-1", models.EntryBreakout, 2400, 2500))

		res, _ := tr.Reconcile(long, nil)
		assert.Equal(t, Unchanged, res)

		partial := long
		partial.Qty = 0.3
		res, _ = tr.Reconcile(partial, nil)
		assert.Equal(t, Refreshed, res)
		p := tr.Current()
		assert.Equal(t, 0.3, p.Qty)
		assert.Equal(t, models.EntryBreakout, p.EntryKind)
		assert.Equal(t, 2400.0, p.Stop)
	})

	t.Run("different position id is adopted fresh", func(t *testing.T) {
		tr := NewTracker()
		require.NoError(t, tr.RecordOpen(models.SideLong, 0.5, "p-0", models.EntryBreakout, 2400, 2500))

		res, _ := tr.Reconcile(long, nil)
		assert.Equal(t, Adopted, res)
		assert.Equal(t, "p-1", tr.Current().PositionID)
		assert.False(t, tr.Current().HasStop)
	})
}
