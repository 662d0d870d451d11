package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitunix_bot/internal/modules/ledger/service"
	"bitunix_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	s := NewStore(path)

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.Stats{}, st)

	require.NoError(t, s.Save(ctx, service.Stats{WinCount: 2, LossCount: 1}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"win_count":2,"loss_count":1}`, string(raw))

	st, err = NewStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, service.Stats{WinCount: 2, LossCount: 1}, st)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be renamed away")
}

func TestStoreCorrupt(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for name, body := range map[string]string{
		"garbage":  "{not json",
		"negative": `{"win_count":-1,"loss_count":2}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			st, err := NewStore(path).Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, service.Stats{}, st)
		})
	}
}

func TestStoreLedgerIntegration(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stats.json")
	l := service.New(ctx, NewStore(path))

	for _, v := range []float64{5, -2, 1, 0} {
		v := v
		_, err := l.RecordClose(ctx, service.ClosedTrade{PnL: &v})
		require.NoError(t, err)
	}

	reloaded := service.New(ctx, NewStore(path))
	assert.Equal(t, service.Stats{WinCount: 2, LossCount: 2}, reloaded.Stats())
}
