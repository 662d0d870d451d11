package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRejectsBadDSN(t *testing.T) {
	pool, err := NewPool(context.Background(), PoolConfig{DSN: "postgres://u:p@localhost:notaport/db"})
	require.Error(t, err)
	assert.Nil(t, pool)
	assert.Contains(t, err.Error(), "parse dsn")
}
