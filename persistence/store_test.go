package persistence

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_StoreTrade(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.StoreTrade(1, "BTCUSDT", 65000.5, 0.01, 0, 1700000000000000000))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_StoreOrderBookLevel(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.StoreOrderBookLevel(2, "BTC-USDT", 0, 64999.0, 1.5, false, 0))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM order_book_levels`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_StoreOHLCV(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.StoreOHLCV(1, "ETHUSDT", 3000, 3010, 2990, 3005, 120, 0, 60_000_000_000))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM ohlcv`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_StoreOrderLifecycle(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.StoreOrderLifecycle("cid-1", "eid-1", 1, "BTCUSDT", "FILLED", 1.0, 65000.0, "", 0))

	var state string
	require.NoError(t, s.db.QueryRow(`SELECT state FROM order_lifecycle WHERE client_order_id = ?`, "cid-1").Scan(&state))
	assert.Equal(t, "FILLED", state)
}

func TestStore_BatchInsertCommits(t *testing.T) {
	s := openTestStore(t)
	tx, err := s.BeginBatch()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.StoreTradeBatch(tx, 1, "BTCUSDT", float64(100+i), 1, 0, int64(i)))
	}
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&count))
	assert.Equal(t, 5, count)
}
