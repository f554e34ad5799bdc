// Package persistence is the durable SQLite archive for parsed market and
// order events, sitting alongside (not instead of) the mmap journal: the
// journal is the low-latency, fixed-capacity wire-format record; this store
// is the queryable, unbounded archive a post-mortem or backtest reads from.
package persistence

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/primevenue/gateway/internal/telemetry"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	venue_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	side INTEGER NOT NULL,
	gen_time_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_symbol_time ON trades(symbol, gen_time_ns);

CREATE TABLE IF NOT EXISTS order_book_levels (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	venue_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	side INTEGER NOT NULL,
	price REAL NOT NULL,
	qty REAL NOT NULL,
	is_delta INTEGER NOT NULL,
	gen_time_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_book_symbol_time ON order_book_levels(symbol, gen_time_ns);

CREATE TABLE IF NOT EXISTS ohlcv (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	venue_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	open_time_ns INTEGER NOT NULL,
	close_time_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ohlcv_symbol_time ON ohlcv(symbol, open_time_ns);

CREATE TABLE IF NOT EXISTS order_lifecycle (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	client_order_id TEXT NOT NULL,
	exchange_order_id TEXT,
	venue_id INTEGER NOT NULL,
	symbol TEXT NOT NULL,
	state TEXT NOT NULL,
	filled_qty REAL NOT NULL,
	filled_avg_price REAL NOT NULL,
	error_msg TEXT,
	updated_at_ns INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_client_id ON order_lifecycle(client_order_id);
`

const (
	insertTradeQuery = `INSERT INTO trades(venue_id, symbol, price, qty, side, gen_time_ns) VALUES(?, ?, ?, ?, ?, ?)`
	insertBookQuery  = `INSERT INTO order_book_levels(venue_id, symbol, side, price, qty, is_delta, gen_time_ns) VALUES(?, ?, ?, ?, ?, ?, ?)`
	insertOHLCVQuery = `INSERT INTO ohlcv(venue_id, symbol, open, high, low, close, volume, open_time_ns, close_time_ns) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertOrderQuery = `INSERT INTO order_lifecycle(client_order_id, exchange_order_id, venue_id, symbol, state, filled_qty, filled_avg_price, error_msg, updated_at_ns) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// Store provides SQLite storage for parsed events with prepared
// statements, initialized once and reused for all batch operations, per
// the teacher's database/marketdata.go discipline of avoiding SQL parsing
// overhead on every insert.
type Store struct {
	db *sql.DB

	stmtTrade *sql.Stmt
	stmtBook  *sql.Stmt
	stmtOHLCV *sql.Stmt
	stmtOrder *sql.Stmt
}

// Open creates (or reopens) the SQLite archive at dbPath in WAL mode and
// prepares every insert statement.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("persistence: open database: %w", err)
	}

	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: init schema: %w", err)
	}

	if s.stmtTrade, err = db.Prepare(insertTradeQuery); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("persistence: prepare trade statement: %w", err)
	}
	if s.stmtBook, err = db.Prepare(insertBookQuery); err != nil {
		_ = s.stmtTrade.Close()
		_ = db.Close()
		return nil, fmt.Errorf("persistence: prepare order book statement: %w", err)
	}
	if s.stmtOHLCV, err = db.Prepare(insertOHLCVQuery); err != nil {
		_ = s.stmtTrade.Close()
		_ = s.stmtBook.Close()
		_ = db.Close()
		return nil, fmt.Errorf("persistence: prepare OHLCV statement: %w", err)
	}
	if s.stmtOrder, err = db.Prepare(insertOrderQuery); err != nil {
		_ = s.stmtTrade.Close()
		_ = s.stmtBook.Close()
		_ = s.stmtOHLCV.Close()
		_ = db.Close()
		return nil, fmt.Errorf("persistence: prepare order statement: %w", err)
	}

	telemetry.L().Infow("sqlite archive opened", "path", dbPath)
	return s, nil
}

// Close closes every prepared statement before closing the database.
func (s *Store) Close() error {
	if s.stmtTrade != nil {
		_ = s.stmtTrade.Close()
	}
	if s.stmtBook != nil {
		_ = s.stmtBook.Close()
	}
	if s.stmtOHLCV != nil {
		_ = s.stmtOHLCV.Close()
	}
	if s.stmtOrder != nil {
		_ = s.stmtOrder.Close()
	}
	return s.db.Close()
}

// StoreTrade inserts one trade row directly (non-batched path, used by
// tests and low-volume callers).
func (s *Store) StoreTrade(venueID uint8, symbol string, price, qty float64, side uint8, genTimeNs int64) error {
	_, err := s.stmtTrade.Exec(venueID, symbol, price, qty, side, genTimeNs)
	return err
}

// StoreOrderBookLevel inserts one book-level row.
func (s *Store) StoreOrderBookLevel(venueID uint8, symbol string, side uint8, price, qty float64, isDelta bool, genTimeNs int64) error {
	_, err := s.stmtBook.Exec(venueID, symbol, side, price, qty, isDelta, genTimeNs)
	return err
}

// StoreOHLCV inserts one candle row.
func (s *Store) StoreOHLCV(venueID uint8, symbol string, open, high, low, close, volume float64, openTimeNs, closeTimeNs int64) error {
	_, err := s.stmtOHLCV.Exec(venueID, symbol, open, high, low, close, volume, openTimeNs, closeTimeNs)
	return err
}

// StoreOrderLifecycle inserts one order-state-transition row.
func (s *Store) StoreOrderLifecycle(clientOrderID, exchangeOrderID string, venueID uint8, symbol, state string, filledQty, filledAvgPrice float64, errorMsg string, updatedAtNs int64) error {
	_, err := s.stmtOrder.Exec(clientOrderID, exchangeOrderID, venueID, symbol, state, filledQty, filledAvgPrice, errorMsg, updatedAtNs)
	return err
}

// BeginBatch opens a transaction for batched inserts, mirroring the
// teacher's BeginTransaction + *Batch method pairing.
func (s *Store) BeginBatch() (*sql.Tx, error) {
	return s.db.Begin()
}

// StoreTradeBatch inserts a trade using the prepared statement bound to tx.
func (s *Store) StoreTradeBatch(tx *sql.Tx, venueID uint8, symbol string, price, qty float64, side uint8, genTimeNs int64) error {
	_, err := tx.Stmt(s.stmtTrade).Exec(venueID, symbol, price, qty, side, genTimeNs)
	return err
}

// StoreOrderBookLevelBatch inserts a book-level row using tx's bound statement.
func (s *Store) StoreOrderBookLevelBatch(tx *sql.Tx, venueID uint8, symbol string, side uint8, price, qty float64, isDelta bool, genTimeNs int64) error {
	_, err := tx.Stmt(s.stmtBook).Exec(venueID, symbol, side, price, qty, isDelta, genTimeNs)
	return err
}

// StoreOHLCVBatch inserts a candle row using tx's bound statement.
func (s *Store) StoreOHLCVBatch(tx *sql.Tx, venueID uint8, symbol string, open, high, low, close, volume float64, openTimeNs, closeTimeNs int64) error {
	_, err := tx.Stmt(s.stmtOHLCV).Exec(venueID, symbol, open, high, low, close, volume, openTimeNs, closeTimeNs)
	return err
}
