package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vitos/bracket_trader/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			market TEXT NOT NULL,
			quantity REAL NOT NULL,
			price REAL NOT NULL,
			timestamp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_market_timestamp ON trades(market, timestamp);`,
		`CREATE TABLE IF NOT EXISTS positions (
			id TEXT PRIMARY KEY,
			market TEXT NOT NULL,
			quantity TEXT NOT NULL,
			buy_price TEXT NOT NULL,
			take_profit TEXT,
			stop_loss TEXT,
			profitable BOOLEAN,
			opened_at DATETIME NOT NULL,
			closed_at DATETIME
		);`,
		`CREATE INDEX IF NOT EXISTS idx_positions_opened_at ON positions(opened_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	// Migration: exit price was added after the first release.
	// We ignore the error if the column already exists
	_, _ = s.db.Exec(`ALTER TABLE positions ADD COLUMN exit_price TEXT`)

	return nil
}

// TradeHistory Implementation

func (s *SQLiteStore) SaveTrades(ctx context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades (market, quantity, price, timestamp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range trades {
		if _, err := stmt.ExecContext(ctx, t.Market, t.Quantity, t.Price, t.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAggregatedTrades groups trades of each market into buckets with the
// summed quantity and average price, stamped with the bucket start. Rows are
// ordered by bucket, then market. The range is (from, to].
func (s *SQLiteStore) ListAggregatedTrades(ctx context.Context, markets []string, from, to time.Time, bucket time.Duration) ([]domain.Trade, error) {
	if len(markets) == 0 {
		return nil, nil
	}
	bucketMs := bucket.Milliseconds()
	if bucketMs <= 0 {
		return nil, fmt.Errorf("invalid bucket %s", bucket)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(markets)), ",")
	query := `SELECT market, SUM(quantity), AVG(price), (timestamp / ?) * ? AS bucket
		FROM trades
		WHERE market IN (` + placeholders + `)
		AND timestamp > ? AND timestamp <= ?
		GROUP BY market, timestamp / ?
		ORDER BY bucket ASC, market ASC`

	args := make([]interface{}, 0, len(markets)+5)
	args = append(args, bucketMs, bucketMs)
	for _, m := range markets {
		args = append(args, m)
	}
	args = append(args, from.UnixMilli(), to.UnixMilli(), bucketMs)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		if err := rows.Scan(&t.Market, &t.Quantity, &t.Price, &t.Timestamp); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type MarketStats struct {
	Market string
	Count  int64
	First  time.Time
	Last   time.Time
}

// TradeStats summarises the recorded history per market.
func (s *SQLiteStore) TradeStats(ctx context.Context) ([]MarketStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT market, COUNT(*), MIN(timestamp), MAX(timestamp) FROM trades GROUP BY market ORDER BY market`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []MarketStats
	for rows.Next() {
		var st MarketStats
		var first, last int64
		if err := rows.Scan(&st.Market, &st.Count, &first, &last); err != nil {
			return nil, err
		}
		st.First = domain.MillisToTime(first)
		st.Last = domain.MillisToTime(last)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// PositionRepository Implementation

func (s *SQLiteStore) SavePosition(ctx context.Context, p *domain.Position) error {
	query := `INSERT INTO positions (id, market, quantity, buy_price, take_profit, stop_loss, opened_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Market, p.Quantity, p.BuyPrice, p.TakeProfit, p.StopLoss, p.OpenedAt.UTC())
	return err
}

func (s *SQLiteStore) UpdatePositionOutcome(ctx context.Context, p *domain.Position) error {
	if p.Profitable == nil {
		return fmt.Errorf("position %s is still open", p.ID)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET profitable = ?, exit_price = ?, closed_at = ? WHERE id = ?`,
		*p.Profitable, p.ExitPrice, p.ClosedAt.UTC(), p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("position %s not found", p.ID)
	}
	return nil
}

func (s *SQLiteStore) ListPositions(ctx context.Context, limit int) ([]*domain.Position, error) {
	query := `SELECT id, market, quantity, buy_price, take_profit, stop_loss, profitable, opened_at, exit_price, closed_at
			  FROM positions ORDER BY opened_at DESC, id LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		var (
			p          domain.Position
			profitable sql.NullBool
			exitPrice  sql.NullString
			closedAt   sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Market, &p.Quantity, &p.BuyPrice, &p.TakeProfit, &p.StopLoss,
			&profitable, &p.OpenedAt, &exitPrice, &closedAt); err != nil {
			return nil, err
		}
		if profitable.Valid {
			v := profitable.Bool
			p.Profitable = &v
		}
		if exitPrice.Valid {
			if err := p.ExitPrice.Scan(exitPrice.String); err != nil {
				return nil, err
			}
		}
		if closedAt.Valid {
			p.ClosedAt = closedAt.Time
		}
		positions = append(positions, &p)
	}
	return positions, rows.Err()
}
