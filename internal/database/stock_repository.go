package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/finfeed/internal/models"
)

// stockSelectColumns lists columns for SELECT queries on stocks.
const stockSelectColumns = `symbol, name, exchange, price, change,
	change_percent, volume, market_cap, as_of`

// StockRepository handles database operations for persisted stock records.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new stock repository.
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// Find returns the persisted record for symbol along with its as_of
// timestamp. A missing row is reported via found=false, not an error.
func (r *StockRepository) Find(ctx context.Context, symbol string) (models.Stock, time.Time, bool, error) {
	query := `SELECT ` + stockSelectColumns + ` FROM stocks WHERE symbol = $1`

	var stock models.Stock
	if err := r.db.GetContext(ctx, &stock, query, symbol); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Stock{}, time.Time{}, false, nil
		}
		return models.Stock{}, time.Time{}, false, fmt.Errorf("failed to select stock: %w", err)
	}

	return stock, stock.AsOf, true, nil
}

// Upsert writes the record for symbol, creating it on first sight. Records
// are never deleted by this layer.
func (r *StockRepository) Upsert(ctx context.Context, symbol string, stock models.Stock) error {
	query := `
		INSERT INTO stocks (
			symbol, name, exchange, price, change,
			change_percent, volume, market_cap, as_of
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			change_percent = EXCLUDED.change_percent,
			volume = EXCLUDED.volume,
			market_cap = EXCLUDED.market_cap,
			as_of = EXCLUDED.as_of
	`

	_, err := r.db.ExecContext(ctx, query,
		symbol,
		stock.Name,
		stock.Exchange,
		stock.Price,
		stock.Change,
		stock.ChangePercent,
		stock.Volume,
		stock.MarketCap,
		stock.AsOf,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert stock: %w", err)
	}

	return nil
}
