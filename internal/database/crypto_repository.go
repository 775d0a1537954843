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

// cryptoSelectColumns lists columns for SELECT queries on cryptos.
const cryptoSelectColumns = `id, symbol, name, current_price, change_24h,
	change_percent_24h, market_cap, volume_24h, as_of`

// CryptoRepository handles database operations for persisted coin records.
type CryptoRepository struct {
	db *sqlx.DB
}

// NewCryptoRepository creates a new crypto repository.
func NewCryptoRepository(db *sqlx.DB) *CryptoRepository {
	return &CryptoRepository{db: db}
}

// Find returns the persisted record for a coin id along with its as_of
// timestamp. A missing row is reported via found=false, not an error.
func (r *CryptoRepository) Find(ctx context.Context, id string) (models.Crypto, time.Time, bool, error) {
	query := `SELECT ` + cryptoSelectColumns + ` FROM cryptos WHERE id = $1`

	var coin models.Crypto
	if err := r.db.GetContext(ctx, &coin, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Crypto{}, time.Time{}, false, nil
		}
		return models.Crypto{}, time.Time{}, false, fmt.Errorf("failed to select crypto: %w", err)
	}

	return coin, coin.AsOf, true, nil
}

// Upsert writes the record for a coin id, creating it on first sight.
func (r *CryptoRepository) Upsert(ctx context.Context, id string, coin models.Crypto) error {
	query := `
		INSERT INTO cryptos (
			id, symbol, name, current_price, change_24h,
			change_percent_24h, market_cap, volume_24h, as_of
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			current_price = EXCLUDED.current_price,
			change_24h = EXCLUDED.change_24h,
			change_percent_24h = EXCLUDED.change_percent_24h,
			market_cap = EXCLUDED.market_cap,
			volume_24h = EXCLUDED.volume_24h,
			as_of = EXCLUDED.as_of
	`

	_, err := r.db.ExecContext(ctx, query,
		id,
		coin.Symbol,
		coin.Name,
		coin.CurrentPrice,
		coin.Change24h,
		coin.ChangePercent24h,
		coin.MarketCap,
		coin.Volume24h,
		coin.AsOf,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert crypto: %w", err)
	}

	return nil
}
