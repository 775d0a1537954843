package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/finfeed/internal/database"
	"github.com/jonesrussell/finfeed/internal/models"
)

// stockColumns lists the columns returned by stocks SELECT queries.
var stockColumns = []string{
	"symbol", "name", "exchange", "price", "change",
	"change_percent", "volume", "market_cap", "as_of",
}

func newStockRepo(t *testing.T) (*database.StockRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewStockRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestStockFind_Existing(t *testing.T) {
	repo, mock, cleanup := newStockRepo(t)
	defer cleanup()

	asOf := time.Now().Add(-2 * time.Minute)

	mock.ExpectQuery("SELECT .+ FROM stocks WHERE symbol").
		WithArgs("AAPL").
		WillReturnRows(
			sqlmock.NewRows(stockColumns).AddRow(
				"AAPL", "Apple Inc.", "NASDAQ", 227.52, 2.9,
				1.3, int64(51230000), 3.4e12, asOf,
			),
		)

	stock, gotAsOf, found, err := repo.Find(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if stock.Symbol != "AAPL" {
		t.Errorf("expected symbol=AAPL, got %s", stock.Symbol)
	}
	if stock.Price != 227.52 {
		t.Errorf("expected price=227.52, got %f", stock.Price)
	}
	if !gotAsOf.Equal(asOf) {
		t.Errorf("expected as_of=%v, got %v", asOf, gotAsOf)
	}

	expectationsMet(t, mock)
}

func TestStockFind_Missing(t *testing.T) {
	repo, mock, cleanup := newStockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM stocks WHERE symbol").
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows(stockColumns))

	_, _, found, err := repo.Find(context.Background(), "NOPE")
	if err != nil {
		t.Fatalf("Find() error = %v, want nil for missing row", err)
	}
	if found {
		t.Error("expected found=false for missing row")
	}

	expectationsMet(t, mock)
}

func TestStockFind_StoreFailure(t *testing.T) {
	repo, mock, cleanup := newStockRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM stocks WHERE symbol").
		WithArgs("AAPL").
		WillReturnError(errors.New("connection reset"))

	_, _, _, err := repo.Find(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected store failure to propagate")
	}

	expectationsMet(t, mock)
}

func TestStockUpsert(t *testing.T) {
	repo, mock, cleanup := newStockRepo(t)
	defer cleanup()

	stock := models.Stock{
		Symbol:        "RELIANCE.NS",
		Name:          "Reliance Industries",
		Exchange:      "NSE",
		Price:         2931.4,
		Change:        -12.3,
		ChangePercent: -0.42,
		Volume:        4200000,
		MarketCap:     1.98e13,
		AsOf:          time.Now(),
	}

	mock.ExpectExec("INSERT INTO stocks").
		WithArgs(
			stock.Symbol, stock.Name, stock.Exchange, stock.Price, stock.Change,
			stock.ChangePercent, stock.Volume, stock.MarketCap, stock.AsOf,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Upsert(context.Background(), stock.Symbol, stock); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	expectationsMet(t, mock)
}
