package models

import "time"

// Crypto is a validated point-in-time snapshot for one coin, keyed by the
// provider coin id (bitcoin, ethereum).
type Crypto struct {
	ID               string    `db:"id"                 json:"id"`
	Symbol           string    `db:"symbol"             json:"symbol"`
	Name             string    `db:"name"               json:"name"`
	CurrentPrice     float64   `db:"current_price"      json:"currentPrice"`
	Change24h        float64   `db:"change_24h"         json:"change24h"`
	ChangePercent24h float64   `db:"change_percent_24h" json:"changePercent24h"`
	MarketCap        float64   `db:"market_cap"         json:"marketCap"`
	Volume24h        float64   `db:"volume_24h"         json:"volume24h"`
	AsOf             time.Time `db:"as_of"              json:"asOf"`
}

// CoinSearchResult is one row of a coin name/symbol search.
type CoinSearchResult struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank int    `json:"marketCapRank"`
}
