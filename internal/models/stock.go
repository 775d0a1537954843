// Package models defines the domain records produced by the aggregation layer.
package models

import "time"

// Stock is a validated point-in-time quote for one listed symbol. Symbols keep
// their exchange suffix (AAPL, RELIANCE.NS).
type Stock struct {
	Symbol        string    `db:"symbol"         json:"symbol"`
	Name          string    `db:"name"           json:"name"`
	Exchange      string    `db:"exchange"       json:"exchange"`
	Price         float64   `db:"price"          json:"price"`
	Change        float64   `db:"change"         json:"change"`
	ChangePercent float64   `db:"change_percent" json:"changePercent"`
	Volume        int64     `db:"volume"         json:"volume"`
	MarketCap     float64   `db:"market_cap"     json:"marketCap"`
	AsOf          time.Time `db:"as_of"          json:"asOf"`
}

// StockProfile carries the slower-moving company facts joined into a
// composite lookup.
type StockProfile struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Industry    string  `json:"industry"`
	Sector      string  `json:"sector"`
	Website     string  `json:"website"`
	Description string  `json:"description"`
	Beta        float64 `json:"beta"`
}

// PricePoint is one OHLCV bar of chart history.
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// StockComplete is the composite record assembled from concurrent sub-fetches.
type StockComplete struct {
	Quote   Stock         `json:"quote"`
	Profile *StockProfile `json:"profile,omitempty"`
	History []PricePoint  `json:"history,omitempty"`
	// Degraded reports that one or more sub-fetches failed and the quote came
	// from a fallback source.
	Degraded bool `json:"degraded"`
}

// SearchResult is one row of a symbol/name search.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
}

// IndexQuote is one market index reading used by the market overview.
type IndexQuote struct {
	Name          string    `json:"name"`
	Value         float64   `json:"value"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	AsOf          time.Time `json:"asOf"`
}

// MarketBreadth summarizes advancing/declining issues for an exchange.
type MarketBreadth struct {
	Advances  int `json:"advances"`
	Declines  int `json:"declines"`
	Unchanged int `json:"unchanged"`
	// Estimated marks breadth derived from index performance rather than an
	// exchange feed.
	Estimated bool `json:"estimated"`
}

// MarketOverview is the Indian-market dashboard block.
type MarketOverview struct {
	Indices []IndexQuote  `json:"indices"`
	Breadth MarketBreadth `json:"breadth"`
}
