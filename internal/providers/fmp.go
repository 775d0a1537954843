package providers

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jonesrussell/finfeed/internal/upstream"
)

// DefaultFMPBaseURL is the production Financial Modeling Prep endpoint.
const DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

// FMP adapts the Financial Modeling Prep API, the primary quote, profile,
// history, and search provider for stocks and market indices.
type FMP struct {
	baseURL string
	apiKey  string
	client  *upstream.Client
}

// NewFMP creates an FMP adapter. baseURL falls back to the production API.
func NewFMP(baseURL, apiKey string, client *upstream.Client) *FMP {
	if baseURL == "" {
		baseURL = DefaultFMPBaseURL
	}
	return &FMP{baseURL: baseURL, apiKey: apiKey, client: client}
}

func (p *FMP) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", p.apiKey)
	return p.baseURL + path + "?" + params.Encode()
}

// Quote fetches one raw quote. FMP wraps single quotes in an array; the first
// element is the entity.
func (p *FMP) Quote(ctx context.Context, symbol string) (map[string]any, error) {
	var quotes []map[string]any
	endpoint := p.endpoint("/quote/"+url.PathEscape(symbol), nil)
	if err := p.client.GetJSON(ctx, endpoint, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("fmp quote %s: %w", symbol, ErrNoData)
	}
	return quotes[0], nil
}

// Profile fetches the raw company profile for a symbol.
func (p *FMP) Profile(ctx context.Context, symbol string) (map[string]any, error) {
	var profiles []map[string]any
	endpoint := p.endpoint("/profile/"+url.PathEscape(symbol), nil)
	if err := p.client.GetJSON(ctx, endpoint, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("fmp profile %s: %w", symbol, ErrNoData)
	}
	return profiles[0], nil
}

// History fetches daily, weekly, or monthly OHLCV bars for a symbol.
func (p *FMP) History(ctx context.Context, symbol, timeframe string) ([]map[string]any, error) {
	path := "/historical-price-full"
	switch timeframe {
	case "weekly":
		path += "/weekly"
	case "monthly":
		path += "/monthly"
	}

	var payload struct {
		Historical []map[string]any `json:"historical"`
	}
	endpoint := p.endpoint(path+"/"+url.PathEscape(symbol), nil)
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if len(payload.Historical) == 0 {
		return nil, fmt.Errorf("fmp history %s: %w", symbol, ErrNoData)
	}
	return payload.Historical, nil
}

// Search looks up symbols by ticker or company name.
func (p *FMP) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var results []map[string]any
	endpoint := p.endpoint("/search", params)
	if err := p.client.GetJSON(ctx, endpoint, &results); err != nil {
		return nil, err
	}
	return results, nil
}
