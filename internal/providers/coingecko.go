package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jonesrussell/finfeed/internal/upstream"
)

// DefaultCoinGeckoBaseURL is the production CoinGecko endpoint.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko adapts the CoinGecko API, the coin-data provider.
type CoinGecko struct {
	baseURL string
	client  *upstream.Client
}

// NewCoinGecko creates a CoinGecko adapter. baseURL falls back to the
// production API.
func NewCoinGecko(baseURL string, client *upstream.Client) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	return &CoinGecko{baseURL: baseURL, client: client}
}

// Coin fetches the raw market snapshot for one coin id.
func (p *CoinGecko) Coin(ctx context.Context, id string) (map[string]any, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", id)

	var coins []map[string]any
	endpoint := p.baseURL + "/coins/markets?" + params.Encode()
	if err := p.client.GetJSON(ctx, endpoint, &coins); err != nil {
		return nil, err
	}
	if len(coins) == 0 {
		return nil, fmt.Errorf("coingecko coin %s: %w", id, ErrNoData)
	}
	return coins[0], nil
}

// Markets fetches the top-n coins by market cap.
func (p *CoinGecko) Markets(ctx context.Context, n int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("order", "market_cap_desc")
	params.Set("per_page", strconv.Itoa(n))
	params.Set("page", "1")

	var coins []map[string]any
	endpoint := p.baseURL + "/coins/markets?" + params.Encode()
	if err := p.client.GetJSON(ctx, endpoint, &coins); err != nil {
		return nil, err
	}
	return coins, nil
}

// Search looks up coins by name or symbol.
func (p *CoinGecko) Search(ctx context.Context, query string) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("query", query)

	var payload struct {
		Coins []map[string]any `json:"coins"`
	}
	endpoint := p.baseURL + "/search?" + params.Encode()
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Coins, nil
}
