package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jonesrussell/finfeed/internal/upstream"
)

// DefaultNewsAPIBaseURL is the production NewsAPI endpoint.
const DefaultNewsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPI adapts newsapi.org, the primary provider in the news chain.
type NewsAPI struct {
	baseURL string
	apiKey  string
	client  *upstream.Client
}

// NewNewsAPI creates a NewsAPI adapter. baseURL falls back to the production
// API.
func NewNewsAPI(baseURL, apiKey string, client *upstream.Client) *NewsAPI {
	if baseURL == "" {
		baseURL = DefaultNewsAPIBaseURL
	}
	return &NewsAPI{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs.
func (p *NewsAPI) Name() string { return "newsapi" }

// Headlines fetches top headlines for a category.
func (p *NewsAPI) Headlines(ctx context.Context, category string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("language", "en")
	params.Set("category", category)
	params.Set("pageSize", strconv.Itoa(limit))

	return p.articles(ctx, p.baseURL+"/top-headlines?"+params.Encode())
}

// Search fetches articles matching a query, newest first.
func (p *NewsAPI) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("apiKey", p.apiKey)
	params.Set("language", "en")
	params.Set("q", query)
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(limit))

	return p.articles(ctx, p.baseURL+"/everything?"+params.Encode())
}

func (p *NewsAPI) articles(ctx context.Context, endpoint string) ([]map[string]any, error) {
	var payload struct {
		Articles []map[string]any `json:"articles"`
	}
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	// NewsAPI articles already match the normalized shape except for the
	// nested source object.
	out := make([]map[string]any, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if src, ok := a["source"].(map[string]any); ok {
			a["source"] = src["name"]
		}
		out = append(out, a)
	}
	return out, nil
}
