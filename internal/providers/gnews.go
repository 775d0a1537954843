package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/jonesrussell/finfeed/internal/upstream"
)

// DefaultGNewsBaseURL is the production GNews endpoint.
const DefaultGNewsBaseURL = "https://gnews.io/api/v4"

// GNews adapts gnews.io, the secondary provider in the news chain.
type GNews struct {
	baseURL string
	apiKey  string
	client  *upstream.Client
}

// NewGNews creates a GNews adapter. baseURL falls back to the production API.
func NewGNews(baseURL, apiKey string, client *upstream.Client) *GNews {
	if baseURL == "" {
		baseURL = DefaultGNewsBaseURL
	}
	return &GNews{baseURL: baseURL, apiKey: apiKey, client: client}
}

// Name identifies the provider in logs.
func (p *GNews) Name() string { return "gnews" }

// Headlines fetches top headlines for a category.
func (p *GNews) Headlines(ctx context.Context, category string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("apikey", p.apiKey)
	params.Set("lang", "en")
	params.Set("category", category)
	params.Set("max", strconv.Itoa(limit))

	return p.articles(ctx, p.baseURL+"/top-headlines?"+params.Encode())
}

// Search fetches articles matching a query.
func (p *GNews) Search(ctx context.Context, query string, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("apikey", p.apiKey)
	params.Set("lang", "en")
	params.Set("q", query)
	params.Set("max", strconv.Itoa(limit))

	return p.articles(ctx, p.baseURL+"/search?"+params.Encode())
}

func (p *GNews) articles(ctx context.Context, endpoint string) ([]map[string]any, error) {
	var payload struct {
		Articles []map[string]any `json:"articles"`
	}
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	// Normalize GNews fields to the shared article shape.
	out := make([]map[string]any, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if img, ok := a["image"]; ok {
			a["urlToImage"] = img
		}
		if src, ok := a["source"].(map[string]any); ok {
			a["source"] = src["name"]
		}
		out = append(out, a)
	}
	return out, nil
}
