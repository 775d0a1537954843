package providers

import "context"

// NewsProvider is one member of the priority-ordered news fallback chain.
// Implementations normalize raw articles to a common shape: title,
// description, url, urlToImage, source, author, publishedAt (RFC 3339).
type NewsProvider interface {
	// Name identifies the provider in logs.
	Name() string
	// Headlines fetches raw top headlines for a category.
	Headlines(ctx context.Context, category string, limit int) ([]map[string]any, error)
	// Search fetches raw articles matching a query.
	Search(ctx context.Context, query string, limit int) ([]map[string]any, error)
}
