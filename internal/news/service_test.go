package news

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/finfeed/internal/cache"
	"github.com/jonesrussell/finfeed/internal/logger"
	"github.com/jonesrussell/finfeed/internal/providers"
)

// stubProvider is a scripted chain member.
type stubProvider struct {
	name     string
	articles []map[string]any
	err      error
	calls    int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Headlines(_ context.Context, _ string, _ int) ([]map[string]any, error) {
	p.calls++
	return p.articles, p.err
}

func (p *stubProvider) Search(_ context.Context, _ string, _ int) ([]map[string]any, error) {
	p.calls++
	return p.articles, p.err
}

func article(title, url string) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "desc",
		"url":         url,
		"urlToImage":  url + "/img.png",
		"source":      "Reuters",
		"author":      "Staff",
		"publishedAt": "2026-08-30T09:00:00Z",
	}
}

func newTestService(chain ...*stubProvider) *Service {
	members := make([]providers.NewsProvider, 0, len(chain))
	for _, p := range chain {
		members = append(members, p)
	}
	return NewService(members, cache.New(time.Minute), logger.NewNop())
}

func TestHeadlinesMapsArticles(t *testing.T) {
	primary := &stubProvider{name: "newsapi", articles: []map[string]any{
		article("Markets rally", "https://example.com/rally"),
	}}
	svc := newTestService(primary)

	articles, err := svc.Headlines(context.Background(), "Business", 10)
	require.NoError(t, err)

	require.Len(t, articles, 1)
	got := articles[0]
	assert.Equal(t, "Markets rally", got.Title)
	assert.Equal(t, "https://example.com/rally", got.URL)
	assert.Equal(t, "Reuters", got.Source)
	assert.Equal(t, 2026, got.PublishedAt.Year())
	assert.NotEmpty(t, got.ID)
}

func TestArticleIDIsDeterministic(t *testing.T) {
	first := mapArticles([]map[string]any{article("A", "https://example.com/a")}, "newsapi")
	second := mapArticles([]map[string]any{article("A updated", "https://example.com/a")}, "gnews")

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestChainFallsBackToSecondProvider(t *testing.T) {
	primary := &stubProvider{name: "newsapi", err: errors.New("quota exceeded")}
	secondary := &stubProvider{name: "gnews", articles: []map[string]any{
		article("Backup headline", "https://example.com/backup"),
	}}
	svc := newTestService(primary, secondary)

	articles, err := svc.Headlines(context.Background(), "business", 10)
	require.NoError(t, err)

	require.Len(t, articles, 1)
	assert.Equal(t, "Backup headline", articles[0].Title)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestChainSkipsProviderWithNoUsableArticles(t *testing.T) {
	// All articles fail the gate, so the chain moves on.
	primary := &stubProvider{name: "newsapi", articles: []map[string]any{
		{"description": "no title or url"},
	}}
	secondary := &stubProvider{name: "gnews", articles: []map[string]any{
		article("Usable", "https://example.com/usable"),
	}}
	svc := newTestService(primary, secondary)

	articles, err := svc.Headlines(context.Background(), "business", 10)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Usable", articles[0].Title)
}

func TestHeadlinesDegradesToEmptyWhenChainExhausted(t *testing.T) {
	primary := &stubProvider{name: "newsapi", err: errors.New("down")}
	secondary := &stubProvider{name: "gnews", err: errors.New("also down")}
	svc := newTestService(primary, secondary)

	articles, err := svc.Headlines(context.Background(), "business", 10)
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestSearchCachesPerQuery(t *testing.T) {
	primary := &stubProvider{name: "newsapi", articles: []map[string]any{
		article("Result", "https://example.com/r"),
	}}
	svc := newTestService(primary)

	_, err := svc.Search(context.Background(), "nifty", 10)
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), "Nifty", 10)
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls)
}

func TestMapArticlesDropsInvalidAndKeepsRest(t *testing.T) {
	articles := mapArticles([]map[string]any{
		article("Good", "https://example.com/good"),
		{"title": "No URL"},
		article("Also good", "https://example.com/also"),
	}, "newsapi")

	require.Len(t, articles, 2)
}

func TestMapArticlesFallsBackToProviderNameForSource(t *testing.T) {
	raw := article("T", "https://example.com/t")
	delete(raw, "source")

	articles := mapArticles([]map[string]any{raw}, "gnews")
	require.Len(t, articles, 1)
	assert.Equal(t, "gnews", articles[0].Source)
}
