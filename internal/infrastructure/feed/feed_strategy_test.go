package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
)

type plannerFunc func(company, mode string) []string

func (p plannerFunc) Queries(_ context.Context, _ domain.RequestSettings, company, mode, _ string) []string {
	return p(company, mode)
}

func rss(items ...string) string {
	body := `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>News</title>`
	for _, it := range items {
		body += it
	}
	return body + `</channel></rss>`
}

func rssItem(title, link string) string {
	return fmt.Sprintf(`<item><title><![CDATA[%s]]></title><link>%s</link></item>`, title, link)
}

func TestFetchAggregatesAcrossQueries(t *testing.T) {
	t.Parallel()

	feeds := map[string]string{
		"q1": rss(
			rssItem("Acme raises $50M - Example Wire", "https://wire.example.com/a"),
			rssItem("Acme hires CFO - Example Wire", "https://wire.example.com/b"),
		),
		"q2": rss(
			rssItem("Acme raises $50M - Other Daily", "https://daily.example.org/a"),
			rssItem("Acme opens office - Example Wire", "https://wire.example.com/c"),
			rssItem("Acme partners with Globex - Other Daily", "https://daily.example.org/b"),
		),
	}
	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
		body, ok := feeds[q]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	planner := plannerFunc(func(company, mode string) []string {
		assert.Equal(t, "Acme", company)
		assert.Equal(t, signals.ModeProduct, mode)
		return []string{"q1", "q2", "missing"}
	})
	strategy := NewStrategy(server.Client(), server.URL+"/rss?q=", "", planner, nil)

	items, err := strategy.Fetch(context.Background(), domain.RequestSettings{}, ports.SignalQuery{Company: "Acme", Mode: signals.ModeProduct, Limit: 8})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"q1", "q2", "missing"}, seen)
	assert.Equal(t, []string{"Acme raises $50M", "Acme hires CFO", "Acme partners with Globex"}, domain.Titles(items))
	assert.Equal(t, "wire.example.com", items[0].Source)
}

func TestFetchUsesFallbackQueriesWhenPlannerEmpty(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.URL.Query().Get("q"))
		mu.Unlock()
		_, _ = w.Write([]byte(rss()))
	}))
	defer server.Close()

	strategy := NewStrategy(server.Client(), server.URL+"/?q=", "", plannerFunc(func(string, string) []string { return nil }), nil)
	items, err := strategy.Fetch(context.Background(), domain.RequestSettings{}, ports.SignalQuery{Company: "Acme", Mode: "financial"})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.ElementsMatch(t, signals.FallbackQueries("Acme", "financial"), seen)
}

func TestSourceOfAggregatorLinks(t *testing.T) {
	t.Parallel()

	title, publisher := splitPublisher("Acme posts record quarter - Reuters")
	assert.Equal(t, "Acme posts record quarter", title)
	assert.Equal(t, "Reuters", publisher)
	assert.Equal(t, "reuters", sourceOf("https://news.google.com/rss/articles/abc", publisher))
	assert.Equal(t, "reuters.com", sourceOf("https://www.reuters.com/x", publisher))

	title, publisher = splitPublisher("No publisher here")
	assert.Equal(t, "No publisher here", title)
	assert.Empty(t, publisher)
}
