package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

type fakeStrategy struct {
	name  string
	items []domain.SignalItem
	err   error
	calls []ports.SignalQuery
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(_ context.Context, _ domain.RequestSettings, q ports.SignalQuery) ([]domain.SignalItem, error) {
	f.calls = append(f.calls, q)
	return f.items, f.err
}

type countingObserver map[string]int

func (c countingObserver) Signals(strategy string, n int) { c[strategy] += n }

func item(title, url string) domain.SignalItem {
	return domain.SignalItem{Title: title, URL: url}
}

func assertAggregated(t *testing.T, items []domain.SignalItem) {
	t.Helper()
	titles := map[string]bool{}
	hosts := map[string]int{}
	for _, it := range items {
		assert.False(t, titles[it.Key()], "duplicate title %q", it.Title)
		titles[it.Key()] = true
		if h := it.Host(); h != "" {
			hosts[h]++
			assert.LessOrEqual(t, hosts[h], MaxPerHost, "host %s", h)
		}
	}
}

func TestAggregateDedupesAndCapsHosts(t *testing.T) {
	t.Parallel()

	in := []domain.SignalItem{
		item("Acme raises $50M", "https://news.example.com/a"),
		item("  ACME raises   $50M ", "https://other.example.org/a"),
		item("Acme opens Berlin office", "https://news.example.com/b"),
		item("Acme hires CFO", "https://www.news.example.com/c"),
		item("Acme partners with Globex", "https://wire.example.net/d"),
		item("", "https://wire.example.net/e"),
	}

	out := Aggregate(in, 0)

	assertAggregated(t, out)
	assert.Equal(t, []string{"Acme raises $50M", "Acme opens Berlin office", "Acme partners with Globex"}, domain.Titles(out))
}

func TestAggregateRespectsLimit(t *testing.T) {
	t.Parallel()

	var in []domain.SignalItem
	for i := 0; i < 20; i++ {
		in = append(in, item(fmt.Sprintf("Headline %d", i), fmt.Sprintf("https://host%d.example.com/x", i)))
	}
	out := Aggregate(in, domain.MaxNews)
	assert.Len(t, out, domain.MaxNews)
}

func TestFilterFinancialClipsTitles(t *testing.T) {
	t.Parallel()

	long := "Acme reports record quarterly revenue as cloud demand accelerates across every single region it operates in worldwide today"
	out := FilterFinancial([]domain.SignalItem{
		item(long, ""),
		item("Acme sponsors local marathon", ""),
		item("Acme agrees M&A deal", ""),
	}, 16)

	require.Len(t, out, 2)
	assert.Len(t, strings.Fields(out[0].Title), 16)
	assert.Equal(t, "Acme agrees M&A deal", out[1].Title)
}

func TestFallbackQueriesPerMode(t *testing.T) {
	t.Parallel()

	fin := FallbackQueries("Acme", "financial")
	assert.Equal(t, `"Acme" earnings OR results OR revenue OR guidance`, fin[0])
	assert.Len(t, fin, 3)

	assert.Equal(t, FallbackQueries("Acme", "generic"), FallbackQueries("Acme", "nonsense"))
	for _, mode := range []string{ModeProduct, ModeHiring, ModeRisk, ModeExec, ModePartnerships} {
		assert.NotEmpty(t, FallbackQueries("Acme", mode), mode)
	}
}

func TestCleanQueries(t *testing.T) {
	t.Parallel()

	in := []string{" a ", "A", "", "b", "c", "d", "e", "f", "g"}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, CleanQueries(in))
}

func newFetcher(strategies ...ports.SignalStrategy) (*Fetcher, countingObserver) {
	reg := NewRegistry()
	for _, s := range strategies {
		reg.Register(s)
	}
	obs := countingObserver{}
	return NewFetcher(reg, FetcherConfig{NewsLimit: 8, FinancialLimit: 8}, obs, nil), obs
}

func TestNewsFallsBackToSecondaryStrategy(t *testing.T) {
	t.Parallel()

	search := &fakeStrategy{name: StrategySearch}
	feed := &fakeStrategy{name: StrategyFeed, items: []domain.SignalItem{
		item("Acme launches AI copilot", "https://a.example.com/1"),
		item("Acme launches AI copilot", "https://b.example.com/1"),
	}}
	f, obs := newFetcher(search, feed)

	out := f.News(context.Background(), domain.RequestSettings{}, "Acme")

	require.Len(t, out, 1)
	assert.Equal(t, "Acme launches AI copilot", out[0].Title)
	assert.Len(t, search.calls, 1)
	assert.Len(t, feed.calls, 1)
	assert.Equal(t, 2, obs[StrategyFeed])
}

func TestNewsEngineSelection(t *testing.T) {
	t.Parallel()

	search := &fakeStrategy{name: StrategySearch, items: []domain.SignalItem{item("From search", "https://s.example.com")}}
	feed := &fakeStrategy{name: StrategyFeed, items: []domain.SignalItem{item("From feed", "https://f.example.com")}}
	f, _ := newFetcher(search, feed)

	out := f.News(context.Background(), domain.RequestSettings{NewsEngine: StrategyFeed, NewsMode: "product"}, "Acme")

	assert.Equal(t, []string{"From feed"}, domain.Titles(out))
	assert.Empty(t, search.calls)
	require.Len(t, feed.calls, 1)
	assert.Equal(t, ModeProduct, feed.calls[0].Mode)
	assert.Contains(t, feed.calls[0].Instruction, "Prioritize items relevant to")
}

func TestNewsBothEmptyIsEmptyList(t *testing.T) {
	t.Parallel()

	f, _ := newFetcher(
		&fakeStrategy{name: StrategySearch, err: errors.New("blocked")},
		&fakeStrategy{name: StrategyFeed},
	)

	out := f.News(context.Background(), domain.RequestSettings{}, "Acme")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNewsWithoutCompanySkipsStrategies(t *testing.T) {
	t.Parallel()

	search := &fakeStrategy{name: StrategySearch}
	f, _ := newFetcher(search)

	assert.Empty(t, f.News(context.Background(), domain.RequestSettings{}, " "))
	assert.Empty(t, f.Financial(context.Background(), domain.RequestSettings{}, ""))
	assert.Empty(t, search.calls)
}

func TestFinancialFiltersFeedAndMaterializesLinks(t *testing.T) {
	t.Parallel()

	feed := &fakeStrategy{name: StrategyFeed, items: []domain.SignalItem{
		item("Acme Q3 revenue beats guidance", ""),
		item("Acme wins design award", ""),
	}}
	search := &fakeStrategy{name: StrategySearch}
	f, _ := newFetcher(feed, search)

	out := f.Financial(context.Background(), domain.RequestSettings{}, "Acme")

	require.Len(t, out, 1)
	assert.Equal(t, "Acme Q3 revenue beats guidance", out[0].Title)
	assert.True(t, strings.HasPrefix(out[0].URL, "https://www.google.com/search?"))
	assert.Equal(t, "google.com", out[0].Source)
	require.Len(t, search.calls, 1)
	assert.Equal(t, ModeFinancial, search.calls[0].Mode)
}

func TestMaterializeSearchLinksIgnoreHostCap(t *testing.T) {
	t.Parallel()

	f, _ := newFetcher()
	titles := []domain.SignalItem{
		{Title: "Acme Q1 revenue up"},
		{Title: "Acme Q2 revenue up"},
		{Title: "Acme Q3 revenue up"},
		{Title: "Acme Q4 revenue up"},
		{Title: "Acme Q4 revenue up"},
	}

	out := f.Materialize(context.Background(), domain.RequestSettings{}, "Acme", titles)

	require.Len(t, out, 4)
	for _, it := range out {
		assert.Equal(t, "google.com", it.Source)
	}
}

func TestMaterializePrefersScrapedLinks(t *testing.T) {
	t.Parallel()

	search := &fakeStrategy{name: StrategySearch, items: []domain.SignalItem{
		item("Acme acquires Globex", "https://wire.example.com/acq"),
	}}
	f, _ := newFetcher(search)

	out := f.Materialize(context.Background(), domain.RequestSettings{}, "Acme", []domain.SignalItem{{Title: "Acme buys a company"}})

	assert.Equal(t, []domain.SignalItem{item("Acme acquires Globex", "https://wire.example.com/acq")}, out)
}
