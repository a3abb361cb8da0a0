package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
)

const (
	defaultFeedURL = "https://news.google.com/rss/search?hl=en-US&gl=US&ceid=US:en&q="
	parallelFeeds  = 3
)

// Strategy aggregates query-driven news feeds. Queries come from a planner
// so each mode (financial, product, ...) searches differently.
type Strategy struct {
	client    *http.Client
	baseURL   string
	userAgent string
	planner   signals.QueryPlanner
	logger    *slog.Logger
}

var _ ports.SignalStrategy = (*Strategy)(nil)

// NewStrategy wires an HTTP client and query planner; baseURL must end with the query parameter.
func NewStrategy(client *http.Client, baseURL, userAgent string, planner signals.QueryPlanner, logger *slog.Logger) *Strategy {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultFeedURL
	}
	return &Strategy{client: client, baseURL: baseURL, userAgent: userAgent, planner: planner, logger: logger}
}

// Name identifies the strategy inside the registry.
func (s *Strategy) Name() string {
	return signals.StrategyFeed
}

// Fetch plans queries, pulls one feed per query concurrently and aggregates
// the items in query order. Individual feed failures are skipped.
func (s *Strategy) Fetch(ctx context.Context, settings domain.RequestSettings, q ports.SignalQuery) ([]domain.SignalItem, error) {
	company := strings.TrimSpace(q.Company)
	if company == "" {
		return nil, nil
	}

	var queries []string
	if s.planner != nil {
		queries = s.planner.Queries(ctx, settings, company, q.Mode, q.Instruction)
	}
	if len(queries) == 0 {
		queries = signals.FallbackQueries(company, q.Mode)
	}
	queries = signals.CleanQueries(queries)

	results := make([][]domain.SignalItem, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelFeeds)
	for i, query := range queries {
		g.Go(func() error {
			items, err := s.fetchFeed(gctx, s.baseURL+url.QueryEscape(query))
			if err != nil {
				s.debug("feed fetch failed", "query", query, "error", err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch feeds: %w", err)
	}

	var all []domain.SignalItem
	for _, items := range results {
		all = append(all, items...)
	}
	return signals.Aggregate(all, q.Limit), nil
}

func (s *Strategy) fetchFeed(ctx context.Context, feedURL string) ([]domain.SignalItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status: %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]domain.SignalItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}
		title, publisher := splitPublisher(title)
		items = append(items, domain.SignalItem{
			Title:  title,
			URL:    link,
			Source: sourceOf(link, publisher),
		})
	}
	return items, nil
}

// splitPublisher separates the "Headline - Publisher" suffix aggregators append.
func splitPublisher(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 || idx+3 >= len(title) {
		return title, ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

// sourceOf prefers the link host unless the link points back at the aggregator,
// in which case the publisher name identifies the source.
func sourceOf(link, publisher string) string {
	host := domain.HostOf(link)
	if publisher != "" && (host == "" || strings.HasPrefix(host, "news.google.")) {
		return strings.ToLower(publisher)
	}
	return host
}

func (s *Strategy) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
