package signals

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const financialTitleWords = 16

// Observer records how many items each strategy produced.
type Observer interface {
	Signals(strategy string, n int)
}

// FetcherConfig tunes limits and link building.
type FetcherConfig struct {
	Engine         string
	NewsMode       string
	NewsLimit      int
	FinancialLimit int
	SearchURL      string
}

// Fetcher runs a primary strategy and falls back to the secondary one when
// the primary yields nothing. It never returns an error: an empty list is a
// valid "no data found" state.
type Fetcher struct {
	registry *Registry
	cfg      FetcherConfig
	observer Observer
	logger   *slog.Logger
}

// NewFetcher wires the strategy registry.
func NewFetcher(reg *Registry, cfg FetcherConfig, observer Observer, logger *slog.Logger) *Fetcher {
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = 6
	}
	if cfg.NewsLimit > domain.MaxNews {
		cfg.NewsLimit = domain.MaxNews
	}
	if cfg.FinancialLimit <= 0 {
		cfg.FinancialLimit = 5
	}
	if cfg.FinancialLimit > domain.MaxFinancial {
		cfg.FinancialLimit = domain.MaxFinancial
	}
	if cfg.Engine == "" {
		cfg.Engine = StrategySearch
	}
	return &Fetcher{registry: reg, cfg: cfg, observer: observer, logger: logger}
}

// News returns recent company headlines using the request's engine choice.
func (f *Fetcher) News(ctx context.Context, settings domain.RequestSettings, company string) []domain.SignalItem {
	if strings.TrimSpace(company) == "" {
		return []domain.SignalItem{}
	}
	engine := settings.NewsEngine
	if engine == "" {
		engine = f.cfg.Engine
	}
	mode := settings.NewsMode
	if mode == "" {
		mode = f.cfg.NewsMode
	}
	instruction := settings.Instruction
	if instruction == "" {
		instruction = DefaultInstruction(settings.Vendor.IndustryHint)
	}

	q := ports.SignalQuery{
		Company:     company,
		Mode:        NormalizeMode(mode),
		Instruction: instruction,
		Limit:       f.cfg.NewsLimit,
	}
	return f.fetch(ctx, settings, order(engine), q, nil)
}

// Financial returns link-bearing financial headlines: feed titles filtered to
// financial events first, a search scrape second.
func (f *Fetcher) Financial(ctx context.Context, settings domain.RequestSettings, company string) []domain.SignalItem {
	if strings.TrimSpace(company) == "" {
		return []domain.SignalItem{}
	}
	q := ports.SignalQuery{
		Company: company,
		Mode:    ModeFinancial,
		Limit:   f.cfg.FinancialLimit,
	}
	filter := func(name string, items []domain.SignalItem) []domain.SignalItem {
		if name == StrategyFeed {
			return FilterFinancial(items, financialTitleWords)
		}
		return items
	}
	items := f.fetch(ctx, settings, []string{StrategyFeed, StrategySearch}, q, filter)
	return f.Materialize(ctx, settings, company, items)
}

// Materialize guarantees every item carries a link. Title-only items are
// replaced by a real search scrape when one is available, otherwise each
// title becomes a search link.
func (f *Fetcher) Materialize(ctx context.Context, settings domain.RequestSettings, company string, items []domain.SignalItem) []domain.SignalItem {
	missing := false
	for _, it := range items {
		if strings.TrimSpace(it.URL) == "" {
			missing = true
			break
		}
	}
	if !missing {
		return Aggregate(items, f.cfg.FinancialLimit)
	}

	if scraped := f.run(ctx, settings, StrategySearch, ports.SignalQuery{
		Company: company,
		Mode:    ModeFinancial,
		Limit:   f.cfg.FinancialLimit,
	}); len(scraped) > 0 {
		return Aggregate(scraped, f.cfg.FinancialLimit)
	}

	// Links are synthesized after aggregation: they all share the search
	// host and must not count against MaxPerHost.
	out := Aggregate(items, f.cfg.FinancialLimit)
	for i := range out {
		if strings.TrimSpace(out[i].URL) == "" {
			out[i].URL = f.searchLink(company + " " + out[i].Title)
			out[i].Source = domain.HostOf(out[i].URL)
		}
	}
	return out
}

func (f *Fetcher) fetch(ctx context.Context, settings domain.RequestSettings, names []string, q ports.SignalQuery, filter func(string, []domain.SignalItem) []domain.SignalItem) []domain.SignalItem {
	for _, name := range names {
		items := f.run(ctx, settings, name, q)
		if filter != nil {
			items = filter(name, items)
		}
		items = Aggregate(items, q.Limit)
		if len(items) > 0 {
			return items
		}
		f.debug("strategy empty, trying next", "strategy", name, "company", q.Company, "mode", q.Mode)
	}
	return []domain.SignalItem{}
}

func (f *Fetcher) run(ctx context.Context, settings domain.RequestSettings, name string, q ports.SignalQuery) []domain.SignalItem {
	if f.registry == nil {
		return nil
	}
	strategy, err := f.registry.Resolve(name)
	if err != nil {
		f.debug("strategy unavailable", "strategy", name, "error", err)
		return nil
	}
	items, err := strategy.Fetch(ctx, settings, q)
	if err != nil {
		if f.logger != nil {
			f.logger.Warn("signal fetch failed", "strategy", name, "company", q.Company, "error", err)
		}
		return nil
	}
	if f.observer != nil {
		f.observer.Signals(name, len(items))
	}
	return items
}

func (f *Fetcher) searchLink(query string) string {
	base := f.cfg.SearchURL
	if base == "" {
		base = "https://www.google.com/search?hl=en&gl=US&tbm=nws&q="
	}
	return base + url.QueryEscape(strings.TrimSpace(query))
}

func order(engine string) []string {
	if engine == StrategyFeed {
		return []string{StrategyFeed, StrategySearch}
	}
	return []string{StrategySearch, StrategyFeed}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
