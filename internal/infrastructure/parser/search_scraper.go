package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
)

const (
	defaultSearchURL = "https://www.google.com/search?hl=en&gl=US&tbm=nws&q="
	maxScraped       = 10
	minAnchorText    = 20
)

var searchEngineHost = regexp.MustCompile(`(^|\.)google\.[a-z.]+$`)

// SearchScraper reads a news search results page and extracts publisher links.
type SearchScraper struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

var _ ports.SignalStrategy = (*SearchScraper)(nil)

// NewSearchScraper wires an HTTP client; baseURL must end with the query parameter.
func NewSearchScraper(client *http.Client, baseURL, userAgent string) *SearchScraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &SearchScraper{client: client, baseURL: baseURL, userAgent: userAgent}
}

// Name identifies the strategy inside the registry.
func (s *SearchScraper) Name() string {
	return signals.StrategySearch
}

// Fetch scrapes the result page for the company. Financial mode searches for
// "financial news about {company}".
func (s *SearchScraper) Fetch(ctx context.Context, _ domain.RequestSettings, q ports.SignalQuery) ([]domain.SignalItem, error) {
	company := strings.TrimSpace(q.Company)
	if company == "" {
		return nil, nil
	}
	query := company
	if q.Mode == signals.ModeFinancial {
		query = "financial news about " + company
	}

	doc, err := s.fetchDocument(ctx, s.baseURL+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return extractResults(doc), nil
}

func (s *SearchScraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractResults(doc *goquery.Document) []domain.SignalItem {
	root := doc.Find("#search").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var (
		out  []domain.SignalItem
		seen = map[string]struct{}{}
	)
	root.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		link := unwrapLink(href)
		if link == "" {
			return true
		}
		host := domain.HostOf(link)
		if host == "" || searchEngineHost.MatchString(host) {
			return true
		}

		title := resultTitle(a)
		if title == "" {
			return true
		}

		key := strings.ToLower(title + "|" + host)
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}

		out = append(out, domain.SignalItem{Title: title, URL: link, Source: host})
		return len(out) < maxScraped
	})
	return out
}

// unwrapLink resolves "/url?q=" and "/url?url=" redirects; only absolute http(s) links survive.
func unwrapLink(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if u.Path == "/url" && (u.Host == "" || searchEngineHost.MatchString(strings.TrimPrefix(u.Hostname(), "www."))) {
		target := u.Query().Get("url")
		if target == "" {
			target = u.Query().Get("q")
		}
		if u, err = url.Parse(target); err != nil {
			return ""
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func resultTitle(a *goquery.Selection) string {
	if t := collapse(a.Find("h3").First().Text()); t != "" {
		return t
	}
	if t := collapse(a.Find(`[role="heading"]`).First().Text()); t != "" {
		return t
	}
	parent := a.ParentsFiltered("div").First()
	if t := collapse(parent.Find("h3").First().Text()); t != "" {
		return t
	}
	if t := collapse(parent.Find(`[role="heading"]`).First().Text()); t != "" {
		return t
	}
	if t := collapse(a.Text()); len(t) > minAnchorText {
		return t
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
