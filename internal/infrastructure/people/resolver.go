// Package people resolves people-search result pages into candidate profiles.
package people

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// ErrNotSearchURL is returned for URLs that are not people-search pages.
var ErrNotSearchURL = errors.New("not a people-search url")

const cardSelector = "[data-chameleon-result-urn], .reusable-search__result-container, .entity-result, li, article"

var (
	titleLine = regexp.MustCompile(`(?i)chief|c[io]o|vp|director|head|lead|manager|engineer|product|marketing|sales|success|data|design|owner|founder`)
	spaces    = regexp.MustCompile(`[ \t\r\f\v]+`)
)

// Resolver loads a people-search page and returns every profile card on it.
type Resolver struct {
	client    *http.Client
	userAgent string
	cookie    string
}

var _ ports.PeopleSearcher = (*Resolver)(nil)

// NewResolver wires an HTTP client. cookie, when set, is sent verbatim.
func NewResolver(client *http.Client, userAgent, cookie string) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Resolver{client: client, userAgent: userAgent, cookie: cookie}
}

// Search returns candidates in page order.
func (r *Resolver) Search(ctx context.Context, searchURL string) ([]domain.PeerCandidate, error) {
	base, err := url.Parse(searchURL)
	if err != nil || !strings.Contains(base.Path, "/search/") {
		return nil, fmt.Errorf("%w: %s", ErrNotSearchURL, searchURL)
	}

	doc, err := r.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return extractCandidates(doc, base), nil
}

func (r *Resolver) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", r.cookie)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request people search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("people search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse people search: %w", err)
	}
	return doc, nil
}

func extractCandidates(doc *goquery.Document, base *url.URL) []domain.PeerCandidate {
	var out []domain.PeerCandidate
	doc.Find(`a[href*="/in/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		profile := base.ResolveReference(ref)
		if !strings.Contains(profile.Path, "/in/") {
			return
		}

		card := a.Closest(cardSelector)
		if card.Length() == 0 {
			card = a
		}
		lines := cardLines(card.Text())
		if len(lines) == 0 {
			return
		}

		title := ""
		for _, l := range lines[1:] {
			if titleLine.MatchString(l) {
				title = l
				break
			}
		}
		out = append(out, domain.PeerCandidate{
			Peer: domain.Peer{Name: lines[0], Title: title, URL: profile.String()},
			Text: strings.Join(lines, "\n"),
		})
	})
	return out
}

func cardLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(spaces.ReplaceAllString(l, " "))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
