package generators

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const (
	minPeers            = 2
	maxPeers            = 5
	defaultPeopleSearch = "https://www.linkedin.com/search/results/people/?keywords="
	resolveTimeout      = 9 * time.Second
)

var defaultPersonas = []string{
	"Chief Financial Officer",
	"VP Procurement",
	"Head of Operations",
	"Director of IT",
	"VP Sales",
}

// PeerRequest names the account and the prospect to avoid.
type PeerRequest struct {
	Company      string
	Role         string
	ProspectName string
	Limit        int
}

// PeerFinder resolves vendor personas at the prospect's company into named profiles.
type PeerFinder struct {
	searcher  ports.PeopleSearcher
	cache     ports.ResolutionCache
	searchURL string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPeerFinder wires people search and its resolution cache; either may be nil.
func NewPeerFinder(searcher ports.PeopleSearcher, cache ports.ResolutionCache, searchURL string, timeout time.Duration, logger *slog.Logger) *PeerFinder {
	if searchURL == "" {
		searchURL = defaultPeopleSearch
	}
	if timeout <= 0 {
		timeout = resolveTimeout
	}
	return &PeerFinder{searcher: searcher, cache: cache, searchURL: searchURL, timeout: timeout, logger: logger}
}

// Find returns 2-5 peers whenever the company is known. When fewer than two
// profiles resolve, the list is topped up with synthesized entries that link
// to people-search pages and are flagged Synthesized.
func (f *PeerFinder) Find(ctx context.Context, s domain.RequestSettings, req PeerRequest) []domain.Peer {
	company := strings.TrimSpace(req.Company)
	if company == "" {
		return []domain.Peer{}
	}
	limit := ClampPeerLimit(req.Limit)
	personas := cleanList(s.Vendor.Personas, 0, 0)
	if len(personas) == 0 {
		personas = defaultPersonas
	}
	avoid := strings.ToLower(strings.TrimSpace(req.ProspectName))

	var (
		found []domain.Peer
		seen  = map[string]struct{}{}
	)
	for _, persona := range personas {
		if len(found) >= limit {
			break
		}
		peer, ok := f.resolve(ctx, f.SearchURL(company, persona), company, persona, avoid)
		if !ok {
			continue
		}
		key := strings.ToLower(strings.SplitN(peer.URL, "?", 2)[0])
		if _, dup := seen[key]; dup {
			continue
		}
		if avoid != "" && strings.Contains(strings.ToLower(peer.Name), avoid) {
			continue
		}
		seen[key] = struct{}{}
		if peer.Title == "" {
			peer.Title = persona
		}
		found = append(found, peer)
	}

	if len(found) >= minPeers {
		return found
	}
	if f.logger != nil {
		f.logger.Info("peer resolution short, synthesizing", "company", company, "resolved", len(found))
	}
	return append(found, f.Synthesize(company, personas, limit-len(found))...)
}

// Synthesize builds n deterministic placeholder peers from personas.
func (f *PeerFinder) Synthesize(company string, personas []string, n int) []domain.Peer {
	if len(personas) == 0 {
		personas = defaultPersonas
	}
	out := make([]domain.Peer, 0, n)
	for i := 0; i < n; i++ {
		persona := personas[i%len(personas)]
		if i >= len(personas) {
			persona = defaultPersonas[i%len(defaultPersonas)]
		}
		out = append(out, domain.Peer{
			Name:        persona + " at " + company,
			Title:       persona,
			URL:         f.SearchURL(company, persona),
			Synthesized: true,
		})
	}
	return out
}

// SearchURL is the people-search page for a persona at a company.
func (f *PeerFinder) SearchURL(company, persona string) string {
	return f.searchURL + url.QueryEscape(strings.TrimSpace(company+" "+persona))
}

func (f *PeerFinder) resolve(ctx context.Context, searchURL, company, persona, avoid string) (domain.Peer, bool) {
	if f.cache != nil {
		if peer, ok := f.cache.Get(ctx, searchURL); ok {
			return peer, true
		}
	}
	if f.searcher == nil {
		return domain.Peer{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	candidates, err := f.searcher.Search(ctx, searchURL)
	if err != nil {
		if f.logger != nil {
			f.logger.Debug("people search failed", "persona", persona, "error", err)
		}
		return domain.Peer{}, false
	}
	ranked := RankCandidates(candidates, company, persona, avoid)
	if len(ranked) == 0 || !strings.Contains(ranked[0].URL, "/in/") {
		return domain.Peer{}, false
	}
	best := ranked[0].Peer
	if f.cache != nil {
		f.cache.Set(ctx, searchURL, best)
	}
	return best, true
}

// RankCandidates orders candidates by +3 company match, +2 title match and
// -5 when the name matches the avoided prospect. Ties keep page order.
func RankCandidates(candidates []domain.PeerCandidate, company, title, avoid string) []domain.PeerCandidate {
	company = strings.ToLower(strings.TrimSpace(company))
	title = strings.ToLower(strings.TrimSpace(title))
	avoid = strings.ToLower(strings.TrimSpace(avoid))

	score := func(c domain.PeerCandidate) int {
		text := strings.ToLower(c.Text)
		s := 0
		if company != "" && strings.Contains(text, company) {
			s += 3
		}
		if title != "" && strings.Contains(text, title) {
			s += 2
		}
		if avoid != "" && strings.Contains(strings.ToLower(c.Name), avoid) {
			s -= 5
		}
		return s
	}

	ranked := make([]domain.PeerCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return score(ranked[i]) > score(ranked[j])
	})
	return ranked
}

// ClampPeerLimit bounds a requested limit to [2,5], defaulting to 5.
func ClampPeerLimit(n int) int {
	switch {
	case n <= 0:
		return maxPeers
	case n < minPeers:
		return minPeers
	case n > maxPeers:
		return maxPeers
	}
	return n
}
