package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
	"ProspectPilot/internal/signals"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<a href="https://www.google.com/preferences">Settings</a>
<div id="search">
  <div><a href="/url?q=https://news.example.com/acme-funding&amp;sa=U"><h3>Acme raises $50M Series C</h3></a></div>
  <div><a href="/url?url=https://wire.example.org/acme-berlin"><div role="heading">Acme opens Berlin office</div></a></div>
  <div><a href="https://news.example.com/acme-funding"><h3>Acme raises $50M Series C</h3></a></div>
  <div><a href="https://maps.google.com/somewhere"><h3>Map result</h3></a></div>
  <div><h3>Acme names new CFO to lead expansion</h3><a href="https://biz.example.net/cfo">Read more</a></div>
  <div><a href="https://blog.example.io/x">short</a></div>
  <div><a href="javascript:void(0)"><h3>Not a link</h3></a></div>
</div>
</body></html>`

func TestSearchScraperExtractsPublisherLinks(t *testing.T) {
	t.Parallel()

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	scraper := NewSearchScraper(server.Client(), server.URL+"/search?tbm=nws&q=", "test-agent")
	items, err := scraper.Fetch(context.Background(), domain.RequestSettings{}, ports.SignalQuery{Company: "Acme Corp", Mode: signals.ModeFinancial})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}

	if gotQuery != "financial news about Acme Corp" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(items), items)
	}

	want := []domain.SignalItem{
		{Title: "Acme raises $50M Series C", URL: "https://news.example.com/acme-funding", Source: "news.example.com"},
		{Title: "Acme opens Berlin office", URL: "https://wire.example.org/acme-berlin", Source: "wire.example.org"},
		{Title: "Acme names new CFO to lead expansion", URL: "https://biz.example.net/cfo", Source: "biz.example.net"},
	}
	for i := range want {
		if items[i] != want[i] {
			t.Fatalf("item %d mismatch:\nwant %+v\ngot  %+v", i, want[i], items[i])
		}
	}
}

func TestSearchScraperErrorsOnBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	scraper := NewSearchScraper(server.Client(), server.URL+"/?q=", "")
	_, err := scraper.Fetch(context.Background(), domain.RequestSettings{}, ports.SignalQuery{Company: "Acme"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSearchScraperSkipsEmptyCompany(t *testing.T) {
	t.Parallel()

	scraper := NewSearchScraper(nil, "http://127.0.0.1:0/?q=", "")
	items, err := scraper.Fetch(context.Background(), domain.RequestSettings{}, ports.SignalQuery{})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected no items and no error, got %v %v", items, err)
	}
}

func TestUnwrapLink(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"/url?q=https://a.example.com/x&sa=U":                 "https://a.example.com/x",
		"https://www.google.com/url?url=https://b.example.com": "https://b.example.com",
		"https://c.example.com/page":                          "https://c.example.com/page",
		"/search?q=acme":                                      "",
		"mailto:someone@example.com":                          "",
	}
	for in, want := range cases {
		if got := unwrapLink(in); got != want {
			t.Errorf("unwrapLink(%q) = %q, want %q", in, got, want)
		}
	}
}
