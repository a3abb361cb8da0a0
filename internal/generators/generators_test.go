package generators

import (
	"context"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

type fakeGen struct {
	mu    sync.Mutex
	reply string
	ok    bool
	calls []ports.JSONRequest
}

func (f *fakeGen) GenerateJSON(_ context.Context, _ domain.RequestSettings, req ports.JSONRequest, fallback string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if !f.ok {
		return fallback, false
	}
	return f.reply, true
}

type fallbackCounter map[string]int

func (c fallbackCounter) Fallback(name string) { c[name]++ }

func answering(reply string) *fakeGen { return &fakeGen{reply: reply, ok: true} }

func failing() *fakeGen { return &fakeGen{} }

func settings() domain.RequestSettings {
	return domain.RequestSettings{Vendor: domain.VendorContext{
		Name:          "Procurely",
		Website:       "https://procurely.example",
		Pitch:         "Spend analytics for procurement teams",
		ValueProps:    []string{"cut maverick spend", "shorten sourcing cycles"},
		Outcomes:      []string{"savings"},
		Personas:      []string{"Head of Procurement", "CFO"},
		CTAPreference: "Book a 15-min demo",
		BookingURL:    "https://cal.example/procurely",
		Signature:     "Dana\nProcurely",
	}}
}

func TestResponsibilitiesUsesModelText(t *testing.T) {
	t.Parallel()

	gen := answering(`{"text":"1) Owns supplier negotiations"}`)
	g := New(gen, nil, nil)

	out := g.Responsibilities(context.Background(), settings(), domain.ProfileSnapshot{Role: "VP Procurement"}, "Acme")

	assert.Equal(t, "1) Owns supplier negotiations", out)
	require.Len(t, gen.calls, 1)
	assert.Contains(t, gen.calls[0].User, "VP Procurement")
}

func TestResponsibilitiesFallsBackWhenModelFails(t *testing.T) {
	t.Parallel()

	counter := fallbackCounter{}
	g := New(failing(), nil, counter)

	out := g.Responsibilities(context.Background(), settings(), domain.ProfileSnapshot{Role: "VP Procurement"}, "Acme")

	assert.Equal(t, FallbackResponsibilities("VP Procurement", "Acme"), out)
	assert.Contains(t, out, "Target: VP Procurement — Acme")
	assert.Equal(t, 1, counter["responsibilities"])
}

func TestResponsibilitiesCompanyOnly(t *testing.T) {
	t.Parallel()

	gen := answering(`{"text":"never used"}`)
	g := New(gen, nil, nil)

	out := g.Responsibilities(context.Background(), settings(), domain.ProfileSnapshot{}, "Acme")

	assert.Contains(t, out, "Target: Acme")
	assert.Empty(t, gen.calls)
	assert.Empty(t, g.Responsibilities(context.Background(), settings(), domain.ProfileSnapshot{}, ""))
}

func TestSchemaMismatchDegrades(t *testing.T) {
	t.Parallel()

	counter := fallbackCounter{}
	g := New(answering(`{"items":"not a list"}`), nil, counter)

	out := g.Insights(context.Background(), settings(), domain.ProfileSnapshot{Posts: []string{"Shared a post about supplier risk"}})

	assert.Empty(t, out)
	assert.NotNil(t, out)
	assert.Equal(t, 1, counter["insights"])
}

func TestInsightsCapped(t *testing.T) {
	t.Parallel()

	g := New(answering(`{"items":["a","b"," ","c","d","e","f"]}`), nil, nil)

	out := g.Insights(context.Background(), settings(), domain.ProfileSnapshot{Posts: []string{"post"}})

	assert.Equal(t, []string{"a", "b", "c", "d"}, out)
}

func TestInsightsSkipsCallWithoutPosts(t *testing.T) {
	t.Parallel()

	gen := answering(`{"items":["a"]}`)
	out := New(gen, nil, nil).Insights(context.Background(), settings(), domain.ProfileSnapshot{})

	assert.Empty(t, out)
	assert.Empty(t, gen.calls)
}

func TestClassifyFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reply     string
		ok        bool
		wantLevel domain.FitLevel
		wantKnown bool
		wantConf  float64
	}{
		{"numeric confidence", `{"fitLevel":"High","confidence":85,"reasoning":"Owns budget"}`, true, domain.FitHigh, true, 85},
		{"string confidence", `{"fitLevel":"highest fit","confidence":"90","reasoning":"CPO"}`, true, domain.FitHighest, true, 90},
		{"unknown level normalizes", `{"fitLevel":"excellent","reasoning":"?"}`, true, domain.FitMedium, true, 0},
		{"gateway fallback", ``, false, domain.FitMedium, false, 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g := New(&fakeGen{reply: tc.reply, ok: tc.ok}, nil, nil)
			fit := g.ClassifyFit(context.Background(), settings(), "Negotiates supplier contracts", "VP", "Acme")

			assert.Equal(t, tc.wantLevel, fit.Level)
			assert.Equal(t, tc.wantKnown, fit.Known)
			assert.InDelta(t, tc.wantConf, fit.Confidence, 0.001)
			assert.Contains(t, domain.ValidBadges, fit.Badge())
		})
	}
}

func TestFitSummary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Confidence 85% — Owns budget", Fit{Confidence: 85, Reasoning: "Owns budget"}.Summary())
	assert.Equal(t, "Fit: High", Fit{SummaryLine: "Fit: High"}.Summary())
}

func TestClassifyFitWithoutResponsibilities(t *testing.T) {
	t.Parallel()

	gen := answering(`{"fitLevel":"High"}`)
	fit := New(gen, nil, nil).ClassifyFit(context.Background(), settings(), "  ", "VP", "Acme")

	assert.False(t, fit.Known)
	assert.Empty(t, gen.calls)
}

func TestActionPlanCapsModelOutput(t *testing.T) {
	t.Parallel()

	reply := `{"paragraph":"` + strings.Repeat("x", 900) + `","bullets":["1","2","3","4","5","6","7"],"cta_line":"Book it"}`
	g := New(answering(reply), nil, nil)

	plan := g.ActionPlan(context.Background(), settings(), PlanInput{Company: "Acme", Fit: domain.FitHigh})

	assert.Len(t, plan.Paragraph, maxPlanParagraph)
	assert.Len(t, plan.Bullets, domain.MaxPlanBullets)
	assert.Equal(t, "Book it", plan.CTALine)
}

func TestActionPlanFallback(t *testing.T) {
	t.Parallel()

	in := PlanInput{
		Profile: domain.ProfileSnapshot{Name: "Jane Doe", Role: "Sales Engineer"},
		Company: "Acme",
		Fit:     domain.FitLow,
	}

	for _, gen := range []*fakeGen{failing(), answering(`{"paragraph":"p","bullets":[]}`)} {
		plan := New(gen, nil, nil).ActionPlan(context.Background(), settings(), in)

		require.Len(t, plan.Bullets, 3)
		assert.Contains(t, plan.Bullets[1], "referral")
		assert.Contains(t, plan.Bullets[1], "Head of Procurement")
		assert.Contains(t, plan.CTALine, "https://cal.example/procurely")
		assert.Equal(t, "Position Procurely with the Sales Engineer at Acme by tying the first conversation to cut maverick spend.", plan.Paragraph)
	}
}

func TestFallbackActionPlanKeepsNonASCIICTA(t *testing.T) {
	t.Parallel()

	plan := FallbackActionPlan(domain.VendorContext{CTAPreference: "Échangeons 15 minutes"}, PlanInput{})

	assert.True(t, utf8.ValidString(plan.CTALine))
	assert.Equal(t, "Prep a 15-minute discovery outline, then échangeons 15 minutes.", plan.CTALine)
	assert.Equal(t, "Position your offer with the buying team at the account by tying the first conversation to a clear business outcome.", plan.Paragraph)
}

func TestFallbackActionPlanHighFit(t *testing.T) {
	t.Parallel()

	plan := FallbackActionPlan(settings().Vendor, PlanInput{Company: "Acme", Fit: domain.FitHighest, Profile: domain.ProfileSnapshot{Role: "CPO"}})

	require.Len(t, plan.Bullets, 3)
	assert.Contains(t, plan.Bullets[1], "cut maverick spend")
	for _, b := range plan.Bullets {
		assert.NotContains(t, b, "referral")
	}
}

func TestHeadlineSummariesKeepsOrder(t *testing.T) {
	t.Parallel()

	items := []domain.SignalItem{
		{Title: "Acme raises $50M"},
		{Title: "Acme hires CFO", Summary: "already set"},
		{Title: "Acme opens office"},
	}
	g := New(answering(`{"summaries":["Funding round led by investors.",null]}`), nil, nil)

	out := g.HeadlineSummaries(context.Background(), settings(), "Acme", items)

	require.Len(t, out, 3)
	assert.Equal(t, "Funding round led by investors.", out[0].Summary)
	assert.Equal(t, "already set", out[1].Summary)
	assert.Empty(t, out[2].Summary)
	assert.Empty(t, items[0].Summary, "input must not be mutated")
}

func TestQueriesFallBackToTemplates(t *testing.T) {
	t.Parallel()

	g := New(answering(`{"queries":[]}`), nil, nil)
	out := g.Queries(context.Background(), settings(), "Acme", "hiring", "")

	assert.NotEmpty(t, out)
	for _, q := range out {
		assert.Contains(t, q, "Acme")
	}
}

func TestEmailFinishing(t *testing.T) {
	t.Parallel()

	v := settings().Vendor
	body := FinishEmail(`Jane,\n\n\n\nWe help procurement teams.\n\nBest,`, v)

	assert.NotContains(t, body, `\n`)
	assert.NotContains(t, body, "\n\n\n")
	assert.Contains(t, body, "Book a 15-min demo?")
	assert.Contains(t, body, "More about us: https://procurely.example")
	assert.Contains(t, body, "Quick scheduling link: https://cal.example/procurely")
	assert.True(t, strings.HasSuffix(body, "Dana\nProcurely"))
	assert.Equal(t, 1, strings.Count(body, "Best,"))
	assert.Less(t, strings.Index(body, "Book a 15-min demo?"), strings.Index(body, "Best,"))
}

func TestFinishEmailIdempotent(t *testing.T) {
	t.Parallel()

	v := settings().Vendor
	once := FinishEmail("Jane,\n\nHello.", v)
	assert.Equal(t, once, FinishEmail(once, v))
}

func TestEmailFallbackBody(t *testing.T) {
	t.Parallel()

	g := New(answering(`{"email":"  "}`), nil, nil)
	body := g.Email(context.Background(), settings(), EmailInput{
		Profile: domain.ProfileSnapshot{Name: "Jane Doe", Role: "VP Procurement"},
		Company: "Acme",
	})

	assert.True(t, strings.HasPrefix(body, "Jane,"))
	assert.Contains(t, body, "Book a 15-min demo")
	assert.Contains(t, body, "Procurely")
}

func TestBriefNormalizesIdentity(t *testing.T) {
	t.Parallel()

	g := New(answering(`{"page1":{"prospect_title":"Chief Procurement Officer","hooks":["Spoke at ProcureCon"," "]},"page2":{"company_overview":"Industrial supplier"}}`), nil, nil)

	b := g.Brief(context.Background(), settings(), BriefInput{
		Profile: domain.ProfileSnapshot{Name: "Jane Doe", Role: "VP Procurement", Company: "Acme", Location: "Berlin"},
	})

	assert.Equal(t, "Jane Doe", b.Page1.ProspectName)
	assert.Equal(t, "Chief Procurement Officer", b.Page1.ProspectTitle)
	assert.Equal(t, "Acme", b.Page1.ProspectCompany)
	assert.Equal(t, []string{"Spoke at ProcureCon"}, b.Page1.Hooks)
	assert.NotNil(t, b.Page2.DiscoveryQuestions)
	assert.Equal(t, "Industrial supplier", b.Page2.CompanyOverview)
}

func TestBriefFallbackKeepsProfile(t *testing.T) {
	t.Parallel()

	b := New(failing(), nil, nil).Brief(context.Background(), settings(), BriefInput{
		Profile: domain.ProfileSnapshot{Name: "Jane Doe", Company: "Acme"},
	})

	assert.Equal(t, "Jane Doe", b.Page1.ProspectName)
	assert.Equal(t, "Acme", b.Page1.ProspectCompany)
	assert.Empty(t, b.Page2.CompanyOverview)
}

func TestBackgroundBlurbsClipped(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("y", 150)
	g := New(answering(`{"blurbs":["a","`+long+`","c","d"]}`), nil, nil)

	out := g.BackgroundBlurbs(context.Background(), settings(), "Acme", []string{"VP — Acme"})

	require.Len(t, out, 3)
	assert.Len(t, out[1], maxBlurbSize)
}

func TestChatReply(t *testing.T) {
	t.Parallel()

	gen := answering(`{"reply":" They run procurement. ","followups":["a","b","c","d"]}`)
	g := New(gen, nil, nil)

	var history []domain.ChatTurn
	for i := 0; i < 20; i++ {
		history = append(history, domain.ChatTurn{Role: "user", Content: "turn"})
	}
	reply := g.ChatReply(context.Background(), settings(), ChatInput{History: history})

	assert.Equal(t, "They run procurement.", reply.Reply)
	assert.Len(t, reply.FollowUps, maxFollowUps)
	assert.NotNil(t, reply.Updates)
	require.Len(t, gen.calls, 1)
	assert.Equal(t, maxChatHistory, strings.Count(gen.calls[0].User, `"turn"`))
}

func TestChatReplyNeedsVendorName(t *testing.T) {
	t.Parallel()

	gen := answering(`{"reply":"x"}`)
	reply := New(gen, nil, nil).ChatReply(context.Background(), domain.RequestSettings{}, ChatInput{})

	assert.Equal(t, NoVendorReply(), reply)
	assert.Empty(t, gen.calls)
}

func TestNilGatewayReturnsFallbacks(t *testing.T) {
	t.Parallel()

	var g *Generators
	assert.Empty(t, g.Insights(context.Background(), settings(), domain.ProfileSnapshot{Posts: []string{"p"}}))
	assert.False(t, g.ClassifyFit(context.Background(), settings(), "r", "VP", "Acme").Known)
}

func TestFallbackTrackerCollectsDegradedGenerators(t *testing.T) {
	t.Parallel()

	ctx, tracker := TrackFallbacks(context.Background())
	g := New(failing(), nil, nil)

	g.Insights(ctx, settings(), domain.ProfileSnapshot{Posts: []string{"p"}})
	g.ClassifyFit(ctx, settings(), "r", "VP", "Acme")
	g.Insights(ctx, settings(), domain.ProfileSnapshot{Posts: []string{"p"}})

	assert.Equal(t, []string{"fit", "insights"}, tracker.Names())
}
