package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/generators"
	"ProspectPilot/internal/ports"
)

// OutreachGenerators are the LLM-backed outreach artifacts.
type OutreachGenerators interface {
	Email(ctx context.Context, s domain.RequestSettings, in generators.EmailInput) string
	Brief(ctx context.Context, s domain.RequestSettings, in generators.BriefInput) domain.Brief
	BackgroundBlurbs(ctx context.Context, s domain.RequestSettings, company string, lines []string) []string
	ChatReply(ctx context.Context, s domain.RequestSettings, in generators.ChatInput) domain.ChatReply
}

// PeerSource resolves colleagues of the prospect.
type PeerSource interface {
	Find(ctx context.Context, s domain.RequestSettings, req generators.PeerRequest) []domain.Peer
}

// OutreachDeps wires the outreach use cases.
type OutreachDeps struct {
	Generators OutreachGenerators
	Peers      PeerSource
	Cache      *CacheGateway
	Prospects  ports.EnrichmentStore
	Emails     ports.EmailStore
	Activity   ports.ActivityStore
	Sessions   *ChatSessions
	Logger     *slog.Logger
}

// Outreach drafts emails, briefs and peer lists on top of the latest
// enrichment, and runs the chat assistant.
type Outreach struct {
	gen       OutreachGenerators
	peers     PeerSource
	cache     *CacheGateway
	prospects ports.EnrichmentStore
	emails    ports.EmailStore
	activity  ports.ActivityStore
	sessions  *ChatSessions
	logger    *slog.Logger
	now       func() time.Time
}

// NewOutreach constructs the outreach use cases.
func NewOutreach(deps OutreachDeps) *Outreach {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = NewChatSessions()
	}
	return &Outreach{
		gen:       deps.Generators,
		peers:     deps.Peers,
		cache:     deps.Cache,
		prospects: deps.Prospects,
		emails:    deps.Emails,
		activity:  deps.Activity,
		sessions:  sessions,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Signals are the enrichment fields an outreach artifact may draw on. Empty
// fields are filled from the latest cached enrichment for the profile.
type Signals struct {
	Responsibilities string              `json:"responsibilities"`
	Insights         []string            `json:"insights"`
	News             []domain.SignalItem `json:"news"`
	Financial        []domain.SignalItem `json:"financial"`
	FitBadge         string              `json:"fitBadge"`
	FitSummary       string              `json:"fitSummary"`
	Recommended      string              `json:"recommendedAction"`
}

// EmailRequest asks for one outreach draft.
type EmailRequest struct {
	Profile domain.ProfileSnapshot `json:"profile"`
	Tone    string                 `json:"tone"`
	Signals Signals                `json:"signals"`
}

// Email drafts, persists and returns a first-touch email.
func (o *Outreach) Email(ctx context.Context, s domain.RequestSettings, req EmailRequest) domain.EmailDraft {
	company := req.Profile.ResolvedCompany()
	sig := o.withCached(ctx, req.Profile, req.Signals)
	tone := orDefault(req.Tone, orDefault(s.Vendor.Tone, "Professional"))

	var body string
	if o.gen != nil {
		body = o.gen.Email(ctx, s, generators.EmailInput{
			Profile:          req.Profile,
			Company:          company,
			Tone:             tone,
			Responsibilities: sig.Responsibilities,
			Insights:         sig.Insights,
			News:             sig.News,
			Financial:        sig.Financial,
			Background:       req.Profile.Background(),
		})
	}
	draft := domain.EmailDraft{
		ID:         uuid.NewString(),
		ProfileURL: req.Profile.URL,
		Name:       req.Profile.Name,
		Company:    company,
		Tone:       tone,
		Body:       body,
		CreatedAt:  o.now().UTC(),
	}
	o.saveEmail(ctx, s.UserID, req.Profile, draft)
	return draft
}

func (o *Outreach) saveEmail(ctx context.Context, userID string, profile domain.ProfileSnapshot, draft domain.EmailDraft) {
	if o.emails == nil || o.prospects == nil || draft.Body == "" {
		return
	}
	prospectID, err := o.prospects.UpsertProspect(ctx, userID, profile)
	if err != nil {
		o.warn("upsert prospect for email failed", "profile", profile.URL, "error", err)
		return
	}
	if err := o.emails.InsertEmail(ctx, prospectID, draft); err != nil {
		o.warn("insert email failed", "profile", profile.URL, "error", err)
	}
}

// LatestDraft returns the newest saved draft for the profile URL, falling
// back to a (name, company) match.
func (o *Outreach) LatestDraft(ctx context.Context, profileURL, name, company string) (*domain.EmailDraft, error) {
	if o.emails == nil {
		return nil, nil
	}
	draft, err := o.emails.LatestEmail(ctx, profileURL, name, company)
	if err != nil {
		return nil, fmt.Errorf("latest email: %w", err)
	}
	return draft, nil
}

// Peers suggests 2-5 colleagues at the prospect's company.
func (o *Outreach) Peers(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, limit int) []domain.Peer {
	if o.peers == nil {
		return []domain.Peer{}
	}
	return o.peers.Find(ctx, s, generators.PeerRequest{
		Company:      profile.ResolvedCompany(),
		Role:         profile.Role,
		ProspectName: profile.Name,
		Limit:        limit,
	})
}

// BriefRequest asks for the two-page brief.
type BriefRequest struct {
	Profile domain.ProfileSnapshot `json:"profile"`
	Signals Signals                `json:"signals"`
}

// Brief builds the prospect and account brief from known signals only.
func (o *Outreach) Brief(ctx context.Context, s domain.RequestSettings, req BriefRequest) domain.Brief {
	sig := o.withCached(ctx, req.Profile, req.Signals)
	in := generators.BriefInput{
		Profile:          req.Profile,
		Company:          req.Profile.ResolvedCompany(),
		Responsibilities: sig.Responsibilities,
		Insights:         sig.Insights,
		News:             sig.News,
		Financial:        sig.Financial,
		Background:       req.Profile.Background(),
		Fit: generators.BriefFit{
			Badge:             sig.FitBadge,
			Summary:           sig.FitSummary,
			RecommendedAction: sig.Recommended,
		},
	}
	if o.gen == nil {
		// A nil *Generators returns the profile-seeded fallback.
		var none *generators.Generators
		return none.Brief(ctx, s, in)
	}
	return o.gen.Brief(ctx, s, in)
}

// BackgroundBlurbs condenses experience and education lines.
func (o *Outreach) BackgroundBlurbs(ctx context.Context, s domain.RequestSettings, company string, lines []string) []string {
	if o.gen == nil {
		return []string{}
	}
	return o.gen.BackgroundBlurbs(ctx, s, domain.NormalizeCompany(company), lines)
}

// RecordActivity appends a profile view. Failures are logged and swallowed.
func (o *Outreach) RecordActivity(ctx context.Context, s domain.RequestSettings, activity domain.Activity) {
	if o.activity == nil {
		return
	}
	if activity.Event == "" {
		activity.Event = "profile_view"
	}
	activity.Company = domain.NormalizeCompany(activity.Company)
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = o.now().UTC()
	}
	if err := o.activity.InsertActivity(ctx, s.UserID, activity); err != nil {
		o.warn("insert activity failed", "profile", activity.ProfileURL, "error", err)
	}
}

// withCached fills empty signal fields from the latest enrichment, regardless of its age.
func (o *Outreach) withCached(ctx context.Context, profile domain.ProfileSnapshot, sig Signals) Signals {
	if sig.Responsibilities != "" && len(sig.Insights) > 0 && len(sig.News) > 0 && len(sig.Financial) > 0 && sig.FitBadge != "" {
		return sig
	}
	rec := o.cache.FindLatest(ctx, profile.URL)
	if rec == nil {
		return sig
	}
	if sig.Responsibilities == "" {
		sig.Responsibilities = rec.Responsibilities
	}
	if len(sig.Insights) == 0 {
		sig.Insights = rec.Insights
	}
	if len(sig.News) == 0 {
		sig.News = rec.News
	}
	if len(sig.Financial) == 0 {
		sig.Financial = rec.Financial
	}
	if sig.FitBadge == "" {
		sig.FitBadge = rec.FitBadge
		sig.FitSummary = rec.FitSummary
		sig.Recommended = rec.RecommendedAction
	}
	return sig
}

func (o *Outreach) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}
