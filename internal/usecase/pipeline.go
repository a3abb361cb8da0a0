package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/generators"
)

// State is the terminal state of one enrichment request.
type State string

const (
	StateCached   State = "CACHED"
	StateComputed State = "COMPUTED"
	StatePartial  State = "PARTIAL"
)

// SignalSource fetches news and financial headlines for a company.
type SignalSource interface {
	News(ctx context.Context, s domain.RequestSettings, company string) []domain.SignalItem
	Financial(ctx context.Context, s domain.RequestSettings, company string) []domain.SignalItem
}

// EnrichmentGenerators are the LLM-backed steps of the pipeline.
type EnrichmentGenerators interface {
	Responsibilities(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, company string) string
	Insights(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot) []string
	ClassifyFit(ctx context.Context, s domain.RequestSettings, responsibilities, role, company string) generators.Fit
	ActionPlan(ctx context.Context, s domain.RequestSettings, in generators.PlanInput) domain.ActionPlan
	HeadlineSummaries(ctx context.Context, s domain.RequestSettings, company string, items []domain.SignalItem) []domain.SignalItem
}

// OutcomeRecorder counts terminal states.
type OutcomeRecorder interface {
	Enrichment(state string)
}

// AggregatorDeps wires the collaborators of the enrichment pipeline.
type AggregatorDeps struct {
	Signals    SignalSource
	Generators EnrichmentGenerators
	Cache      *CacheGateway
	Outcomes   OutcomeRecorder
	Logger     *slog.Logger
}

// Aggregator runs the enrichment state machine for one profile.
type Aggregator struct {
	signals  SignalSource
	gen      EnrichmentGenerators
	cache    *CacheGateway
	outcomes OutcomeRecorder
	logger   *slog.Logger
	now      func() time.Time
}

// EnrichOptions tunes one request.
type EnrichOptions struct {
	// Refresh bypasses the cache lookup; the result is still persisted.
	Refresh bool
}

// Result is the enrichment plus how it was produced.
type Result struct {
	Record domain.EnrichmentRecord `json:"record"`
	State  State                   `json:"state"`
}

// NewAggregator constructs the orchestration component.
func NewAggregator(deps AggregatorDeps) *Aggregator {
	cache := deps.Cache
	if cache == nil {
		cache = NewCacheGateway(nil, deps.Logger)
	}
	return &Aggregator{
		signals:  deps.Signals,
		gen:      deps.Generators,
		cache:    cache,
		outcomes: deps.Outcomes,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Enrich returns a cached record when fresh, otherwise computes, persists and
// returns a new one. It never fails: degraded sections carry typed fallbacks.
func (a *Aggregator) Enrich(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot, opts EnrichOptions) Result {
	state := StateComputed
	rec, cached := a.cache.GetOrCompute(ctx, s.UserID, profile, opts.Refresh, func(ctx context.Context) domain.EnrichmentRecord {
		rec := a.compute(ctx, s, profile)
		if len(rec.Reasons.Fallbacks) > 0 {
			state = StatePartial
		}
		return rec
	})
	if cached {
		state = StateCached
	}
	if a.outcomes != nil {
		a.outcomes.Enrichment(string(state))
	}
	a.debug(s, "enrichment finished", "profile", profile.URL, "state", state)
	return Result{Record: rec, State: state}
}

func (a *Aggregator) compute(ctx context.Context, s domain.RequestSettings, profile domain.ProfileSnapshot) domain.EnrichmentRecord {
	ctx, tracker := generators.TrackFallbacks(ctx)
	company := profile.ResolvedCompany()
	role := strings.TrimSpace(profile.Role)
	background := profile.Background()

	var (
		news, financial  []domain.SignalItem
		responsibilities string
		insights         []string
	)

	// Every step degrades instead of failing, so the groups never return errors.
	var fan errgroup.Group
	fan.Go(func() error {
		if a.signals != nil {
			news = a.signals.News(ctx, s, company)
		}
		return nil
	})
	fan.Go(func() error {
		if a.signals != nil {
			financial = a.signals.Financial(ctx, s, company)
		}
		return nil
	})
	fan.Go(func() error {
		if a.gen != nil {
			responsibilities = a.gen.Responsibilities(ctx, s, profile, company)
		}
		return nil
	})
	fan.Go(func() error {
		if a.gen != nil {
			insights = a.gen.Insights(ctx, s, profile)
		}
		return nil
	})
	_ = fan.Wait()

	var (
		verdict    fitVerdict
		plan       domain.ActionPlan
		summarized = news
	)
	var derive errgroup.Group
	derive.Go(func() error {
		verdict = a.fit(ctx, s, responsibilities, role, company)
		input := generators.PlanInput{
			Profile:          profile,
			Company:          company,
			Responsibilities: responsibilities,
			Insights:         insights,
			News:             news,
			Financial:        financial,
			Background:       background,
			Fit:              verdict.level,
		}
		if a.gen != nil {
			plan = a.gen.ActionPlan(ctx, s, input)
		} else {
			plan = generators.FallbackActionPlan(s.Vendor, input)
		}
		return nil
	})
	derive.Go(func() error {
		if a.gen != nil && len(news) > 0 {
			summarized = a.gen.HeadlineSummaries(ctx, s, company, news)
		}
		return nil
	})
	_ = derive.Wait()

	rec := domain.EnrichmentRecord{
		ID:                uuid.NewString(),
		ProfileURL:        profile.URL,
		Role:              role,
		Company:           company,
		News:              summarized,
		Financial:         financial,
		Responsibilities:  responsibilities,
		Insights:          insights,
		FitSummary:        verdict.summary,
		FitBadge:          verdict.level.Badge(),
		RecommendedAction: verdict.recommendation,
		ActionPlan:        plan,
		Background:        background,
		Reasons: domain.Reasons{
			NoCompany:  company == "",
			NoRole:     role == "",
			Fallbacks:  tracker.Names(),
			NewsEngine: s.NewsEngine,
		},
		CreatedAt: a.now().UTC(),
	}
	return rec.Normalize()
}

type fitVerdict struct {
	level          domain.FitLevel
	summary        string
	recommendation string
}

// fit uses the classifier when it named a level and the role rules otherwise.
func (a *Aggregator) fit(ctx context.Context, s domain.RequestSettings, responsibilities, role, company string) fitVerdict {
	if a.gen != nil {
		if f := a.gen.ClassifyFit(ctx, s, responsibilities, role, company); f.Known {
			return fitVerdict{level: f.Level, summary: f.Summary(), recommendation: domain.RecommendationFor(f.Level)}
		}
	}
	rf := domain.FitFromRole(role)
	return fitVerdict{level: rf.Level, summary: rf.Summary, recommendation: rf.Recommendation}
}

func (a *Aggregator) debug(s domain.RequestSettings, msg string, args ...any) {
	if a.logger != nil && s.Debug {
		a.logger.Debug(msg, args...)
	}
}
