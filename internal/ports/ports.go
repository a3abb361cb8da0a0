package ports

import (
	"context"
	"time"

	"ProspectPilot/internal/domain"
)

// JSONRequest is one schema-bearing generation call.
type JSONRequest struct {
	System      string
	User        string
	Temperature float64
}

// JSONGenerator produces raw JSON text from prompts via the inference proxy.
// Implementations never fail: on any error the fallback text is returned with ok=false.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, settings domain.RequestSettings, req JSONRequest, fallback string) (raw string, ok bool)
}

// SignalStrategy fetches headline items for a company.
type SignalStrategy interface {
	Name() string
	Fetch(ctx context.Context, settings domain.RequestSettings, query SignalQuery) ([]domain.SignalItem, error)
}

// SignalQuery describes what a strategy should look for.
type SignalQuery struct {
	Company     string
	Mode        string
	Instruction string
	Limit       int
}

// EnrichmentStore is the persistence side of the cache gateway.
type EnrichmentStore interface {
	FindLatest(ctx context.Context, profileURL string) (*domain.EnrichmentRecord, error)
	UpsertProspect(ctx context.Context, userID string, profile domain.ProfileSnapshot) (string, error)
	InsertEnrichment(ctx context.Context, prospectID string, record domain.EnrichmentRecord) error
}

// EmailStore persists generated drafts.
type EmailStore interface {
	InsertEmail(ctx context.Context, prospectID string, draft domain.EmailDraft) error
	LatestEmail(ctx context.Context, profileURL, name, company string) (*domain.EmailDraft, error)
}

// ActivityStore appends profile-view events.
type ActivityStore interface {
	InsertActivity(ctx context.Context, userID string, activity domain.Activity) error
}

// VendorSource resolves the seller context for a user.
type VendorSource interface {
	Load(ctx context.Context, userID string) domain.VendorContext
}

// PeopleSearcher loads a people-search results page into candidate profiles.
type PeopleSearcher interface {
	Search(ctx context.Context, searchURL string) ([]domain.PeerCandidate, error)
}

// ResolutionCache memoizes the best profile resolved for a people-search URL.
type ResolutionCache interface {
	Get(ctx context.Context, key string) (domain.Peer, bool)
	Set(ctx context.Context, key string, peer domain.Peer)
}

// TokenSource provides the current access token, refreshing it when expired.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
	UserID() string
}

// Scheduler drives a recurring background job.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
