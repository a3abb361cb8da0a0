package usecase

import (
	"context"
	"log/slog"
	"time"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// FreshnessWindow is how long a persisted enrichment is served without recomputation.
const FreshnessWindow = 7 * 24 * time.Hour

// CacheGateway is the single place that decides whether a persisted
// enrichment may be reused. Records are append-only; the newest wins.
type CacheGateway struct {
	store  ports.EnrichmentStore
	now    func() time.Time
	logger *slog.Logger
}

// NewCacheGateway wraps the store; a nil store disables caching.
func NewCacheGateway(store ports.EnrichmentStore, logger *slog.Logger) *CacheGateway {
	return &CacheGateway{store: store, now: time.Now, logger: logger}
}

// FindLatest returns the newest persisted record or nil. Store failures are
// logged and read as a miss.
func (c *CacheGateway) FindLatest(ctx context.Context, profileURL string) *domain.EnrichmentRecord {
	if c == nil || c.store == nil || profileURL == "" {
		return nil
	}
	rec, err := c.store.FindLatest(ctx, profileURL)
	if err != nil {
		c.warn("cache lookup failed", "profile", profileURL, "error", err)
		return nil
	}
	return rec
}

// Fresh returns the cached record for profile when it is younger than
// FreshnessWindow and neither role nor company changed.
func (c *CacheGateway) Fresh(ctx context.Context, profile domain.ProfileSnapshot) (domain.EnrichmentRecord, bool) {
	rec := c.FindLatest(ctx, profile.URL)
	if rec == nil || rec.Stale(c.now(), FreshnessWindow, profile.Role, profile.ResolvedCompany()) {
		return domain.EnrichmentRecord{}, false
	}
	return *rec, true
}

// GetOrCompute serves a fresh cached record or runs compute and persists its
// result. The bool is true on a cache hit. refresh skips the lookup.
func (c *CacheGateway) GetOrCompute(ctx context.Context, userID string, profile domain.ProfileSnapshot, refresh bool, compute func(context.Context) domain.EnrichmentRecord) (domain.EnrichmentRecord, bool) {
	if !refresh {
		if rec, ok := c.Fresh(ctx, profile); ok {
			return rec, true
		}
	}
	started := c.now()
	rec := compute(ctx)
	c.Save(ctx, userID, profile, rec, started)
	return rec, false
}

// Save upserts the prospect and appends rec. When a record for the same
// snapshot landed after started, the write is skipped. Failures are swallowed.
func (c *CacheGateway) Save(ctx context.Context, userID string, profile domain.ProfileSnapshot, rec domain.EnrichmentRecord, started time.Time) {
	if c == nil || c.store == nil || profile.URL == "" {
		return
	}
	if latest := c.FindLatest(ctx, profile.URL); latest != nil &&
		latest.CreatedAt.After(started) &&
		!latest.Stale(c.now(), FreshnessWindow, rec.Role, rec.Company) {
		c.debug("concurrent enrichment already saved", "profile", profile.URL)
		return
	}

	prospectID, err := c.store.UpsertProspect(ctx, userID, profile)
	if err != nil {
		c.warn("upsert prospect failed", "profile", profile.URL, "error", err)
		return
	}
	if err := c.store.InsertEnrichment(ctx, prospectID, rec); err != nil {
		c.warn("insert enrichment failed", "profile", profile.URL, "error", err)
	}
}

func (c *CacheGateway) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *CacheGateway) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
