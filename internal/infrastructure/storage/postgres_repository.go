package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

// PostgresRepository persists prospects, enrichments, email drafts and the
// activity log. Enrichments and emails are append-only.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.EnrichmentStore = (*PostgresRepository)(nil)
	_ ports.EmailStore      = (*PostgresRepository)(nil)
	_ ports.ActivityStore   = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// UpsertProspect inserts or refreshes the prospect row keyed by profile URL
// and returns its id.
func (r *PostgresRepository) UpsertProspect(ctx context.Context, userID string, profile domain.ProfileSnapshot) (string, error) {
	if r.db == nil {
		return "", nil
	}

	query, args, err := psql.Insert("prospects").
		Columns("id", "user_id", "linkedin_url", "name", "role", "company", "location").
		Values(uuid.NewString(), userID, profile.URL, profile.Name, profile.Role, profile.ResolvedCompany(), profile.Location).
		Suffix(`ON CONFLICT (linkedin_url) DO UPDATE
              SET name = COALESCE(NULLIF(EXCLUDED.name, ''), prospects.name),
                  role = COALESCE(NULLIF(EXCLUDED.role, ''), prospects.role),
                  company = COALESCE(NULLIF(EXCLUDED.company, ''), prospects.company),
                  location = COALESCE(NULLIF(EXCLUDED.location, ''), prospects.location),
                  updated_at = NOW()
              RETURNING id`).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build upsert prospect: %w", err)
	}

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("upsert prospect: %w", err)
	}
	return id, nil
}

// InsertEnrichment appends a record; existing rows are never updated.
func (r *PostgresRepository) InsertEnrichment(ctx context.Context, prospectID string, rec domain.EnrichmentRecord) error {
	if r.db == nil {
		return nil
	}

	news, err := json.Marshal(nonNilItems(rec.News))
	if err != nil {
		return fmt.Errorf("encode news: %w", err)
	}
	financial, err := json.Marshal(nonNilItems(rec.Financial))
	if err != nil {
		return fmt.Errorf("encode financial: %w", err)
	}
	plan, err := json.Marshal(rec.ActionPlan)
	if err != nil {
		return fmt.Errorf("encode action plan: %w", err)
	}
	reasons, err := json.Marshal(rec.Reasons)
	if err != nil {
		return fmt.Errorf("encode reasons: %w", err)
	}

	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	query, args, err := psql.Insert("enrichments").
		Columns("id", "prospect_id", "linkedin_url", "role", "company",
			"fit_badge", "fit_summary", "recommended_action", "responsibilities",
			"insights", "background", "news", "financial", "action_plan", "reasons", "created_at").
		Values(id, prospectID, rec.ProfileURL, rec.Role, rec.Company,
			rec.FitBadge, rec.FitSummary, rec.RecommendedAction, rec.Responsibilities,
			pq.Array(nonNilStrings(rec.Insights)), pq.Array(nonNilStrings(rec.Background)),
			news, financial, plan, reasons, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert enrichment: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert enrichment: %w", err)
	}
	return nil
}

// FindLatest returns the newest enrichment for the profile URL, or nil.
func (r *PostgresRepository) FindLatest(ctx context.Context, profileURL string) (*domain.EnrichmentRecord, error) {
	if r.db == nil || profileURL == "" {
		return nil, nil
	}

	query, args, err := psql.Select("id", "linkedin_url", "role", "company",
		"fit_badge", "fit_summary", "recommended_action", "responsibilities",
		"insights", "background", "news", "financial", "action_plan", "reasons", "created_at").
		From("enrichments").
		Where(sq.Eq{"linkedin_url": profileURL}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find latest: %w", err)
	}

	var (
		rec                            domain.EnrichmentRecord
		insights, background           []string
		news, financial, plan, reasons []byte
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.ProfileURL, &rec.Role, &rec.Company,
		&rec.FitBadge, &rec.FitSummary, &rec.RecommendedAction, &rec.Responsibilities,
		pq.Array(&insights), pq.Array(&background),
		&news, &financial, &plan, &reasons, &rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest enrichment: %w", err)
	}

	// Older rows may hold bare title strings; SignalItem decodes both shapes.
	if err := decodeJSON(news, &rec.News); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	if err := decodeJSON(financial, &rec.Financial); err != nil {
		return nil, fmt.Errorf("decode financial: %w", err)
	}
	if err := decodeJSON(plan, &rec.ActionPlan); err != nil {
		return nil, fmt.Errorf("decode action plan: %w", err)
	}
	if err := decodeJSON(reasons, &rec.Reasons); err != nil {
		return nil, fmt.Errorf("decode reasons: %w", err)
	}
	rec.Insights = insights
	rec.Background = background
	rec.CreatedAt = rec.CreatedAt.UTC()

	rec = rec.Normalize()
	return &rec, nil
}

// InsertEmail appends a generated draft.
func (r *PostgresRepository) InsertEmail(ctx context.Context, prospectID string, draft domain.EmailDraft) error {
	if r.db == nil {
		return nil
	}

	id := draft.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := draft.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}

	query, args, err := psql.Insert("emails").
		Columns("id", "prospect_id", "linkedin_url", "name", "company", "tone", "draft", "created_at").
		Values(id, prospectID, draft.ProfileURL, draft.Name, draft.Company, draft.Tone, draft.Body, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert email: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert email: %w", err)
	}
	return nil
}

// LatestEmail returns the newest draft for profileURL, falling back to a
// (name, company) match. It returns nil when nothing matches.
func (r *PostgresRepository) LatestEmail(ctx context.Context, profileURL, name, company string) (*domain.EmailDraft, error) {
	if r.db == nil {
		return nil, nil
	}

	var filters []sq.Sqlizer
	if profileURL != "" {
		filters = append(filters, sq.Eq{"linkedin_url": profileURL})
	}
	if name != "" && company != "" {
		filters = append(filters, sq.Eq{"name": name, "company": company})
	}

	for _, where := range filters {
		draft, err := r.latestEmail(ctx, where)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return draft, nil
	}
	return nil, nil
}

func (r *PostgresRepository) latestEmail(ctx context.Context, where sq.Sqlizer) (*domain.EmailDraft, error) {
	query, args, err := psql.Select("id", "linkedin_url", "name", "company", "tone", "draft", "created_at").
		From("emails").
		Where(where).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build latest email: %w", err)
	}

	var d domain.EmailDraft
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.ProfileURL, &d.Name, &d.Company, &d.Tone, &d.Body, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest email: %w", err)
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return &d, nil
}

// InsertActivity appends a profile-view event.
func (r *PostgresRepository) InsertActivity(ctx context.Context, userID string, a domain.Activity) error {
	if r.db == nil {
		return nil
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now().UTC()
	}
	query, args, err := psql.Insert("activity_log").
		Columns("user_id", "linkedin_url", "name", "company", "event", "created_at").
		Values(userID, a.ProfileURL, a.Name, a.Company, a.Event, createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert activity: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func decodeJSON(raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func nonNilItems(items []domain.SignalItem) []domain.SignalItem {
	if items == nil {
		return []domain.SignalItem{}
	}
	return items
}

func nonNilStrings(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
