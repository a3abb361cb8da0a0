package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"ProspectPilot/internal/domain"
)

// RemoteVendor is the per-user webhook override configured on the profile row.
type RemoteVendor struct {
	Enabled   bool
	CompanyID string
	Endpoint  string
	Bearer    string
}

// VendorProfile is the seller configuration stored for one user.
type VendorProfile struct {
	Vendor domain.VendorContext
	Remote RemoteVendor
}

// ProfileStore reads vendor profiles keyed by user id.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore wires a sql.DB implementation.
func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// VendorProfile returns ErrNotFound when the user has no profile row.
func (s *ProfileStore) VendorProfile(ctx context.Context, userID string) (VendorProfile, error) {
	if s.db == nil || userID == "" {
		return VendorProfile{}, ErrNotFound
	}

	query, args, err := psql.Select(
		"vendor_name", "vendor_website", "vendor_pitch",
		"vendor_value_props", "vendor_outcomes", "vendor_personas", "vendor_icp_industries",
		"vendor_pain_points", "vendor_integrations", "vendor_proof_points", "vendor_case_studies",
		"vendor_customer_examples", "vendor_tone", "vendor_cta_preference", "vendor_booking_url",
		"vendor_signature", "vendor_industry",
		"remote_enabled", "remote_company_id", "remote_endpoint", "remote_bearer").
		From("profiles").
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
	if err != nil {
		return VendorProfile{}, fmt.Errorf("build vendor profile: %w", err)
	}

	var (
		p VendorProfile
		v = &p.Vendor
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&v.Name, &v.Website, &v.Pitch,
		pq.Array(&v.ValueProps), pq.Array(&v.Outcomes), pq.Array(&v.Personas), pq.Array(&v.ICPIndustries),
		pq.Array(&v.PainPoints), pq.Array(&v.Integrations), pq.Array(&v.ProofPoints), pq.Array(&v.CaseStudies),
		pq.Array(&v.CustomerExamples), &v.Tone, &v.CTAPreference, &v.BookingURL,
		&v.Signature, &v.IndustryHint,
		&p.Remote.Enabled, &p.Remote.CompanyID, &p.Remote.Endpoint, &p.Remote.Bearer,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return VendorProfile{}, ErrNotFound
	}
	if err != nil {
		return VendorProfile{}, fmt.Errorf("vendor profile: %w", err)
	}
	return p, nil
}
