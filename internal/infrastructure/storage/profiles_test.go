package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumns = []string{"vendor_name", "vendor_website", "vendor_pitch",
	"vendor_value_props", "vendor_outcomes", "vendor_personas", "vendor_icp_industries",
	"vendor_pain_points", "vendor_integrations", "vendor_proof_points", "vendor_case_studies",
	"vendor_customer_examples", "vendor_tone", "vendor_cta_preference", "vendor_booking_url",
	"vendor_signature", "vendor_industry",
	"remote_enabled", "remote_company_id", "remote_endpoint", "remote_bearer"}

func TestVendorProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM profiles WHERE id = \$1 LIMIT 1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"Procurely", "https://procurely.example", "Spend analytics",
			[]byte(`{"cut spend","faster sourcing"}`), []byte(`{savings}`), []byte(`{"VP Procurement",CFO}`), nil,
			nil, nil, nil, nil,
			[]byte(`{Globex}`), "Friendly", "Book a demo", "https://cal.example",
			"Dana", "Manufacturing",
			true, "acme-42", "https://hooks.example/{companyId}", "secret",
		))

	p, err := NewProfileStore(db).VendorProfile(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "Procurely", p.Vendor.Name)
	assert.Equal(t, []string{"cut spend", "faster sourcing"}, p.Vendor.ValueProps)
	assert.Equal(t, []string{"VP Procurement", "CFO"}, p.Vendor.Personas)
	assert.Nil(t, p.Vendor.ICPIndustries)
	assert.Equal(t, "Manufacturing", p.Vendor.IndustryHint)
	assert.Equal(t, RemoteVendor{Enabled: true, CompanyID: "acme-42", Endpoint: "https://hooks.example/{companyId}", Bearer: "secret"}, p.Remote)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVendorProfileMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM profiles`).WillReturnRows(sqlmock.NewRows(profileColumns))

	_, err = NewProfileStore(db).VendorProfile(context.Background(), "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewProfileStore(db).VendorProfile(context.Background(), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimPairingCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT access_token, refresh_token, claimed, expires_at FROM pairing_codes WHERE code = \$1 FOR UPDATE`).
		WithArgs("device-code").
		WillReturnRows(sqlmock.NewRows([]string{"access_token", "refresh_token", "claimed", "expires_at"}).
			AddRow("access", "refresh", false, time.Now().Add(time.Hour)))
	mock.ExpectExec(`UPDATE pairing_codes SET claimed = \$1 WHERE code = \$2`).
		WithArgs(true, "device-code").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pair, err := NewPairingStore(db).Claim(context.Background(), "device-code")

	require.NoError(t, err)
	assert.Equal(t, TokenPair{AccessToken: "access", RefreshToken: "refresh"}, pair)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimPairingCodeRejected(t *testing.T) {
	tests := []struct {
		name    string
		claimed bool
		expires any
		want    error
	}{
		{"already claimed", true, nil, ErrCodeClaimed},
		{"expired", false, time.Now().Add(-time.Minute), ErrCodeClaimed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectBegin()
			mock.ExpectQuery(`SELECT .* FROM pairing_codes`).
				WillReturnRows(sqlmock.NewRows([]string{"access_token", "refresh_token", "claimed", "expires_at"}).
					AddRow("access", "refresh", tc.claimed, tc.expires))
			mock.ExpectRollback()

			_, err = NewPairingStore(db).Claim(context.Background(), "device-code")

			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestClaimUnknownCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM pairing_codes`).
		WillReturnRows(sqlmock.NewRows([]string{"access_token", "refresh_token", "claimed", "expires_at"}))
	mock.ExpectRollback()

	_, err = NewPairingStore(db).Claim(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
