package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ProspectPilot/internal/domain"
)

var enrichmentColumns = []string{"id", "linkedin_url", "role", "company",
	"fit_badge", "fit_summary", "recommended_action", "responsibilities",
	"insights", "background", "news", "financial", "action_plan", "reasons", "created_at"}

func newRepo(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestUpsertProspectReturnsID(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`INSERT INTO prospects .* ON CONFLICT \(linkedin_url\) DO UPDATE`).
		WithArgs(sqlmock.AnyArg(), "user-1", "https://www.linkedin.com/in/jane", "Jane Doe", "VP Procurement", "Acme Corp", "Berlin").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("prospect-1"))

	id, err := repo.UpsertProspect(context.Background(), "user-1", domain.ProfileSnapshot{
		Name:     "Jane Doe",
		Role:     "VP Procurement",
		Company:  "Acme Corp | We build parts",
		Location: "Berlin",
		URL:      "https://www.linkedin.com/in/jane",
	})

	require.NoError(t, err)
	assert.Equal(t, "prospect-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEnrichmentAppends(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO enrichments`).
		WithArgs("rec-1", "prospect-1", "https://www.linkedin.com/in/jane", "VP Procurement", "Acme Corp",
			"High Fit", "Direct buyer persona.", "Lead with ROI & risk reduction.", "1) Owns sourcing",
			sqlmock.AnyArg(), sqlmock.AnyArg(),
			[]byte(`[{"title":"Acme raises $50M","url":"https://news.example.com/a"}]`),
			[]byte(`[]`), sqlmock.AnyArg(), sqlmock.AnyArg(), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertEnrichment(context.Background(), "prospect-1", domain.EnrichmentRecord{
		ID:                "rec-1",
		ProfileURL:        "https://www.linkedin.com/in/jane",
		Role:              "VP Procurement",
		Company:           "Acme Corp",
		FitBadge:          "High Fit",
		FitSummary:        "Direct buyer persona.",
		RecommendedAction: "Lead with ROI & risk reduction.",
		Responsibilities:  "1) Owns sourcing",
		News:              []domain.SignalItem{{Title: "Acme raises $50M", URL: "https://news.example.com/a"}},
		CreatedAt:         created,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLatestDecodesRecord(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM enrichments WHERE linkedin_url = \$1 ORDER BY created_at DESC LIMIT 1`).
		WithArgs("https://www.linkedin.com/in/jane").
		WillReturnRows(sqlmock.NewRows(enrichmentColumns).AddRow(
			"rec-1", "https://www.linkedin.com/in/jane", "VP Procurement", "Acme Corp",
			"high", "Direct buyer persona.", "Lead with ROI.", "1) Owns sourcing",
			[]byte(`{"Posted about supplier risk"}`), []byte(`{}`),
			[]byte(`[{"title":"Acme raises $50M","url":"https://news.example.com/a"}]`),
			[]byte(`["Acme Q2 revenue up 12%"]`),
			[]byte(`{"paragraph":"p","bullets":["a","b","c"],"cta_line":"c"}`),
			[]byte(`{"noCompany":false}`),
			created,
		))

	rec, err := repo.FindLatest(context.Background(), "https://www.linkedin.com/in/jane")

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "High Fit", rec.FitBadge)
	assert.Equal(t, []string{"Posted about supplier risk"}, rec.Insights)
	require.Len(t, rec.Financial, 1)
	assert.Equal(t, "Acme Q2 revenue up 12%", rec.Financial[0].Title, "legacy bare-string rows decode")
	assert.Equal(t, []string{"a", "b", "c"}, rec.ActionPlan.Bullets)
	assert.Equal(t, created, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindLatestMiss(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .* FROM enrichments`).
		WillReturnRows(sqlmock.NewRows(enrichmentColumns))

	rec, err := repo.FindLatest(context.Background(), "https://www.linkedin.com/in/nobody")

	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindLatestWrapsErrors(t *testing.T) {
	repo, mock := newRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT .* FROM enrichments`).WillReturnError(boom)

	_, err := repo.FindLatest(context.Background(), "https://www.linkedin.com/in/jane")

	assert.ErrorIs(t, err, boom)
}

func TestLatestEmailFallsBackToNameAndCompany(t *testing.T) {
	repo, mock := newRepo(t)
	cols := []string{"id", "linkedin_url", "name", "company", "tone", "draft", "created_at"}
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM emails WHERE linkedin_url = \$1`).
		WithArgs("https://www.linkedin.com/in/jane").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`SELECT .* FROM emails WHERE company = \$1 AND name = \$2`).
		WithArgs("Acme Corp", "Jane Doe").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("email-1", "", "Jane Doe", "Acme Corp", "Professional", "Jane,\n\nHello", created))

	draft, err := repo.LatestEmail(context.Background(), "https://www.linkedin.com/in/jane", "Jane Doe", "Acme Corp")

	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, "email-1", draft.ID)
	assert.Equal(t, "Jane,\n\nHello", draft.Body)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestEmailNone(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(`SELECT .* FROM emails`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "linkedin_url", "name", "company", "tone", "draft", "created_at"}))

	draft, err := repo.LatestEmail(context.Background(), "https://www.linkedin.com/in/jane", "", "")

	require.NoError(t, err)
	assert.Nil(t, draft)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEmailAndActivity(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO emails`).
		WithArgs("email-1", "prospect-1", "https://www.linkedin.com/in/jane", "Jane Doe", "Acme Corp", "Professional", "body", created).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO activity_log`).
		WithArgs("user-1", "https://www.linkedin.com/in/jane", "Jane Doe", "Acme Corp", "profile_view", created).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.InsertEmail(context.Background(), "prospect-1", domain.EmailDraft{
		ID: "email-1", ProfileURL: "https://www.linkedin.com/in/jane", Name: "Jane Doe",
		Company: "Acme Corp", Tone: "Professional", Body: "body", CreatedAt: created,
	}))
	require.NoError(t, repo.InsertActivity(context.Background(), "user-1", domain.Activity{
		ProfileURL: "https://www.linkedin.com/in/jane", Name: "Jane Doe", Company: "Acme Corp",
		Event: "profile_view", CreatedAt: created,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilDBIsNoop(t *testing.T) {
	repo := NewPostgresRepository(nil)

	id, err := repo.UpsertProspect(context.Background(), "u", domain.ProfileSnapshot{})
	assert.NoError(t, err)
	assert.Empty(t, id)
	rec, err := repo.FindLatest(context.Background(), "x")
	assert.NoError(t, err)
	assert.Nil(t, rec)
}
