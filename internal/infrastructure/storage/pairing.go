package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ErrCodeClaimed is returned for a pairing code that was already used or has expired.
var ErrCodeClaimed = errors.New("pairing code invalid or already claimed")

// TokenPair is the credential pair issued for a pairing code.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// PairingStore claims one-time device pairing codes.
type PairingStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPairingStore wires a sql.DB implementation.
func NewPairingStore(db *sql.DB) *PairingStore {
	return &PairingStore{db: db, now: time.Now}
}

// Claim marks the code as used and returns its tokens. Unknown codes yield
// ErrNotFound; claimed or expired ones ErrCodeClaimed.
func (s *PairingStore) Claim(ctx context.Context, code string) (TokenPair, error) {
	if s.db == nil || code == "" {
		return TokenPair{}, ErrNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TokenPair{}, fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Select("access_token", "refresh_token", "claimed", "expires_at").
		From("pairing_codes").
		Where(sq.Eq{"code": code}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return TokenPair{}, fmt.Errorf("build select code: %w", err)
	}

	var (
		pair    TokenPair
		claimed bool
		expires sql.NullTime
	)
	err = tx.QueryRowContext(ctx, query, args...).Scan(&pair.AccessToken, &pair.RefreshToken, &claimed, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenPair{}, ErrNotFound
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("select code: %w", err)
	}
	if claimed || (expires.Valid && !expires.Time.After(s.now())) {
		return TokenPair{}, ErrCodeClaimed
	}
	if pair.AccessToken == "" {
		return TokenPair{}, fmt.Errorf("pairing code has no access token")
	}

	update, uargs, err := psql.Update("pairing_codes").
		Set("claimed", true).
		Where(sq.Eq{"code": code}).
		ToSql()
	if err != nil {
		return TokenPair{}, fmt.Errorf("build claim code: %w", err)
	}
	if _, err := tx.ExecContext(ctx, update, uargs...); err != nil {
		return TokenPair{}, fmt.Errorf("claim code: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return TokenPair{}, fmt.Errorf("commit claim: %w", err)
	}
	return pair, nil
}
