package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Credentials is the token pair persisted after device pairing.
type Credentials struct {
	AccessToken  string    `yaml:"accessToken"`
	RefreshToken string    `yaml:"refreshToken"`
	PairedAt     time.Time `yaml:"pairedAt"`
}

// CredentialFile stores Credentials as YAML on local disk.
type CredentialFile struct {
	path string
}

// NewCredentialFile points at path; the file need not exist yet.
func NewCredentialFile(path string) *CredentialFile {
	return &CredentialFile{path: path}
}

// Load returns ErrNotPaired when the file is missing or holds no access token.
func (f *CredentialFile) Load() (Credentials, error) {
	if f == nil || f.path == "" {
		return Credentials{}, ErrNotPaired
	}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, ErrNotPaired
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(raw, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return Credentials{}, ErrNotPaired
	}
	return creds, nil
}

// Save writes the file with owner-only permissions.
func (f *CredentialFile) Save(creds Credentials) error {
	if f == nil || f.path == "" {
		return nil
	}
	raw, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create credentials dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, raw, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}
