package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Credential is the persisted OAuth token record.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// CredentialFromToken builds a record from a token endpoint response. Granted
// scopes are read from the response and default to requested.
func CredentialFromToken(tok *oauth2.Token, requested []string) *Credential {
	scopes := grantedScopes(tok)
	if len(scopes) == 0 {
		scopes = slices.Clone(requested)
	}
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
		Scopes:       scopes,
	}
}

// Token converts the record to an oauth2 token.
func (c *Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    c.TokenType,
		Expiry:       c.Expiry,
	}
}

func (c *Credential) clone() *Credential {
	cp := *c
	cp.Scopes = slices.Clone(c.Scopes)
	return &cp
}

func grantedScopes(tok *oauth2.Token) []string {
	if s, ok := tok.Extra("scope").(string); ok {
		return strings.Fields(s)
	}
	return nil
}

// Store reads and writes the credential record at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the given path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the credential file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored credential, or nil when the file is missing or
// unreadable. A corrupt file is logged and treated as absent.
func (s *Store) Load() *Credential {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no stored credential", "path", s.path)
		return nil
	}
	if err != nil {
		s.logger.Warn("failed to read stored credential", "path", s.path, "error", err)
		return nil
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		s.logger.Warn("failed to parse stored credential", "path", s.path, "error", err)
		return nil
	}
	if cred.AccessToken == "" && cred.RefreshToken == "" {
		s.logger.Warn("stored credential has no tokens", "path", s.path)
		return nil
	}

	return &cred
}

// Save replaces the stored credential atomically (temp file + rename) with
// owner-only permissions.
func (s *Store) Save(cred *Credential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, configDirPerm); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credential file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(tokenFilePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("set credential file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write credential: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync credential: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close credential file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}

	success = true
	return nil
}

// Delete removes the stored credential. A missing file is not an error.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("no stored credential to remove", "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove credential %s: %w", s.path, err)
	}

	s.logger.Info("removed stored credential", "path", s.path)
	return nil
}
