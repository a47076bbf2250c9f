package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNotAuthenticated is returned by Session.Token when no credential is loaded.
var ErrNotAuthenticated = errors.New("not authenticated: authorization required")

// Authorizer obtains a fresh token interactively.
type Authorizer interface {
	Run(ctx context.Context) (*oauth2.Token, error)
}

// Session owns the process-wide authentication state. It is the token source
// behind the shared Drive client, so replacing its credential is visible to
// every holder of that client.
type Session struct {
	oauth  *oauth2.Config
	store  *Store
	flow   Authorizer
	logger *slog.Logger

	// refreshCtx outlives individual requests; token refreshes use it.
	refreshCtx context.Context

	reauth sync.Mutex
	// persist orders credential file writes against Reauthorize's delete.
	persist sync.Mutex

	mu         sync.RWMutex
	cred       *Credential
	source     oauth2.TokenSource
	generation uint64
}

// NewSession creates an unauthenticated session.
func NewSession(oauthCfg *oauth2.Config, store *Store, flow Authorizer, logger *slog.Logger) *Session {
	return &Session{
		oauth:      oauthCfg,
		store:      store,
		flow:       flow,
		logger:     logger,
		refreshCtx: context.Background(),
	}
}

// Initialize loads the stored credential or, when there is none, runs the
// authorization flow.
func (s *Session) Initialize(ctx context.Context) error {
	if cred := s.store.Load(); cred != nil {
		s.Install(cred)
		s.logger.Info("loaded stored credential", "path", s.store.Path(), "expiry", cred.Expiry)
		return nil
	}

	if _, err := s.Authorize(ctx); err != nil {
		return err
	}
	return nil
}

// Install makes cred the active credential.
func (s *Session) Install(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	gen := s.generation
	s.cred = cred.clone()

	base := s.oauth.TokenSource(s.refreshCtx, cred.Token())
	s.source = newNotifyingTokenSource(base, cred.AccessToken, func(tok *oauth2.Token) {
		s.handleRefresh(gen, tok)
	})
}

// Clear drops the in-memory credential. Subsequent Drive calls fail with
// ErrNotAuthenticated until a new credential is installed.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.cred = nil
	s.source = nil
}

// Authenticated reports whether a usable credential is loaded.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source != nil
}

// Credential returns a copy of the active credential, or nil.
func (s *Session) Credential() *Credential {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return nil
	}
	return s.cred.clone()
}

// Token implements oauth2.TokenSource.
func (s *Session) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()

	if src == nil {
		return nil, ErrNotAuthenticated
	}
	return src.Token()
}

// Authorize runs the flow, persists the resulting credential and installs it.
func (s *Session) Authorize(ctx context.Context) (*Credential, error) {
	tok, err := s.flow.Run(ctx)
	if err != nil {
		return nil, err
	}

	cred := CredentialFromToken(tok, s.oauth.Scopes)
	s.persist.Lock()
	defer s.persist.Unlock()
	if err := s.store.Save(cred); err != nil {
		return nil, fmt.Errorf("save credential: %w", err)
	}
	s.Install(cred)

	s.logger.Info("token stored successfully", "path", s.store.Path(), "scopes", cred.Scopes)
	return cred, nil
}

// Reauthorize deletes the stored credential, drops the in-memory one and
// runs a new flow. It returns the granted scopes.
func (s *Session) Reauthorize(ctx context.Context) ([]string, error) {
	if !s.reauth.TryLock() {
		return nil, ErrFlowInProgress
	}
	defer s.reauth.Unlock()

	s.persist.Lock()
	err := s.store.Delete()
	if err == nil {
		s.Clear()
	}
	s.persist.Unlock()
	if err != nil {
		return nil, err
	}

	cred, err := s.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Clone(cred.Scopes), nil
}

// handleRefresh is the single subscriber to token refreshes. Refreshes from a
// credential that has since been replaced are dropped.
func (s *Session) handleRefresh(gen uint64, tok *oauth2.Token) {
	s.persist.Lock()
	defer s.persist.Unlock()

	s.mu.Lock()
	if gen != s.generation || s.cred == nil {
		s.mu.Unlock()
		return
	}
	merged := MergeRefresh(s.cred, tok)
	s.cred = merged
	s.mu.Unlock()

	if err := s.store.Save(merged); err != nil {
		s.logger.Warn("failed to persist refreshed token", "path", s.store.Path(), "error", err)
		return
	}
	s.logger.Info("persisted refreshed token", "path", s.store.Path(), "expiry", merged.Expiry)
}
