package auth

import (
	"sync"

	"golang.org/x/oauth2"
)

// TokenRefreshFunc is notified with every token whose access token differs
// from the previously observed one.
type TokenRefreshFunc func(tok *oauth2.Token)

// notifyingTokenSource wraps a refreshing source and reports token changes.
type notifyingTokenSource struct {
	src    oauth2.TokenSource
	notify TokenRefreshFunc

	mu   sync.Mutex
	last string
}

func newNotifyingTokenSource(src oauth2.TokenSource, current string, notify TokenRefreshFunc) *notifyingTokenSource {
	return &notifyingTokenSource{src: src, notify: notify, last: current}
}

func (n *notifyingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := n.src.Token()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	changed := tok.AccessToken != n.last
	n.last = tok.AccessToken
	n.mu.Unlock()

	if changed {
		n.notify(tok)
	}
	return tok, nil
}

// MergeRefresh folds a refreshed token into the stored record. Fields absent
// from the refresh response keep their stored values.
func MergeRefresh(prev *Credential, tok *oauth2.Token) *Credential {
	merged := &Credential{}
	if prev != nil {
		merged = prev.clone()
	}

	if tok.AccessToken != "" {
		merged.AccessToken = tok.AccessToken
	}
	if tok.RefreshToken != "" {
		merged.RefreshToken = tok.RefreshToken
	}
	if tok.TokenType != "" {
		merged.TokenType = tok.TokenType
	}
	if !tok.Expiry.IsZero() {
		merged.Expiry = tok.Expiry
	}
	if scopes := grantedScopes(tok); len(scopes) > 0 {
		merged.Scopes = scopes
	}

	return merged
}
