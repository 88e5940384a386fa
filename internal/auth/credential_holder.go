package auth

import (
	"sync"

	"golang.org/x/oauth2"
)

// CredentialHolder is the single mutable slot for the Google token bundle.
// It starts unset, is set by the OAuth callback, and a later callback
// overwrites the bundle wholesale. There is no clear/logout path.
//
// TODO: add a refresh(credential) path once provider refresh semantics are
// decided; today an expired token is used until the next callback replaces it.
type CredentialHolder struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

func NewCredentialHolder() *CredentialHolder {
	return &CredentialHolder{}
}

// Set replaces the stored bundle. No merge with the previous one.
func (h *CredentialHolder) Set(token *oauth2.Token) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *CredentialHolder) Token() (*oauth2.Token, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.token == nil {
		return nil, false
	}
	return h.token, true
}

// IsAuthenticated is true iff a bundle with a non-empty access token is held.
func (h *CredentialHolder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != nil && h.token.AccessToken != ""
}
