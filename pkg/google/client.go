package google

import (
	"context"
	"errors"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNotAuthenticated is returned when no credential bundle is held. The tool
// dispatcher gates on this before calling, so hitting it means a race with a
// callback that never happened.
var ErrNotAuthenticated = errors.New("no Google credential available")

// CredentialSource supplies the current token bundle. Satisfied by
// internal/auth.CredentialHolder.
type CredentialSource interface {
	Token() (*oauth2.Token, bool)
}

// httpClient builds an authenticated client from the current bundle. oauth2
// transports refresh silently when a refresh token is present; expired
// bundles without one surface as provider 401s.
func httpClient(ctx context.Context, conf *oauth2.Config, creds CredentialSource) (*http.Client, error) {
	token, ok := creds.Token()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return conf.Client(ctx, token), nil
}
