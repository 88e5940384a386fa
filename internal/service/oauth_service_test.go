package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"ai-assistant-be/internal/auth"
	"ai-assistant-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newOAuthFixture(t *testing.T, tokenURL string) (IOAuthService, *auth.CredentialHolder, *fakeNotifier) {
	t.Helper()
	conf := &oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/api/auth/callback/google",
		Scopes:       auth.GoogleScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  "http://localhost/oauth/auth",
			TokenURL: tokenURL,
		},
	}
	creds := auth.NewCredentialHolder()
	notifier := &fakeNotifier{}
	return NewOAuthService(conf, creds, notifier, nil, nopLogger{}), creds, notifier
}

func TestGetAuthURLUnconfigured(t *testing.T) {
	svc, _, _ := newOAuthFixture(t, "http://localhost/token")
	unconfigured := NewOAuthService(&oauth2.Config{}, auth.NewCredentialHolder(), &fakeNotifier{}, nil, nopLogger{})

	_, err := unconfigured.GetAuthURL()
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, err = svc.GetAuthURL()
	assert.NoError(t, err)
}

func TestGetAuthURLCarriesStateAndOfflineAccess(t *testing.T) {
	svc, _, _ := newOAuthFixture(t, "http://localhost/token")

	raw, err := svc.GetAuthURL()
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.NotEmpty(t, q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))

	// Every call mints a fresh nonce.
	raw2, err := svc.GetAuthURL()
	require.NoError(t, err)
	u2, _ := url.Parse(raw2)
	assert.NotEqual(t, q.Get("state"), u2.Query().Get("state"))
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	svc, creds, _ := newOAuthFixture(t, "http://localhost/token")

	err := svc.HandleCallback(context.Background(), "code", "never-issued")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.False(t, creds.IsAuthenticated())
}

func TestHandleCallbackStoresToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"granted-token","token_type":"Bearer","refresh_token":"refresh-1","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	svc, creds, notifier := newOAuthFixture(t, tokenServer.URL)

	raw, err := svc.GetAuthURL()
	require.NoError(t, err)
	u, _ := url.Parse(raw)
	state := u.Query().Get("state")

	require.NoError(t, svc.HandleCallback(context.Background(), "auth-code", state))

	require.True(t, creds.IsAuthenticated())
	tok, ok := creds.Token()
	require.True(t, ok)
	assert.Equal(t, "granted-token", tok.AccessToken)
	assert.Equal(t, "refresh-1", tok.RefreshToken)

	assert.Contains(t, notifier.notifications, entity.NotificationKindAuth+":Google account connected")

	// State nonces are single use.
	err = svc.HandleCallback(context.Background(), "auth-code", state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHandleCallbackExchangeFailure(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	svc, creds, _ := newOAuthFixture(t, tokenServer.URL)

	raw, _ := svc.GetAuthURL()
	u, _ := url.Parse(raw)

	err := svc.HandleCallback(context.Background(), "bad-code", u.Query().Get("state"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.False(t, creds.IsAuthenticated())
}
