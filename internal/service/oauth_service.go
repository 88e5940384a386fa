package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"ai-assistant-be/internal/auth"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/pkg/events"
	natspkg "ai-assistant-be/pkg/nats"

	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

var (
	ErrOAuthNotConfigured = errors.New("Google API credentials not configured. Please set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET in your environment variables")

	// ErrInvalidState covers unknown, reused and expired state nonces. The
	// nonce TTL matches the 5-minute popup-polling timeout on the UI side.
	ErrInvalidState = errors.New("unknown or expired OAuth state")
)

const stateTTL = 5 * time.Minute

type IOAuthService interface {
	GetAuthURL() (string, error)
	HandleCallback(ctx context.Context, code, state string) error
}

type oauthService struct {
	conf     *oauth2.Config
	creds    *auth.CredentialHolder
	states   *cache.Cache
	notifier INotifierService
	events   *natspkg.Publisher // best-effort, may be nil
	logger   logger.ILogger
}

func NewOAuthService(
	conf *oauth2.Config,
	creds *auth.CredentialHolder,
	notifier INotifierService,
	eventPublisher *natspkg.Publisher,
	log logger.ILogger,
) IOAuthService {
	return &oauthService{
		conf:     conf,
		creds:    creds,
		states:   cache.New(stateTTL, 10*time.Minute),
		notifier: notifier,
		events:   eventPublisher,
		logger:   log,
	}
}

// GetAuthURL produces the Google authorization URL with offline access (so a
// refresh token is included) and a single-use state nonce.
func (s *oauthService) GetAuthURL() (string, error) {
	if s.conf.ClientID == "" || s.conf.ClientSecret == "" {
		return "", ErrOAuthNotConfigured
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	s.states.Set(state, true, cache.DefaultExpiration)

	return s.conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleCallback exchanges the authorization code and stores the token
// bundle, overwriting any previous one.
func (s *oauthService) HandleCallback(ctx context.Context, code, state string) error {
	if _, ok := s.states.Get(state); !ok {
		return ErrInvalidState
	}
	s.states.Delete(state) // single use

	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("OAuthService", "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("code exchange failed: %w", err)
	}

	s.creds.Set(token)
	s.logger.Info("OAuthService", "Google credential stored", map[string]interface{}{
		"has_refresh_token": token.RefreshToken != "",
		"expiry":            token.Expiry,
	})

	s.notifier.Notify(entity.NotificationKindAuth, "Google account connected", "")
	s.publishEvent(events.EventAuthCompleted, map[string]interface{}{
		"expiry": token.Expiry,
	})
	return nil
}

func (s *oauthService) publishEvent(eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("OAuthService", "Event publish failed", map[string]interface{}{"event": eventType, "error": err.Error()})
	}
}
