package auth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scopes requested from Google: calendar access plus gmail send/modify.
var GoogleScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.modify",
}

func NewGoogleConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       GoogleScopes,
		Endpoint:     google.Endpoint,
	}
}
