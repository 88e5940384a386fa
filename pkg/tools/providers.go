package tools

import (
	"context"
	"time"
)

// Event is a calendar entry in provider-agnostic form.
type Event struct {
	Id          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarProvider lists and creates events on the user's primary calendar.
type CalendarProvider interface {
	ListEvents(ctx context.Context, query string, from, to time.Time, maxResults int) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) (*Event, error)
}

// EmailSender delivers a plain-text email on the user's behalf.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// CredentialGate reports whether a usable provider credential is held.
type CredentialGate interface {
	IsAuthenticated() bool
}
