package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-assistant-be/internal/pkg/logger"
)

const eventTimeLayout = "1/2/2006, 3:04:05 PM"

// Dispatcher executes tool Commands against the providers. Everything it
// returns is a user-facing string; provider failures never escape as errors.
type Dispatcher struct {
	gate     CredentialGate
	calendar CalendarProvider
	email    EmailSender
	logger   logger.ILogger
	now      func() time.Time
}

func NewDispatcher(gate CredentialGate, calendar CalendarProvider, email EmailSender, log logger.ILogger) *Dispatcher {
	return &Dispatcher{
		gate:     gate,
		calendar: calendar,
		email:    email,
		logger:   log,
		now:      time.Now,
	}
}

func (d *Dispatcher) Execute(ctx context.Context, cmd Command) string {
	if !d.gate.IsAuthenticated() {
		return notAuthenticatedMessage(cmd.Kind)
	}

	switch cmd.Kind {
	case CommandList:
		return d.listEvents(ctx, cmd)
	case CommandCreate:
		return d.createEvent(ctx, cmd)
	case CommandSend:
		return d.sendEmail(ctx, cmd)
	default:
		return "Sorry, I did not understand that tool request."
	}
}

func (d *Dispatcher) listEvents(ctx context.Context, cmd Command) string {
	window := cmd.WindowDays
	if window <= 0 {
		window = listWindowDays
	}
	from := d.now()
	to := from.AddDate(0, 0, window)

	events, err := d.calendar.ListEvents(ctx, cmd.Query, from, to, 10)
	if err != nil {
		d.logger.Error("ToolDispatcher", "Calendar list failed", map[string]interface{}{"error": err.Error()})
		return MsgCalendarError
	}
	if len(events) == 0 {
		return MsgNoUpcomingEvents
	}

	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s: %s", ev.Start.Format(eventTimeLayout), ev.Summary))
	}
	return "Here are the upcoming events:\n" + strings.Join(lines, "\n")
}

func (d *Dispatcher) createEvent(ctx context.Context, cmd Command) string {
	created, err := d.calendar.CreateEvent(ctx, Event{
		Summary:     cmd.Summary,
		Description: cmd.Description,
		Start:       cmd.Start,
		End:         cmd.End,
	})
	if err != nil {
		d.logger.Error("ToolDispatcher", "Calendar insert failed", map[string]interface{}{"error": err.Error()})
		return MsgCalendarError
	}
	return fmt.Sprintf("Event created successfully: %s at %s", created.Summary, created.Start.Format(eventTimeLayout))
}

func (d *Dispatcher) sendEmail(ctx context.Context, cmd Command) string {
	if err := d.email.Send(ctx, cmd.To, cmd.Subject, cmd.Body); err != nil {
		d.logger.Error("ToolDispatcher", "Email send failed", map[string]interface{}{"error": err.Error(), "to": cmd.To})
		return MsgEmailError
	}
	return MsgEmailSent
}

func notAuthenticatedMessage(kind CommandKind) string {
	feature := "calendar"
	if kind == CommandSend {
		feature = "email"
	}
	return fmt.Sprintf("User is not authenticated with Google. Please go to Settings > Google Authentication and connect your Google account to use %s features.", feature)
}
