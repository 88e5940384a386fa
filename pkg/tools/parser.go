package tools

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// User-facing strings returned by the parsers and dispatcher.
const (
	MsgNoUpcomingEvents = "No upcoming events found."
	MsgEmailSent        = "Email sent successfully."
	MsgEmailParseFail   = "Could not parse email details. Please specify 'to', 'subject', and 'body'."
	MsgEmailSendOnly    = "Sorry, I can only send emails for now. To do so, please provide the recipient, subject, and body."
	MsgCalendarError    = "Sorry, there was an error accessing Google Calendar. Please make sure you are authenticated."
	MsgEmailError       = "Sorry, there was an error accessing Gmail. Please make sure you are authenticated."
)

const listWindowDays = 7

var (
	emailToPattern      = regexp.MustCompile(`(?i)to\s+(\S+@\S+)`)
	emailSubjectPattern = regexp.MustCompile(`(?i)subject\s+(.+?)\s+body\b`)
	emailBodyPattern    = regexp.MustCompile(`(?i)\bbody\s+(.+)$`)
)

// ParseCalendarInput turns a free-text calendar query into a Command.
// Creation intent ("create"/"add") synthesizes a one-hour event starting one
// hour from now; anything else lists the next 7 days.
func ParseCalendarInput(input string, now time.Time) Command {
	lower := strings.ToLower(input)
	if strings.Contains(lower, "create") || strings.Contains(lower, "add") {
		start := now.Add(time.Hour)
		return Command{
			Kind:        CommandCreate,
			Summary:     fmt.Sprintf("New Event from query: %q", input),
			Description: input,
			Start:       start,
			End:         start.Add(time.Hour),
		}
	}

	return Command{
		Kind:       CommandList,
		Query:      input,
		WindowDays: listWindowDays,
	}
}

// ParseEmailInput turns a free-text email query into a send Command. Only a
// "send" intent is supported; to/subject/body are extracted by pattern match
// and a missing field yields a corrective reply instead of a guess.
func ParseEmailInput(input string) (Command, string) {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "send") {
		return Command{}, MsgEmailSendOnly
	}

	toMatch := emailToPattern.FindStringSubmatch(input)
	subjectMatch := emailSubjectPattern.FindStringSubmatch(input)
	bodyMatch := emailBodyPattern.FindStringSubmatch(input)

	if toMatch == nil || subjectMatch == nil || bodyMatch == nil {
		return Command{}, MsgEmailParseFail
	}

	return Command{
		Kind:    CommandSend,
		To:      toMatch[1],
		Subject: strings.TrimSpace(subjectMatch[1]),
		Body:    strings.TrimSpace(bodyMatch[1]),
	}, ""
}
