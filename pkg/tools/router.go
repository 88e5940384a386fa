package tools

import (
	"context"
	"strings"
	"time"
)

type ToolKind string

const (
	ToolNone     ToolKind = ""
	ToolCalendar ToolKind = "calendar"
	ToolEmail    ToolKind = "email"
)

var calendarKeywords = []string{"calendar", "event", "meeting", "schedule", "appointment"}
var emailKeywords = []string{"email", "e-mail", "mail", "inbox"}

// DetectTool decides whether a user message targets a tool at all. Email wins
// ties because "send ..." messages rarely mean calendar.
func DetectTool(input string) ToolKind {
	lower := strings.ToLower(input)

	if strings.HasPrefix(strings.TrimSpace(lower), "send") {
		return ToolEmail
	}
	for _, kw := range emailKeywords {
		if strings.Contains(lower, kw) {
			return ToolEmail
		}
	}
	for _, kw := range calendarKeywords {
		if strings.Contains(lower, kw) {
			return ToolCalendar
		}
	}
	return ToolNone
}

// Router maps a user message to a tool Command. handled=false means the
// message is plain conversation for the completion collaborator. A non-empty
// reply short-circuits dispatch (parse failures, unsupported intents).
type Router interface {
	Route(ctx context.Context, input string) (cmd Command, reply string, handled bool)
}

// HeuristicRouter reproduces the original keyword/pattern routing.
type HeuristicRouter struct {
	now func() time.Time
}

func NewHeuristicRouter() *HeuristicRouter {
	return &HeuristicRouter{now: time.Now}
}

func (r *HeuristicRouter) Route(_ context.Context, input string) (Command, string, bool) {
	switch DetectTool(input) {
	case ToolCalendar:
		return ParseCalendarInput(input, r.now()), "", true
	case ToolEmail:
		cmd, failure := ParseEmailInput(input)
		return cmd, failure, true
	default:
		return Command{}, "", false
	}
}
