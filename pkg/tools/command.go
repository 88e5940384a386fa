package tools

import "time"

type CommandKind string

const (
	CommandList   CommandKind = "list"
	CommandCreate CommandKind = "create"
	CommandSend   CommandKind = "send"
)

// Command is the tagged-variant tool invocation. Kind selects which field
// group is meaningful; the dispatcher matches on it exhaustively.
type Command struct {
	Kind CommandKind `json:"kind"`

	// list
	Query      string `json:"query,omitempty"`
	WindowDays int    `json:"window_days,omitempty"`

	// create
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start,omitempty"`
	End         time.Time `json:"end,omitempty"`

	// send
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}
