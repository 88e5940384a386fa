package entity

import "time"

const (
	NotificationKindError  = "error"
	NotificationKindAuth   = "auth"
	NotificationKindTyping = "typing"
)

// Notification is a transient UI event pushed over the websocket hub. It is
// never persisted.
type Notification struct {
	Id        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	SessionId string    `json:"sessionId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
