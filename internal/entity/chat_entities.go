package entity

import (
	"strconv"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	StatusPending = "pending"
	StatusSuccess = "success"
	StatusError   = "error"
)

// Message is a single chat turn. Id, Role and Timestamp are immutable after
// creation; Status transitions pending->success or pending->error at most once.
// JSON tags match the persisted blob format.
type Message struct {
	Id          string           `json:"id"`
	Role        string           `json:"role"`
	Content     string           `json:"content"`
	Timestamp   time.Time        `json:"timestamp"`
	Status      string           `json:"status,omitempty"`
	Attachments []FileAttachment `json:"attachments,omitempty"`
}

// FileAttachment is an uploaded file reference. The Url points at the local
// uploads directory and is not durable across deployments.
type FileAttachment struct {
	Id   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Url  string `json:"url"`
}

// ChatSession is a titled, ordered conversation thread. Messages are
// append-only and their order is chronological.
type ChatSession struct {
	Id        string     `json:"id"`
	Title     string     `json:"title"`
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewTimeID returns a creation-time derived id. Nanosecond resolution keeps
// ids unique and ordering-friendly within a process.
func NewTimeID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
