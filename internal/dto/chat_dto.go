package dto

import (
	"time"

	"ai-assistant-be/internal/entity"
)

type SendChatRequest struct {
	// Optional: targets a specific session; the current session (created on
	// demand) is used otherwise.
	SessionId string `json:"session_id,omitempty"`

	Message string `json:"message"`

	// Optional client-held history. When present it overrides the stored
	// session history as completion context.
	History []entity.Message `json:"history,omitempty"`

	Attachments []entity.FileAttachment `json:"attachments,omitempty" validate:"max=10"`

	// From the x-openai-key header, never the body.
	APIKey string `json:"-"`
}

type SendChatResponse struct {
	SessionId string          `json:"session_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Sent      *entity.Message `json:"sent"`
	Reply     *entity.Message `json:"reply"`
}

type SessionResponse struct {
	Id           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}
