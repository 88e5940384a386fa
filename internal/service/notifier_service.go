package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const notificationTopic = "NOTIFICATIONS"

// INotifierService decouples notification producers (pipeline, oauth) from
// the websocket hub through an in-process pub/sub topic.
type INotifierService interface {
	Notify(kind, messageText, sessionId string)
	Typing(sessionId string, active bool)
	Start(ctx context.Context) error
}

type notifierService struct {
	pubSub *gochannel.GoChannel
	hub    *websocket.Hub
	logger logger.ILogger
}

func NewNotifierService(pubSub *gochannel.GoChannel, hub *websocket.Hub, log logger.ILogger) INotifierService {
	return &notifierService{
		pubSub: pubSub,
		hub:    hub,
		logger: log,
	}
}

func (s *notifierService) Notify(kind, messageText, sessionId string) {
	s.publish(entity.Notification{
		Id:        uuid.NewString(),
		Kind:      kind,
		Message:   messageText,
		SessionId: sessionId,
		CreatedAt: time.Now(),
	})
}

// Typing surfaces the pipeline loading flag to the UI.
func (s *notifierService) Typing(sessionId string, active bool) {
	state := "stop"
	if active {
		state = "start"
	}
	s.publish(entity.Notification{
		Id:        uuid.NewString(),
		Kind:      entity.NotificationKindTyping,
		Message:   state,
		SessionId: sessionId,
		CreatedAt: time.Now(),
	})
}

func (s *notifierService) publish(n entity.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Error("Notifier", "Failed to marshal notification", map[string]interface{}{"error": err.Error()})
		return
	}
	if err := s.pubSub.Publish(notificationTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Warn("Notifier", "Failed to publish notification", map[string]interface{}{"error": err.Error()})
	}
}

// Start consumes the topic and fans out to the hub until ctx is done.
func (s *notifierService) Start(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, notificationTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			var n entity.Notification
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				s.logger.Error("Notifier", "Failed to unmarshal notification", map[string]interface{}{"error": err.Error()})
				msg.Ack() // Ack invalid messages to prevent infinite retry
				continue
			}
			s.hub.Broadcast(n)
			msg.Ack()
		}
	}()

	return nil
}
