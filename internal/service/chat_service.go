package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/pkg/logger"
	"ai-assistant-be/internal/store"
	"ai-assistant-be/pkg/events"
	"ai-assistant-be/pkg/llm"
	natspkg "ai-assistant-be/pkg/nats"
	"ai-assistant-be/pkg/tools"
)

var (
	// ErrEmptyMessage rejects no-op sends: nothing is stored, the loading
	// flag never toggles.
	ErrEmptyMessage = errors.New("message content is empty")

	ErrSessionNotFound = errors.New("chat session not found")
)

type IChatService interface {
	Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error)

	CreateSession() *dto.SessionResponse
	Sessions() []*dto.SessionResponse
	Current() (*dto.SessionResponse, bool)
	History(sessionId string) ([]*entity.Message, error)
	Select(sessionId string) error
	DeleteSession(sessionId string)

	// Busy reports whether a send is in flight for the session (the
	// UI-observable loading flag).
	Busy(sessionId string) bool
}

type chatService struct {
	store      *store.SessionStore
	llm        llm.LLMProvider
	router     tools.Router
	dispatcher *tools.Dispatcher
	notifier   INotifierService
	events     *natspkg.Publisher // best-effort, may be nil
	logger     logger.ILogger

	mu     sync.Mutex
	queues map[string]chan func()
	busy   map[string]bool
}

func NewChatService(
	sessionStore *store.SessionStore,
	llmProvider llm.LLMProvider,
	router tools.Router,
	dispatcher *tools.Dispatcher,
	notifier INotifierService,
	eventPublisher *natspkg.Publisher,
	log logger.ILogger,
) IChatService {
	return &chatService{
		store:      sessionStore,
		llm:        llmProvider,
		router:     router,
		dispatcher: dispatcher,
		notifier:   notifier,
		events:     eventPublisher,
		logger:     log,
		queues:     make(map[string]chan func()),
		busy:       make(map[string]bool),
	}
}

// Send runs the message pipeline. Sends targeting the same session are
// serialized through a per-session FIFO queue so the stored message order
// always matches call order, even under concurrent callers.
func (s *chatService) Send(ctx context.Context, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	content := strings.TrimSpace(req.Message)
	if content == "" && len(req.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	session, err := s.ensureSession(req.SessionId)
	if err != nil {
		return nil, err
	}

	var (
		res     *dto.SendChatResponse
		sendErr error
	)
	s.enqueue(session.Id, func() {
		res, sendErr = s.process(ctx, session.Id, content, req)
	})
	return res, sendErr
}

// ensureSession resolves the target session: explicit id, else the current
// session, else a fresh one.
func (s *chatService) ensureSession(sessionId string) (*entity.ChatSession, error) {
	if sessionId != "" {
		session, ok := s.store.Get(sessionId)
		if !ok {
			return nil, ErrSessionNotFound
		}
		return session, nil
	}
	if session, ok := s.store.GetCurrent(); ok {
		return session, nil
	}

	session := s.store.CreateSession()
	s.publishEvent(events.EventSessionCreated, map[string]interface{}{"session_id": session.Id})
	return session, nil
}

func (s *chatService) process(ctx context.Context, sessionId, content string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	// History snapshot BEFORE the new user message is appended.
	history := req.History
	if history == nil {
		if session, ok := s.store.Get(sessionId); ok {
			history = make([]entity.Message, 0, len(session.Messages))
			for _, m := range session.Messages {
				history = append(history, *m)
			}
		}
	}

	userMsg := &entity.Message{
		Id:          entity.NewTimeID(),
		Role:        entity.RoleUser,
		Content:     content,
		Timestamp:   time.Now(),
		Attachments: req.Attachments,
	}
	s.store.AddMessage(sessionId, userMsg)

	s.setBusy(sessionId, true)
	s.notifier.Typing(sessionId, true)
	// Guaranteed release: the loading flag never stays stuck, whatever the
	// outcome below.
	defer func() {
		s.setBusy(sessionId, false)
		s.notifier.Typing(sessionId, false)
	}()

	reply, err := s.complete(ctx, content, history, req)
	if err != nil {
		s.logger.Error("ChatService", "Completion failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		s.store.AddMessage(sessionId, &entity.Message{
			Id:        entity.NewTimeID(),
			Role:      entity.RoleSystem,
			Content:   constant.SendFailureMessage,
			Timestamp: time.Now(),
			Status:    entity.StatusError,
		})
		s.notifier.Notify(entity.NotificationKindError, constant.SendFailureNotification, sessionId)
		return nil, err
	}

	assistantMsg := &entity.Message{
		Id:        entity.NewTimeID(),
		Role:      entity.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
		Status:    entity.StatusSuccess,
	}
	s.store.AddMessage(sessionId, assistantMsg)

	s.publishEvent(events.EventChatMessageSent, map[string]interface{}{
		"session_id": sessionId,
		"message_id": userMsg.Id,
	})

	session, _ := s.store.Get(sessionId)
	title := ""
	if session != nil {
		title = session.Title
	}

	return &dto.SendChatResponse{
		SessionId: sessionId,
		Title:     title,
		Message:   reply,
		Sent:      userMsg,
		Reply:     assistantMsg,
	}, nil
}

// complete produces the assistant text: a tool result when the router
// recognizes a tool intent, the completion collaborator otherwise.
func (s *chatService) complete(ctx context.Context, content string, history []entity.Message, req *dto.SendChatRequest) (string, error) {
	if cmd, toolReply, handled := s.router.Route(ctx, content); handled {
		if toolReply != "" {
			return toolReply, nil
		}
		return s.dispatcher.Execute(ctx, cmd), nil
	}

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: entity.RoleSystem, Content: constant.AssistantSystemPrompt})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: entity.RoleUser, Content: withAttachmentNote(content, req.Attachments)})

	reply, err := s.llm.Chat(ctx, messages,
		llm.WithTemperature(constant.AssistantTemperature),
		llm.WithMaxTokens(constant.AssistantMaxTokens),
		llm.WithAPIKey(req.APIKey),
	)
	if err != nil {
		return "", err
	}
	if reply == "" {
		reply = constant.AssistantEmptyReply
	}
	return reply, nil
}

// withAttachmentNote appends attachment metadata (name and type only, never
// bytes) to the prompt.
func withAttachmentNote(content string, attachments []entity.FileAttachment) string {
	if len(attachments) == 0 {
		return content
	}
	notes := make([]string, 0, len(attachments))
	for _, a := range attachments {
		notes = append(notes, fmt.Sprintf("%s (%s)", a.Name, a.Type))
	}
	return content + "\n\n[Attached files: " + strings.Join(notes, ", ") + "]"
}

// --- Session passthroughs ---

func (s *chatService) CreateSession() *dto.SessionResponse {
	session := s.store.CreateSession()
	s.publishEvent(events.EventSessionCreated, map[string]interface{}{"session_id": session.Id})
	return toSessionResponse(session)
}

func (s *chatService) Sessions() []*dto.SessionResponse {
	sessions := s.store.Sessions()
	out := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionResponse(session))
	}
	return out
}

func (s *chatService) Current() (*dto.SessionResponse, bool) {
	session, ok := s.store.GetCurrent()
	if !ok {
		return nil, false
	}
	return toSessionResponse(session), true
}

func (s *chatService) History(sessionId string) ([]*entity.Message, error) {
	session, ok := s.store.Get(sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Messages, nil
}

func (s *chatService) Select(sessionId string) error {
	if !s.store.SetCurrent(sessionId) {
		return ErrSessionNotFound
	}
	return nil
}

func (s *chatService) DeleteSession(sessionId string) {
	s.store.DeleteSession(sessionId)
}

// --- Queue / loading flag ---

func (s *chatService) enqueue(sessionId string, fn func()) {
	s.mu.Lock()
	queue, ok := s.queues[sessionId]
	if !ok {
		queue = make(chan func(), 16)
		s.queues[sessionId] = queue
		go func() {
			for job := range queue {
				job()
			}
		}()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	queue <- func() {
		defer close(done)
		fn()
	}
	<-done
}

func (s *chatService) setBusy(sessionId string, busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if busy {
		s.busy[sessionId] = true
	} else {
		delete(s.busy, sessionId)
	}
}

func (s *chatService) Busy(sessionId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[sessionId]
}

func (s *chatService) publishEvent(eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("ChatService", "Event publish failed", map[string]interface{}{"event": eventType, "error": err.Error()})
	}
}

func toSessionResponse(session *entity.ChatSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:           session.Id,
		Title:        session.Title,
		CreatedAt:    session.CreatedAt,
		UpdatedAt:    session.UpdatedAt,
		MessageCount: len(session.Messages),
	}
}
