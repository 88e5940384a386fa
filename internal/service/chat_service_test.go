package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-assistant-be/internal/constant"
	"ai-assistant-be/internal/dto"
	"ai-assistant-be/internal/entity"
	"ai-assistant-be/internal/store"
	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type memBlob struct {
	mu   sync.Mutex
	data []byte
}

func (b *memBlob) Load() ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, false, nil
	}
	return b.data, true, nil
}

func (b *memBlob) Save(data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append([]byte(nil), data...)
	return nil
}

// fakeLLM echoes a canned reply and records the chat histories it saw.
type fakeLLM struct {
	mu        sync.Mutex
	reply     string
	err       error
	delay     time.Duration
	histories [][]llm.Message
}

func (f *fakeLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.histories = append(f.histories, history)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: entity.RoleUser, Content: prompt}}, options...)
}

// fakeNotifier records notifications and typing transitions.
type fakeNotifier struct {
	mu            sync.Mutex
	notifications []string
	typing        []string // "sessionId:start" / "sessionId:stop"
}

func (f *fakeNotifier) Notify(kind, messageText, sessionId string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, kind+":"+messageText)
}

func (f *fakeNotifier) Typing(sessionId string, active bool) {
	state := "stop"
	if active {
		state = "start"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, sessionId+":"+state)
}

func (f *fakeNotifier) Start(context.Context) error { return nil }

type authedGate struct{}

func (authedGate) IsAuthenticated() bool { return true }

type stubCalendar struct{}

func (stubCalendar) ListEvents(context.Context, string, time.Time, time.Time, int) ([]tools.Event, error) {
	return nil, nil
}

func (stubCalendar) CreateEvent(_ context.Context, event tools.Event) (*tools.Event, error) {
	return &event, nil
}

type stubEmail struct{}

func (stubEmail) Send(context.Context, string, string, string) error { return nil }

func newTestChatService(t *testing.T, provider llm.LLMProvider) (IChatService, *store.SessionStore, *fakeNotifier) {
	t.Helper()
	sessionStore := store.NewSessionStore(&memBlob{}, nopLogger{})
	notifier := &fakeNotifier{}
	dispatcher := tools.NewDispatcher(authedGate{}, stubCalendar{}, stubEmail{}, nopLogger{})
	svc := NewChatService(
		sessionStore,
		provider,
		tools.NewHeuristicRouter(),
		dispatcher,
		notifier,
		nil,
		nopLogger{},
	)
	return svc, sessionStore, notifier
}

func TestSendEmptyMessageRejected(t *testing.T) {
	provider := &fakeLLM{reply: "hi"}
	svc, sessionStore, notifier := newTestChatService(t, provider)

	_, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "   "})
	require.ErrorIs(t, err, ErrEmptyMessage)

	// No side effects at all: no session, no messages, no typing.
	assert.Empty(t, sessionStore.Sessions())
	assert.Empty(t, notifier.typing)
	assert.Empty(t, provider.histories)
}

func TestSendAttachmentOnlyIsAllowed(t *testing.T) {
	provider := &fakeLLM{reply: "received"}
	svc, _, _ := newTestChatService(t, provider)

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{
		Message: "",
		Attachments: []entity.FileAttachment{
			{Id: "a1", Name: "report.pdf", Type: "application/pdf"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "received", res.Message)

	// Attachment metadata, not bytes, reaches the prompt.
	require.Len(t, provider.histories, 1)
	last := provider.histories[0][len(provider.histories[0])-1]
	assert.Contains(t, last.Content, "report.pdf (application/pdf)")
}

func TestSendCreatesSessionOnDemand(t *testing.T) {
	provider := &fakeLLM{reply: "hello!"}
	svc, sessionStore, _ := newTestChatService(t, provider)

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "Hi there"})
	require.NoError(t, err)
	require.NotEmpty(t, res.SessionId)

	session, ok := sessionStore.Get(res.SessionId)
	require.True(t, ok)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
	assert.Equal(t, "Hi there", session.Messages[0].Content)
	assert.Equal(t, entity.RoleAssistant, session.Messages[1].Role)
	assert.Equal(t, "hello!", session.Messages[1].Content)
	assert.Equal(t, entity.StatusSuccess, session.Messages[1].Status)
	assert.Equal(t, "Hi there", res.Title)
}

func TestSendUnknownSessionId(t *testing.T) {
	svc, _, _ := newTestChatService(t, &fakeLLM{reply: "x"})

	_, err := svc.Send(context.Background(), &dto.SendChatRequest{
		SessionId: "missing",
		Message:   "hello",
	})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSendHistoryExcludesNewMessage(t *testing.T) {
	provider := &fakeLLM{reply: "ok"}
	svc, _, _ := newTestChatService(t, provider)

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "first"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), &dto.SendChatRequest{SessionId: res.SessionId, Message: "second"})
	require.NoError(t, err)

	require.Len(t, provider.histories, 2)

	// First call: system prompt + the new user message only.
	first := provider.histories[0]
	require.Len(t, first, 2)
	assert.Equal(t, entity.RoleSystem, first[0].Role)
	assert.Equal(t, constant.AssistantSystemPrompt, first[0].Content)
	assert.Equal(t, "first", first[1].Content)

	// Second call: system + prior user/assistant turns + the new message.
	second := provider.histories[1]
	require.Len(t, second, 4)
	assert.Equal(t, "first", second[1].Content)
	assert.Equal(t, "ok", second[2].Content)
	assert.Equal(t, "second", second[3].Content)
}

func TestSendClientHistoryOverride(t *testing.T) {
	provider := &fakeLLM{reply: "ok"}
	svc, _, _ := newTestChatService(t, provider)

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "stored turn"})
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), &dto.SendChatRequest{
		SessionId: res.SessionId,
		Message:   "next",
		History: []entity.Message{
			{Role: entity.RoleUser, Content: "client-side turn"},
		},
	})
	require.NoError(t, err)

	second := provider.histories[1]
	require.Len(t, second, 3)
	assert.Equal(t, "client-side turn", second[1].Content)
}

func TestSendFailureAppendsErrorMessage(t *testing.T) {
	provider := &fakeLLM{err: errors.New("upstream 500")}
	svc, sessionStore, notifier := newTestChatService(t, provider)

	_, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "hello"})
	require.Error(t, err)

	sessions := sessionStore.Sessions()
	require.Len(t, sessions, 1)
	session, _ := sessionStore.Get(sessions[0].Id)
	require.Len(t, session.Messages, 2)

	// User message survives, followed by the canned failure turn.
	assert.Equal(t, entity.RoleUser, session.Messages[0].Role)
	failure := session.Messages[1]
	assert.Equal(t, entity.RoleSystem, failure.Role)
	assert.Equal(t, constant.SendFailureMessage, failure.Content)
	assert.Equal(t, entity.StatusError, failure.Status)

	assert.Contains(t, notifier.notifications, entity.NotificationKindError+":"+constant.SendFailureNotification)

	// Loading flag was released despite the failure.
	assert.False(t, svc.Busy(sessions[0].Id))
}

func TestSendTypingBracketsProcessing(t *testing.T) {
	svc, _, notifier := newTestChatService(t, &fakeLLM{reply: "ok"})

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "hello"})
	require.NoError(t, err)

	require.Len(t, notifier.typing, 2)
	assert.Equal(t, res.SessionId+":start", notifier.typing[0])
	assert.Equal(t, res.SessionId+":stop", notifier.typing[1])
	assert.False(t, svc.Busy(res.SessionId))
}

func TestConcurrentSendsKeepFIFOOrder(t *testing.T) {
	provider := &fakeLLM{reply: "ack", delay: 5 * time.Millisecond}
	svc, sessionStore, _ := newTestChatService(t, provider)

	first, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "warmup"})
	require.NoError(t, err)
	sessionId := first.SessionId

	const n = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := svc.Send(context.Background(), &dto.SendChatRequest{
				SessionId: sessionId,
				Message:   fmt.Sprintf("msg-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	close(start)
	wg.Wait()

	session, ok := sessionStore.Get(sessionId)
	require.True(t, ok)
	// warmup pair + n user/assistant pairs, strictly alternating.
	require.Len(t, session.Messages, 2*(n+1))
	for i := 0; i < len(session.Messages); i += 2 {
		assert.Equal(t, entity.RoleUser, session.Messages[i].Role)
		assert.Equal(t, entity.RoleAssistant, session.Messages[i+1].Role)
	}
}

func TestSendRoutesCalendarTool(t *testing.T) {
	provider := &fakeLLM{reply: "should not be called"}
	svc, _, _ := newTestChatService(t, provider)

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "What is on my calendar?"})
	require.NoError(t, err)

	assert.Equal(t, tools.MsgNoUpcomingEvents, res.Message)
	assert.Empty(t, provider.histories, "tool messages must bypass the completion provider")
}

func TestSendRoutesEmailParseFailure(t *testing.T) {
	svc, _, _ := newTestChatService(t, &fakeLLM{reply: "unused"})

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "send an email please"})
	require.NoError(t, err)
	assert.Equal(t, tools.MsgEmailParseFail, res.Message)
}

func TestSendEmptyProviderReplyGetsPlaceholder(t *testing.T) {
	svc, _, _ := newTestChatService(t, &fakeLLM{reply: ""})

	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, constant.AssistantEmptyReply, res.Message)
}

func TestSessionPassthroughs(t *testing.T) {
	svc, _, _ := newTestChatService(t, &fakeLLM{reply: "x"})

	created := svc.CreateSession()
	require.NotNil(t, created)
	assert.Equal(t, "New Chat", created.Title)

	current, ok := svc.Current()
	require.True(t, ok)
	assert.Equal(t, created.Id, current.Id)

	second := svc.CreateSession()
	require.NoError(t, svc.Select(created.Id))
	current, _ = svc.Current()
	assert.Equal(t, created.Id, current.Id)

	assert.ErrorIs(t, svc.Select("missing"), ErrSessionNotFound)
	_, err := svc.History("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	svc.DeleteSession(created.Id)
	list := svc.Sessions()
	require.Len(t, list, 1)
	assert.Equal(t, second.Id, list[0].Id)
}

func TestTitleTruncationThroughPipeline(t *testing.T) {
	svc, _, _ := newTestChatService(t, &fakeLLM{reply: "ok"})

	long := strings.Repeat("a", 45)
	res, err := svc.Send(context.Background(), &dto.SendChatRequest{Message: long})
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 30)+"…", res.Title)
}
