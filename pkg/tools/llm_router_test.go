package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	reply string
	err   error
}

func (p scriptedProvider) Chat(context.Context, []llm.Message, ...llm.Option) (string, error) {
	return p.reply, p.err
}

func (p scriptedProvider) Generate(context.Context, string, ...llm.Option) (string, error) {
	return p.reply, p.err
}

func TestLLMRouterParsesCommand(t *testing.T) {
	r := NewLLMRouter(scriptedProvider{
		reply: `{"kind":"send","to":"bob@example.com","subject":"Hi","body":"Hello"}`,
	})

	cmd, reply, handled := r.Route(context.Background(), "email bob for me")
	require.True(t, handled)
	assert.Empty(t, reply)
	assert.Equal(t, CommandSend, cmd.Kind)
	assert.Equal(t, "bob@example.com", cmd.To)
}

func TestLLMRouterFillsDefaults(t *testing.T) {
	fixed := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("list window", func(t *testing.T) {
		r := NewLLMRouter(scriptedProvider{reply: `{"kind":"list","query":"standup"}`})
		cmd, _, handled := r.Route(context.Background(), "what's coming up")
		require.True(t, handled)
		assert.Equal(t, listWindowDays, cmd.WindowDays)
	})

	t.Run("create times", func(t *testing.T) {
		r := NewLLMRouter(scriptedProvider{reply: `{"kind":"create","summary":"Sync"}`})
		r.now = func() time.Time { return fixed }

		cmd, _, handled := r.Route(context.Background(), "create a sync")
		require.True(t, handled)
		assert.Equal(t, fixed.Add(time.Hour), cmd.Start)
		assert.Equal(t, fixed.Add(2*time.Hour), cmd.End)
	})
}

func TestLLMRouterIncompleteSendIsParseFailure(t *testing.T) {
	r := NewLLMRouter(scriptedProvider{reply: `{"kind":"send","to":"bob@example.com"}`})

	_, reply, handled := r.Route(context.Background(), "send an email to bob")
	require.True(t, handled)
	assert.Equal(t, MsgEmailParseFail, reply)
}

func TestLLMRouterFallsBackOnBadOutput(t *testing.T) {
	t.Run("provider error", func(t *testing.T) {
		r := NewLLMRouter(scriptedProvider{err: errors.New("model offline")})
		cmd, _, handled := r.Route(context.Background(), "what is on my calendar")
		require.True(t, handled, "heuristic fallback should still route")
		assert.Equal(t, CommandList, cmd.Kind)
	})

	t.Run("prose instead of json", func(t *testing.T) {
		r := NewLLMRouter(scriptedProvider{reply: "I think this is about the calendar."})
		cmd, _, handled := r.Route(context.Background(), "schedule for this week")
		require.True(t, handled)
		assert.Equal(t, CommandList, cmd.Kind)
	})
}

func TestLLMRouterTossesFencedJSON(t *testing.T) {
	r := NewLLMRouter(scriptedProvider{reply: "```json\n{\"kind\":\"none\"}\n```"})

	_, _, handled := r.Route(context.Background(), "how are you?")
	assert.False(t, handled)
}
