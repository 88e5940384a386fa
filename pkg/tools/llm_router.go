package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ai-assistant-be/pkg/llm"
)

const routePrompt = `You classify a user message for a personal assistant with calendar and email tools.
Respond with ONLY this JSON format, no other text:
{"kind":"list"} to list calendar events (include "query"),
{"kind":"create"} to create a calendar event (include "summary"),
{"kind":"send"} to send an email (include "to","subject","body"),
{"kind":"none"} for plain conversation.

Message: `

// LLMRouter asks the model for a structured command and falls back to the
// heuristic router when the model output is not usable JSON.
type LLMRouter struct {
	provider llm.LLMProvider
	fallback *HeuristicRouter
	now      func() time.Time
}

func NewLLMRouter(provider llm.LLMProvider) *LLMRouter {
	return &LLMRouter{
		provider: provider,
		fallback: NewHeuristicRouter(),
		now:      time.Now,
	}
}

func (r *LLMRouter) Route(ctx context.Context, input string) (Command, string, bool) {
	raw, err := r.provider.Generate(ctx, routePrompt+input, llm.WithTemperature(0))
	if err != nil {
		return r.fallback.Route(ctx, input)
	}

	var cmd Command
	if err := json.Unmarshal([]byte(extractJSON(raw)), &cmd); err != nil {
		return r.fallback.Route(ctx, input)
	}

	switch cmd.Kind {
	case CommandList:
		if cmd.WindowDays == 0 {
			cmd.WindowDays = listWindowDays
		}
		return cmd, "", true
	case CommandCreate:
		if cmd.Start.IsZero() {
			cmd.Start = r.now().Add(time.Hour)
		}
		if cmd.End.IsZero() {
			cmd.End = cmd.Start.Add(time.Hour)
		}
		return cmd, "", true
	case CommandSend:
		if cmd.To == "" || cmd.Subject == "" || cmd.Body == "" {
			return Command{}, MsgEmailParseFail, true
		}
		return cmd, "", true
	default:
		return Command{}, "", false
	}
}

// extractJSON tolerates models that wrap the object in prose or fences.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return raw
	}
	return raw[start : end+1]
}
