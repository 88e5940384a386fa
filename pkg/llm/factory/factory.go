package factory

import (
	"fmt"

	"ai-assistant-be/pkg/llm"
	"ai-assistant-be/pkg/llm/ollama"
	"ai-assistant-be/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, apiKey, ollamaBaseURL string) (llm.LLMProvider, error) {
	switch providerType {
	case "openai":
		if modelName == "" {
			modelName = "gpt-3.5-turbo" // Default
		}
		return openai.NewOpenAIProvider(apiKey, modelName), nil
	case "ollama":
		if ollamaBaseURL == "" {
			ollamaBaseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(ollamaBaseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
