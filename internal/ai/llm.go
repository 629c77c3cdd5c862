package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// LLM generates a completion for a prompt pair. Implementations must be safe
// for concurrent use since every request handler shares one instance.
type LLM interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, params GenParams) (string, error)
}

type langchainLLM struct {
	model llms.Model
}

func NewOllama(serverURL, model string) (LLM, error) {
	client, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create ollama client: %w", err)
	}
	return &langchainLLM{model: client}, nil
}

func NewOpenAI(apiKey, model string) (LLM, error) {
	client, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}
	return &langchainLLM{model: client}, nil
}

// NewLLM selects the completion backend by provider name. Ollama is the
// default since it runs without an API key.
func NewLLM(provider, serverURL, apiKey, model string) (LLM, error) {
	switch strings.ToLower(provider) {
	case ProviderOllama, "":
		return NewOllama(serverURL, model)
	case ProviderOpenAI:
		return NewOpenAI(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

func (l *langchainLLM) Generate(ctx context.Context, systemPrompt, userPrompt string, params GenParams) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userPrompt))

	opts := []llms.CallOption{
		llms.WithTemperature(params.Temperature),
		llms.WithTopP(params.TopP),
		llms.WithMaxTokens(params.MaxTokens),
	}
	if params.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := l.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		slog.Error("llm generation failed", "error", err)
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return resp.Choices[0].Content, nil
}
