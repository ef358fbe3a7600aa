package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const defaultClaudeMaxTokens = 4096

// LLMClient is a single provider-backed chat model.
type LLMClient struct {
	Provider string
	Model    string
	chat     model.BaseChatModel
}

type OpenAIModelOptions struct {
	Model   string
	BaseURL string
}

type ClaudeModelOptions struct {
	Model     string
	MaxTokens int
}

type GeminiModelOptions struct {
	Model string
}

// NewLLMClient wraps an already constructed chat model.
func NewLLMClient(provider, modelName string, chat model.BaseChatModel) *LLMClient {
	return &LLMClient{Provider: provider, Model: modelName, chat: chat}
}

func NewOpenAIClient(ctx context.Context, key string, opts OpenAIModelOptions) (*LLMClient, error) {
	cfg := &openai.ChatModelConfig{
		APIKey: key,
		Model:  opts.Model,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg.BaseURL = base
	}
	chat, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	return NewLLMClient(ProviderOpenAI, opts.Model, chat), nil
}

func NewClaudeClient(ctx context.Context, key string, opts ClaudeModelOptions) (*LLMClient, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}
	chat, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    key,
		Model:     opts.Model,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create claude chat model: %w", err)
	}
	return NewLLMClient(ProviderAnthropic, opts.Model, chat), nil
}

func NewGeminiClient(ctx context.Context, key string, opts GeminiModelOptions) (*LLMClient, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: genaiClient,
		Model:  opts.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini chat model: %w", err)
	}
	return NewLLMClient(ProviderGemini, opts.Model, chat), nil
}

// Generate sends one system + user exchange and returns the assistant text.
func (c *LLMClient) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	if c == nil || c.chat == nil {
		return "", fmt.Errorf("llm client not configured")
	}
	messages := make([]*schema.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages, schema.UserMessage(userMessage))

	out, err := c.chat.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("%s returned an empty response", c.Provider)
	}
	return strings.TrimSpace(out.Content), nil
}
