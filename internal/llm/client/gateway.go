package client

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// KeySource records whether an API key belongs to the caller or is the
// operator's shared default.
type KeySource string

const (
	KeySourceUser    KeySource = "user"
	KeySourceDefault KeySource = "default"
)

// Credentials select the provider, model and API key for one request.
type Credentials struct {
	Provider string
	Model    string
	APIKey   string
	Source   KeySource
}

// Completion is a single gateway request.
type Completion struct {
	SystemPrompt string
	UserMessage  string
	Language     string
	Credentials  Credentials
}

// ClientFactory builds a provider client for a set of credentials.
type ClientFactory func(ctx context.Context, creds Credentials) (*LLMClient, error)

// Gateway turns prompts into generated text using whichever provider the
// request's credentials select.
type Gateway struct {
	factory         ClientFactory
	defaultLanguage string
}

func NewGateway(factory ClientFactory, defaultLanguage string) *Gateway {
	if factory == nil {
		factory = NewProviderClient
	}
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = "en"
	}
	return &Gateway{factory: factory, defaultLanguage: defaultLanguage}
}

// Complete runs one generation. A non-default language adds a response
// language directive to the system prompt.
func (g *Gateway) Complete(ctx context.Context, c Completion) (string, error) {
	if strings.TrimSpace(c.UserMessage) == "" {
		return "", fmt.Errorf("user message is required")
	}
	if strings.TrimSpace(c.Credentials.APIKey) == "" {
		return "", fmt.Errorf("API key for %s is not configured", c.Credentials.Provider)
	}
	llm, err := g.factory(ctx, c.Credentials)
	if err != nil {
		return "", err
	}
	system := c.SystemPrompt
	if directive := g.languageDirective(c.Language); directive != "" {
		system = strings.TrimSpace(system + "\n\n" + directive)
	}
	return llm.Generate(ctx, system, c.UserMessage)
}

func (g *Gateway) languageDirective(lang string) string {
	if IsDefaultLanguage(lang, g.defaultLanguage) {
		return ""
	}
	return fmt.Sprintf("Write your entire response in %s.", LanguageName(lang))
}

// NewProviderClient is the production ClientFactory.
func NewProviderClient(ctx context.Context, creds Credentials) (*LLMClient, error) {
	switch strings.TrimSpace(creds.Provider) {
	case ProviderAnthropic:
		return NewClaudeClient(ctx, creds.APIKey, ClaudeModelOptions{Model: creds.Model})
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, creds.APIKey, OpenAIModelOptions{Model: creds.Model})
	case ProviderGemini:
		return NewGeminiClient(ctx, creds.APIKey, GeminiModelOptions{Model: creds.Model})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", creds.Provider)
	}
}

// NormalizeLanguage validates a BCP 47 code and returns its base language,
// e.g. "pt-BR" -> "pt". Empty input yields "".
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("unsupported language %q", lang)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

// IsDefaultLanguage reports whether lang resolves to def (or is empty).
func IsDefaultLanguage(lang, def string) bool {
	norm, err := NormalizeLanguage(lang)
	if err != nil || norm == "" {
		return true
	}
	defNorm, err := NormalizeLanguage(def)
	if err != nil {
		return false
	}
	return norm == defNorm
}

// LanguageName returns the English display name of a language code.
func LanguageName(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		return lang
	}
	if name := display.Tags(language.English).Name(tag); name != "" {
		return name
	}
	return lang
}
