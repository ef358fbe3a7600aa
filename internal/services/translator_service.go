package services

import (
	"context"
	"strings"

	"issuesolver/internal/llm/client"
)

// TranslatorService renders text into a user's language. Text requested in
// the default language is returned unchanged without calling the gateway.
type TranslatorService struct {
	gateway         Completer
	prompts         PromptRenderer
	credentials     CredentialResolver
	defaultLanguage string
}

func NewTranslatorService(gateway Completer, prompts PromptRenderer, credentials CredentialResolver, defaultLanguage string) *TranslatorService {
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = "en"
	}
	return &TranslatorService{
		gateway:         gateway,
		prompts:         prompts,
		credentials:     credentials,
		defaultLanguage: defaultLanguage,
	}
}

func (s *TranslatorService) Translate(ctx context.Context, userID, text, lang string) (string, error) {
	if _, err := client.NormalizeLanguage(lang); err != nil {
		return "", validationError("%v", err)
	}
	if strings.TrimSpace(text) == "" || client.IsDefaultLanguage(lang, s.defaultLanguage) {
		return text, nil
	}

	prompt, err := s.prompts.Render(client.PromptTranslate, map[string]string{
		"LanguageName": client.LanguageName(lang),
		"Text":         text,
	})
	if err != nil {
		return "", err
	}
	creds, err := s.credentials.Resolve(ctx, userID)
	if err != nil {
		return "", err
	}
	out, err := s.gateway.Complete(ctx, client.Completion{
		SystemPrompt: prompt.System,
		UserMessage:  prompt.User,
		Language:     lang,
		Credentials:  creds,
	})
	if err != nil {
		return "", newGatewayError(err, creds.Source)
	}
	return strings.TrimSpace(out), nil
}
