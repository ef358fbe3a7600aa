package client

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	filepathx "github.com/yargevad/filepathx"
)

const (
	PromptExplain     = "explain"
	PromptPlan        = "plan"
	PromptPullRequest = "pull_request"
	PromptTranslate   = "translate"
)

// Prompt is a rendered system/user pair.
type Prompt struct {
	System string
	User   string
}

// PromptLibrary renders named templates. Each template file defines a
// "system" and a "user" block.
type PromptLibrary struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewPromptLibrary loads the embedded templates, then any *.tmpl files found
// anywhere under overrideDir. An override replaces the embedded template with
// the same base name.
func NewPromptLibrary(overrideDir string) (*PromptLibrary, error) {
	lib := &PromptLibrary{templates: make(map[string]*template.Template)}

	entries, err := fs.Glob(embeddedPrompts, "prompts/*.tmpl")
	if err != nil {
		return nil, err
	}
	for _, path := range entries {
		data, err := embeddedPrompts.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read embedded prompt %s: %w", path, err)
		}
		if err := lib.add(promptName(path), string(data)); err != nil {
			return nil, err
		}
	}

	overrideDir = strings.TrimSpace(overrideDir)
	if overrideDir == "" {
		return lib, nil
	}
	matches, err := filepathx.Glob(filepath.Join(overrideDir, "**", "*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("scan prompt overrides: %w", err)
	}
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt override %s: %w", path, err)
		}
		if err := lib.add(promptName(path), string(data)); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

func promptName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func (l *PromptLibrary) add(name, text string) error {
	tmpl, err := template.New(name).Option("missingkey=zero").Funcs(promptFuncs).Parse(text)
	if err != nil {
		return fmt.Errorf("parse prompt %s: %w", name, err)
	}
	if tmpl.Lookup("user") == nil {
		return fmt.Errorf("prompt %s has no user block", name)
	}
	l.mu.Lock()
	l.templates[name] = tmpl
	l.mu.Unlock()
	return nil
}

// Names lists the loaded prompt names.
func (l *PromptLibrary) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.templates))
	for name := range l.templates {
		out = append(out, name)
	}
	return out
}

// Render executes the named template against data.
func (l *PromptLibrary) Render(name string, data any) (Prompt, error) {
	l.mu.RLock()
	tmpl, ok := l.templates[name]
	l.mu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("prompt %s not found", name)
	}

	var out Prompt
	if tmpl.Lookup("system") != nil {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, "system", data); err != nil {
			return Prompt{}, fmt.Errorf("render %s system prompt: %w", name, err)
		}
		out.System = strings.TrimSpace(buf.String())
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "user", data); err != nil {
		return Prompt{}, fmt.Errorf("render %s user prompt: %w", name, err)
	}
	out.User = strings.TrimSpace(buf.String())
	return out, nil
}
