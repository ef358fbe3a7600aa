package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"issuesolver/internal/database"
	"issuesolver/internal/utils"
)

// Config represents the full issuesolver configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Keyring  KeyringConfig  `mapstructure:"keyring"`
	Log      LogConfig      `mapstructure:"log"`
	Prompts  PromptsConfig  `mapstructure:"prompts"`
	Solver   SolverConfig   `mapstructure:"solver"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigin  string        `mapstructure:"allowed_origin"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// AuthConfig holds the shared secret used to verify bearer tokens
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// GitHubConfig configures the issue fetcher
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// LLMConfig selects the default provider and model for the gateway
type LLMConfig struct {
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	DefaultLanguage string `mapstructure:"default_language"`
}

// KeyringConfig controls where provider API keys are stored
type KeyringConfig struct {
	Backend  string `mapstructure:"backend"`
	FileDir  string `mapstructure:"file_dir"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PromptsConfig points at an optional directory of prompt template overrides
type PromptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// SolverConfig carries the workflow's numeric caps
type SolverConfig struct {
	MaxDiffChars int `mapstructure:"max_diff_chars"`
	ListLimit    int `mapstructure:"list_limit"`
}

const envPrefix = "ISSUESOLVER"

// Load reads configuration from .env, an optional config file and the
// environment, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = utils.LoadEnv()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindKeys(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("issuesolver")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

// bindKeys registers every key so AutomaticEnv can populate fields that are
// absent from the config file.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.addr", "server.request_timeout", "server.allowed_origin",
		"database.path",
		"auth.jwt_secret", "auth.issuer",
		"github.token", "github.base_url",
		"llm.provider", "llm.model", "llm.default_language",
		"keyring.backend", "keyring.file_dir", "keyring.password",
		"log.level", "log.format",
		"prompts.dir",
		"solver.max_diff_chars", "solver.list_limit",
	} {
		_ = v.BindEnv(key)
	}
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * time.Minute
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = database.GetDefaultDBPath()
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.DefaultLanguage == "" {
		cfg.LLM.DefaultLanguage = "en"
	}
	if cfg.Keyring.Backend == "" {
		cfg.Keyring.Backend = "file"
	}
	if cfg.Keyring.FileDir == "" {
		cfg.Keyring.FileDir = ".issuesolver-keys"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Solver.MaxDiffChars == 0 {
		cfg.Solver.MaxDiffChars = 8000
	}
	if cfg.Solver.ListLimit == 0 {
		cfg.Solver.ListLimit = 10
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validProviders := map[string]bool{"openai": true, "anthropic": true, "gemini": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm provider: %s (must be openai, anthropic, or gemini)", c.LLM.Provider)
	}

	validBackends := map[string]bool{"file": true, "system": true}
	if !validBackends[c.Keyring.Backend] {
		return fmt.Errorf("invalid keyring backend: %s (must be file or system)", c.Keyring.Backend)
	}

	if c.Solver.MaxDiffChars < 0 {
		return fmt.Errorf("solver.max_diff_chars must be positive")
	}
	if c.Solver.ListLimit < 0 {
		return fmt.Errorf("solver.list_limit must be positive")
	}

	return nil
}

// ValidateForServe performs additional validation required before serving HTTP
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Keyring.Backend == "file" && c.Keyring.Password == "" {
		return fmt.Errorf("keyring.password is required for the file backend")
	}

	return nil
}
