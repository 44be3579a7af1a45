package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Vault   VaultConfig       `yaml:"vault"`
	Rewrite RewriteConfig     `yaml:"rewrite"`
	Journal JournalConfig     `yaml:"journal"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Rewrite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the HTTP server configuration used by watch mode.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the Markdown vault location and the file pattern
// selecting which documents inside it are processed.
type VaultConfig struct {
	Path    string `yaml:"path"`
	Pattern string `yaml:"pattern"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Pattern, validation.Required),
	)
}

// RewriteConfig holds the rule source for front matter rewrites.
//
// Exactly one rule source may be configured: BaseURL generates the built-in
// redirect rule, Rules points at a YAML rule file. When both are empty the
// source must be supplied on the command line or, for the MCP server, inline
// per call.
type RewriteConfig struct {
	Field          string `yaml:"field"`
	BaseURL        string `yaml:"base_url"`
	Rules          string `yaml:"rules"`
	Backup         bool   `yaml:"backup"`
	NormalizeSlugs bool   `yaml:"normalize_slugs"`
}

// Validate validates the rewrite configuration.
func (c *RewriteConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Field, validation.Required),
	); err != nil {
		return err
	}
	if c.BaseURL != "" && c.Rules != "" {
		return fmt.Errorf("rewrite: base_url and rules are mutually exclusive")
	}
	return nil
}

// JournalConfig holds the SQLite run journal configuration. An empty Path
// disables recording entirely.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Enabled returns true when a journal database is configured.
func (c *JournalConfig) Enabled() bool {
	return c.Path != ""
}

// AuthConfig holds authentication configuration for the watch-mode API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:    ".",
			Pattern: "*.md",
		},
		Rewrite: RewriteConfig{
			Field: "redirect_to",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
