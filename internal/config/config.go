package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/planstream/internal/planner"
)

const (
	DefaultPort     = 8765
	DefaultLogLevel = "info"
)

// Config holds server, MCP and LLM settings.
type Config struct {
	Port          int       `yaml:"port"`
	Token         string    `yaml:"token"`
	LogLevel      string    `yaml:"log_level"`
	MCP           MCPConfig `yaml:"mcp"`
	LLM           LLMConfig `yaml:"llm"`
	JournalPath   string    `yaml:"journal_path,omitempty"`
	DebugEvents   bool      `yaml:"debug_events,omitempty"`
	SyncRateLimit float64   `yaml:"sync_rate_limit,omitempty"`

	ConfigPath string `yaml:"-"`

	// persisted holds the values read from ConfigPath, before environment
	// overrides and flags. Only these are written back.
	persisted *Config
}

type MCPConfig struct {
	URL            string `yaml:"url"`
	Token          string `yaml:"token,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	BaseURL  string `yaml:"base_url,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Port:     DefaultPort,
		LogLevel: DefaultLogLevel,
		LLM:      LLMConfig{Provider: "gemini"},
		MCP:      MCPConfig{TimeoutSeconds: 30},
	}
}

func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "planstream", "config.yaml"), nil
}

// Load reads the config file at path (or the default path) and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg.ConfigPath = path

	if err := cfg.loadFromFile(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	fileValues := *cfg
	cfg.persisted = &fileValues
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize checks the listen settings and generates and persists an API
// token when none is set. Call it after flags were applied.
func (c *Config) Finalize() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", c.Port)
	}
	if c.Token == "" {
		token, err := generateToken()
		if err != nil {
			return fmt.Errorf("failed to generate token: %w", err)
		}
		c.Token = token
		if err := c.saveToFile(); err != nil {
			return fmt.Errorf("failed to save config file: %w", err)
		}
	}
	return nil
}

// Validate reports what the planning pipeline is missing. The server still
// starts without it; plan endpoints answer 503 instead.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.MCP.URL) == "" {
		missing = append(missing, "mcp.url")
	}
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		missing = append(missing, "llm.api_key")
	}
	if len(missing) > 0 {
		return &planner.ConfigurationError{Message: "missing " + strings.Join(missing, ", ")}
	}
	return nil
}

func (c *Config) MCPTimeout() time.Duration {
	if c.MCP.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.MCP.TimeoutSeconds) * time.Second
}

func (c *Config) loadFromFile() error {
	data, err := os.ReadFile(c.ConfigPath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", c.ConfigPath, err)
	}
	return nil
}

var providerKeyEnv = map[string]string{
	"gemini":    "GEMINI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	if v, ok := get("PLANSTREAM_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PLANSTREAM_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := get("PLANSTREAM_TOKEN"); ok {
		c.Token = v
	}
	if v, ok := get("PLANSTREAM_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("PLANSTREAM_MCP_URL"); ok {
		c.MCP.URL = v
	}
	if v, ok := get("PLANSTREAM_MCP_TOKEN"); ok {
		c.MCP.Token = v
	}
	if v, ok := get("PLANSTREAM_LLM_PROVIDER"); ok {
		c.LLM.Provider = strings.ToLower(v)
	}
	if v, ok := get("PLANSTREAM_LLM_MODEL"); ok {
		c.LLM.Model = v
	}
	if v, ok := get("PLANSTREAM_LLM_API_KEY"); ok {
		c.LLM.APIKey = v
	}
	if c.LLM.APIKey == "" {
		if v, ok := get(providerKeyEnv[strings.ToLower(c.LLM.Provider)]); ok {
			c.LLM.APIKey = v
		}
	}
	if v, ok := get("PLANSTREAM_JOURNAL"); ok {
		c.JournalPath = v
	}
	if v, ok := get("PLANSTREAM_DEBUG_EVENTS"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PLANSTREAM_DEBUG_EVENTS %q: %w", v, err)
		}
		c.DebugEvents = enabled
	}
	return nil
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.ConfigPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	out := Default()
	if c.persisted != nil {
		out = c.persisted
	}
	out.Token = c.Token
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(c.ConfigPath, data, 0o600)
}

func generateToken() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
