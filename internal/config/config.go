package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in [llm].provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
)

// IndexConfig is the [index] table.
type IndexConfig struct {
	Dir  string `toml:"dir"`
	TopN int    `toml:"top_n"`
}

// ScanConfig is the [scan] table.
type ScanConfig struct {
	MaxCommits   int      `toml:"max_commits"`
	MarkdownDirs []string `toml:"markdown_dirs"`
	ProjectDirs  []string `toml:"project_dirs"`
}

// LLMConfig is the [llm] table.
type LLMConfig struct {
	Provider          string  `toml:"provider"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ProviderConfig holds the credentials and model of one language-model vendor.
type ProviderConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
}

// Config is the in-memory representation of ~/.taskcap/config.toml.
type Config struct {
	Index     IndexConfig    `toml:"index"`
	Scan      ScanConfig     `toml:"scan"`
	LLM       LLMConfig      `toml:"llm"`
	Anthropic ProviderConfig `toml:"anthropic"`
	OpenAI    ProviderConfig `toml:"openai"`
	Groq      ProviderConfig `toml:"groq"`
}

// Dir returns the absolute path to ~/.taskcap/.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".taskcap"), nil
}

// ConfigPath returns the absolute path to ~/.taskcap/config.toml.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the configuration written by taskcap init.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{Dir: "~/.taskcap/vector_db", TopN: 5},
		Scan:  ScanConfig{MaxCommits: 100, MarkdownDirs: []string{}, ProjectDirs: []string{}},
		LLM:   LLMConfig{Provider: ProviderAnthropic, RequestsPerSecond: 1},
		Anthropic: ProviderConfig{
			Model:   "claude-3-5-sonnet-latest",
			BaseURL: "https://api.anthropic.com",
		},
		OpenAI: ProviderConfig{
			Model:   "gpt-4o-mini",
			BaseURL: "https://api.openai.com/v1",
		},
		Groq: ProviderConfig{
			Model:   "llama-3.1-8b-instant",
			BaseURL: "https://api.groq.com/openai/v1",
		},
	}
}

// Load reads ~/.taskcap/config.toml over the defaults, then applies ~/.taskcap/.env and
// the process environment. A missing config file is not an error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	dotenv, err := LoadDotEnv()
	if err != nil {
		return nil, err
	}
	cfg.applyOverrides(func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	})
	if err := cfg.expand(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes path over DefaultConfig. Keys absent from the file keep their default.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
	}
	return cfg, nil
}

// Save marshals cfg and writes it to ~/.taskcap/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// ProviderSettings returns the vendor table for name.
func (c *Config) ProviderSettings(name string) (ProviderConfig, error) {
	switch strings.ToLower(name) {
	case ProviderAnthropic:
		return c.Anthropic, nil
	case ProviderOpenAI:
		return c.OpenAI, nil
	case ProviderGroq:
		return c.Groq, nil
	default:
		return ProviderConfig{}, fmt.Errorf("unsupported llm provider: %q", name)
	}
}

func (c *Config) applyOverrides(get func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(get(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Index.Dir, "TASKCAP_INDEX_DIR")
	set(&c.LLM.Provider, "TASKCAP_LLM_PROVIDER")
	set(&c.Anthropic.APIKey, "TASKCAP_ANTHROPIC_API_KEY")
	set(&c.OpenAI.APIKey, "TASKCAP_OPENAI_API_KEY")
	set(&c.Groq.APIKey, "TASKCAP_GROQ_API_KEY")
}

func (c *Config) expand() error {
	var err error
	if c.Index.Dir, err = ExpandPath(c.Index.Dir); err != nil {
		return err
	}
	for i, d := range c.Scan.MarkdownDirs {
		if c.Scan.MarkdownDirs[i], err = ExpandPath(d); err != nil {
			return err
		}
	}
	for i, d := range c.Scan.ProjectDirs {
		if c.Scan.ProjectDirs[i], err = ExpandPath(d); err != nil {
			return err
		}
	}
	return nil
}
