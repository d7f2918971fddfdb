// Package config handles ytscribe configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Summary providers understood by the summarize package.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// DefaultMaxSummaryChars is the default input limit for summarization.
const DefaultMaxSummaryChars = 50000

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./ytscribe.yaml, ~/.config/ytscribe/config.yaml, /etc/ytscribe/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"ytscribe.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytscribe", "config.yaml"))
	}

	paths = append(paths, "/etc/ytscribe/config.yaml")
	return paths
}

// ErrNoConfig is returned by FindConfig when no explicit path was given
// and none of the search paths exist. Callers fall back to [Default].
var ErrNoConfig = errors.New("no config file found")

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w (searched: %v)", ErrNoConfig, DefaultSearchPaths())
}

// Config holds all ytscribe configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level"`
	LogFormat  string           `yaml:"log_format"` // text or json
	Listen     ListenConfig     `yaml:"listen"`
	Fetcher    FetcherConfig    `yaml:"fetcher"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Summary    SummaryConfig    `yaml:"summary"`
	API        APIConfig        `yaml:"api"`
}

// ListenConfig defines the HTTP front end bind settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// FetcherConfig controls how caption tracks are retrieved.
type FetcherConfig struct {
	// YtDlpPath is the path to the yt-dlp binary. If empty, the binary
	// is located via exec.LookPath.
	YtDlpPath string `yaml:"yt_dlp_path"`

	// CookiesFile is an optional Netscape-format cookie file passed to
	// yt-dlp for age- or region-restricted videos.
	CookiesFile string `yaml:"cookies_file"`

	// CookiesFromBrowser names a browser whose cookie store yt-dlp should
	// read (e.g. "chrome", "firefox"). Ignored when CookiesFile is set.
	CookiesFromBrowser string `yaml:"cookies_from_browser"`

	// Timeout bounds the yt-dlp invocation and each payload download.
	Timeout time.Duration `yaml:"timeout"`
}

// TranscriptConfig controls transcript rendering and output.
type TranscriptConfig struct {
	// OutputDir is where transcript and summary files are written.
	// Defaults to the current directory.
	OutputDir string `yaml:"output_dir"`

	// IncludeTimestamps prefixes each segment with [HH:MM:SS].
	IncludeTimestamps bool `yaml:"include_timestamps"`

	// Paragraphs groups segments into sentence-terminated paragraphs.
	Paragraphs bool `yaml:"paragraphs"`
}

// SummaryConfig controls the optional LLM summarization step.
type SummaryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // gemini, anthropic, ollama
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`

	// APIKey may be set inline (usually as ${GEMINI_API_KEY}). When empty,
	// the provider's conventional environment variable is consulted.
	APIKey string `yaml:"api_key"`

	// MaxChars limits the transcript text sent to the provider.
	MaxChars int `yaml:"max_chars"`

	// Language forces the summary language: auto, en, or ja.
	Language string `yaml:"language"`

	Timeout time.Duration `yaml:"timeout"`
}

// APIConfig defines HTTP front end limits.
type APIConfig struct {
	// RateLimit is the sustained requests per second accepted by the
	// transcript endpoints. Zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// APIKeyEnv returns the environment variable conventionally holding the
// API key for the configured provider, or "" for keyless providers.
func (s SummaryConfig) APIKeyEnv() string {
	switch s.Provider {
	case ProviderGemini, "":
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// ResolveAPIKey returns the inline API key if set, otherwise the value of
// the provider's environment variable.
func (s SummaryConfig) ResolveAPIKey() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	if env := s.APIKeyEnv(); env != "" {
		return os.Getenv(env)
	}
	return ""
}

// Load reads configuration from a YAML file. Fields absent from the file
// keep their [Default] values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process
// environment without overriding variables that are already set. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: LogFormatText,
		Listen:    ListenConfig{Port: 8080},
		Fetcher: FetcherConfig{
			Timeout: 2 * time.Minute,
		},
		Transcript: TranscriptConfig{
			OutputDir:         ".",
			IncludeTimestamps: true,
		},
		Summary: SummaryConfig{
			Enabled:  true,
			Provider: ProviderGemini,
			MaxChars: DefaultMaxSummaryChars,
			Language: "auto",
			Timeout:  3 * time.Minute,
		},
		API: APIConfig{
			RateLimit: 2,
			Burst:     4,
		},
	}
}

// Validate checks for values that would otherwise fail deep inside the
// pipeline.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("log_format %q (valid: text, json)", c.LogFormat)
	}
	switch c.Summary.Provider {
	case ProviderGemini, ProviderAnthropic, ProviderOllama:
	default:
		return fmt.Errorf("summary.provider %q (valid: gemini, anthropic, ollama)", c.Summary.Provider)
	}
	switch c.Summary.Language {
	case "auto", "en", "ja":
	default:
		return fmt.Errorf("summary.language %q (valid: auto, en, ja)", c.Summary.Language)
	}
	if c.Summary.MaxChars <= 0 {
		return fmt.Errorf("summary.max_chars must be positive, got %d", c.Summary.MaxChars)
	}
	if c.Listen.Port < 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	return nil
}
