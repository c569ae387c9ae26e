package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Model   Model   `yaml:"model"`
	Related Related `yaml:"related"`
	Fetch   Fetch   `yaml:"fetch"`
	Server  Server  `yaml:"server"`
	History History `yaml:"history"`
	Output  Output  `yaml:"output"`
	Logging Logging `yaml:"logging"`
}

// Model points at the exported vectorizer and classifier artifacts.
// Relative paths resolve against the working directory.
type Model struct {
	VectorizerPath string `yaml:"vectorizer_path"`
	ClassifierPath string `yaml:"classifier_path"`
}

type Related struct {
	Provider string        `yaml:"provider"` // "newsapi", "feed" or "none"
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	NewsAPI  NewsAPIConfig `yaml:"newsapi"`
	Feed     FeedConfig    `yaml:"feed"`
}

type NewsAPIConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

type FeedConfig struct {
	URLTemplate string `yaml:"url_template"`
}

type Fetch struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

type Server struct {
	Host        string    `yaml:"host"`
	Port        int       `yaml:"port"`
	RateLimit   RateLimit `yaml:"rate_limit"`
	CORSOrigins []string  `yaml:"cors_origins"`
}

type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type History struct {
	Enabled bool `yaml:"enabled"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// ConfigDir returns the XDG config directory for misinfo.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "misinfo")
}

// DataDir returns the XDG data directory for misinfo.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "misinfo")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/misinfo/config.yaml > ./config.yaml
// An empty path with a nil error means no file exists and defaults apply.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", nil
}

// Load reads and parses a config YAML file. An empty path yields the
// embedded defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(DefaultConfigYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Model: Model{
			VectorizerPath: "models/vectorizer.json",
			ClassifierPath: "models/classifier.json",
		},
		Related: Related{
			Provider: "newsapi",
			PageSize: 3,
			Timeout:  30 * time.Second,
			CacheTTL: 15 * time.Minute,
			NewsAPI: NewsAPIConfig{
				APIKeyEnv: "NEWSAPI_KEY",
				BaseURL:   "https://newsapi.org/v2/everything",
			},
			Feed: FeedConfig{
				URLTemplate: "https://news.google.com/rss/search?q={query}&hl=en-US&gl=US&ceid=US:en",
			},
		},
		Fetch: Fetch{Timeout: 15 * time.Second},
		Server: Server{
			Host:      "127.0.0.1",
			Port:      8000,
			RateLimit: RateLimit{PerSecond: 1, Burst: 3},
		},
		History: History{Enabled: true},
		Logging: Logging{Level: "INFO", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Related.Provider {
	case "newsapi", "feed", "none":
	default:
		return fmt.Errorf("unknown related provider %q (want newsapi, feed or none)", c.Related.Provider)
	}
	if c.Related.PageSize <= 0 {
		return fmt.Errorf("related.page_size must be positive, got %d", c.Related.PageSize)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
