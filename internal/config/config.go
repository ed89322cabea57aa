package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level gitrate configuration. It is built once at start-up
// and passed to the components that need it; nothing reads the environment
// after Load returns.
type Config struct {
	GitHub  GitHub  `mapstructure:"github"`
	LLM     LLM     `mapstructure:"llm"`
	Cache   Cache   `mapstructure:"cache"`
	Scoring Scoring `mapstructure:"scoring"`
	Server  Server  `mapstructure:"server"`
	Output  Output  `mapstructure:"output"`
	Log     Log     `mapstructure:"log"`
}

// GitHub configures the metadata fetcher.
type GitHub struct {
	Token              string        `mapstructure:"token"`
	BaseURL            string        `mapstructure:"base_url"`
	GraphQLURL         string        `mapstructure:"graphql_url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	ReadmeExcerptChars int           `mapstructure:"readme_excerpt_chars"`
}

// LLM configures the optional insight model.
type LLM struct {
	Provider  string        `mapstructure:"provider"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxTokens int           `mapstructure:"max_tokens"`
}

// Cache configures the snapshot cache.
type Cache struct {
	// Backend is "sqlite", "memory" or "none".
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Path    string        `mapstructure:"path"`
}

// Scoring configures the scoring inputs.
type Scoring struct {
	// QualityFiles overrides the list of tooling file names. Empty keeps the
	// built-in list.
	QualityFiles []string `mapstructure:"quality_files"`
}

// Server configures the web dashboard.
type Server struct {
	Addr string `mapstructure:"addr"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Log configures structured logging.
type Log struct {
	Format string `mapstructure:"format"`
	Level  string `mapstructure:"level"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies environment overrides and returns a validated Config.
func Load(cfgFile string) (*Config, error) {
	return load(cfgFile, viper.New())
}

func load(cfgFile string, v *viper.Viper) (*Config, error) {
	v.SetDefault("github.token", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.graphql_url", "")
	v.SetDefault("github.timeout", DefaultGitHub.Timeout)
	v.SetDefault("github.readme_excerpt_chars", DefaultGitHub.ReadmeExcerptChars)
	v.SetDefault("llm.provider", DefaultLLM.Provider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", DefaultLLM.Timeout)
	v.SetDefault("llm.max_tokens", DefaultLLM.MaxTokens)
	v.SetDefault("cache.backend", DefaultCache.Backend)
	v.SetDefault("cache.ttl", DefaultCache.TTL)
	v.SetDefault("cache.path", filepath.Join(DefaultConfigDir, DefaultDBName))
	v.SetDefault("scoring.quality_files", []string{})
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("log.format", DefaultLog.Format)
	v.SetDefault("log.level", DefaultLog.Level)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Well-known credential variables, checked after the prefixed ones.
	_ = v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY")

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, filepath.Ext(DefaultConfigFile)))
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	// Provider-specific keys fill in when no generic key is set.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = providerKey(cfg.LLM.Provider)
	}

	cfg.Cache.Path = expandPath(cfg.Cache.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func providerKey(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "anthropic", "":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "anthropic", "gemini":
	default:
		return fmt.Errorf("llm.provider must be anthropic or gemini, got %q", c.LLM.Provider)
	}
	switch strings.ToLower(c.Cache.Backend) {
	case "sqlite", "memory", "none":
	default:
		return fmt.Errorf("cache.backend must be sqlite, memory or none, got %q", c.Cache.Backend)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.GitHub.Timeout < 0 || c.LLM.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// DBPath returns the default path to the SQLite database.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
