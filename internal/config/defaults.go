// Package config provides configuration loading and defaults for gitrate.
package config

import "time"

// DefaultConfigDir is the default location for gitrate configuration.
const DefaultConfigDir = "~/.config/gitrate"

// DefaultDBName is the filename for the SQLite snapshot cache.
const DefaultDBName = "gitrate.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. GITRATE_CACHE_TTL.
const EnvPrefix = "GITRATE"

// DefaultGitHub holds the default API settings.
var DefaultGitHub = GitHub{
	Timeout:            30 * time.Second,
	ReadmeExcerptChars: 2000,
}

// DefaultLLM holds the default model settings. No key means no model call.
var DefaultLLM = LLM{
	Provider:  "anthropic",
	Timeout:   30 * time.Second,
	MaxTokens: 1024,
}

// DefaultCache holds the default cache settings.
var DefaultCache = Cache{
	Backend: "sqlite",
	TTL:     15 * time.Minute,
}

// DefaultServer holds the default web server settings.
var DefaultServer = Server{
	Addr: "127.0.0.1:8080",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 80,
}

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Format: "text",
	Level:  "info",
}
