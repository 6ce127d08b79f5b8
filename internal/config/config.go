// Package config provides the configuration schema, loader, hot-reload diff
// and file watcher for the recruitgraph service.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// SlogLevel maps l to the matching [slog.Level]. Unknown or empty levels map
// to [slog.LevelInfo].
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MCPTransport selects how the inspector's MCP tool server is exposed.
type MCPTransport string

const (
	// MCPDisabled turns the MCP server off.
	MCPDisabled MCPTransport = ""

	// MCPStdio serves MCP over the process's stdin/stdout.
	MCPStdio MCPTransport = "stdio"

	// MCPStreamableHTTP mounts the MCP server on the HTTP listener.
	MCPStreamableHTTP MCPTransport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t MCPTransport) IsValid() bool {
	switch t {
	case MCPDisabled, MCPStdio, MCPStreamableHTTP:
		return true
	}
	return false
}

// Defaults applied by [Config.ApplyDefaults].
const (
	DefaultListenAddr      = ":8080"
	DefaultMCPPath         = "/mcp"
	DefaultRecruitDistance = 2
	DefaultServiceName     = "recruitgraph"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Variants      VariantsConfig      `yaml:"variants"`
	Database      DatabaseConfig      `yaml:"database"`
	Inspector     InspectorConfig     `yaml:"inspector"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// VariantsConfig selects the variant definitions to load.
type VariantsConfig struct {
	// Active names the variant the recruit graph is built from. Empty means
	// the first file listed.
	Active string `yaml:"active"`

	// Files lists variant YAML files. Relative paths are resolved against
	// the directory of the config file.
	Files []string `yaml:"files"`

	// LegionHex is the default hex label passed to special recruit rules.
	LegionHex string `yaml:"legion_hex"`
}

// DatabaseConfig configures the optional persistent variant store.
type DatabaseConfig struct {
	// PostgresDSN enables the PostgreSQL variant store. Loaded variant files
	// are imported into it on start-up and the active variant is read back.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// InspectorConfig configures the query surfaces.
type InspectorConfig struct {
	MCPTransport MCPTransport `yaml:"mcp_transport"`

	// MCPPath is the HTTP path of the streamable-http MCP handler.
	MCPPath string `yaml:"mcp_path"`

	// DefaultDistance is used by recruit distance queries that give none.
	// Zero selects [DefaultRecruitDistance].
	DefaultDistance int `yaml:"default_distance"`
}

// ObservabilityConfig configures telemetry.
type ObservabilityConfig struct {
	ServiceName string `yaml:"service_name"`
}

// ApplyDefaults fills zero values with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Inspector.MCPPath == "" {
		c.Inspector.MCPPath = DefaultMCPPath
	}
	if c.Inspector.DefaultDistance == 0 {
		c.Inspector.DefaultDistance = DefaultRecruitDistance
	}
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = DefaultServiceName
	}
}
