package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. Relative variant file paths are resolved
// against the directory of path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	cfg.ResolvePaths(filepath.Dir(path))
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and
// validates the result. Variant paths are left as written.
func LoadFromReader(r io.Reader) (*Config, error) {
	return decode(r)
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePaths makes relative variant file paths relative to dir.
func (c *Config) ResolvePaths(dir string) {
	for i, p := range c.Variants.Files {
		if !filepath.IsAbs(p) {
			c.Variants.Files[i] = filepath.Join(dir, p)
		}
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Variants
	if len(cfg.Variants.Files) == 0 {
		errs = append(errs, errors.New("variants.files must list at least one variant file"))
	}
	seen := make(map[string]int, len(cfg.Variants.Files))
	for i, p := range cfg.Variants.Files {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("variants.files[%d] is empty", i))
			continue
		}
		if prev, ok := seen[p]; ok {
			errs = append(errs, fmt.Errorf("variants.files[%d] %q is a duplicate of variants.files[%d]", i, p, prev))
		}
		seen[p] = i
	}

	// Inspector
	if !cfg.Inspector.MCPTransport.IsValid() {
		errs = append(errs, fmt.Errorf("inspector.mcp_transport %q is invalid; valid values: stdio, streamable-http", cfg.Inspector.MCPTransport))
	}
	if cfg.Inspector.MCPPath != "" && !strings.HasPrefix(cfg.Inspector.MCPPath, "/") {
		errs = append(errs, fmt.Errorf("inspector.mcp_path %q must start with /", cfg.Inspector.MCPPath))
	}
	if cfg.Inspector.DefaultDistance < 0 {
		errs = append(errs, fmt.Errorf("inspector.default_distance %d must not be negative", cfg.Inspector.DefaultDistance))
	}

	return errors.Join(errs...)
}
