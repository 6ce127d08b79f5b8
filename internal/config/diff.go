package config

import "slices"

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VariantsChanged is set when the active variant or the variant file
	// list changed. The graph must be rebuilt and the stock reset.
	VariantsChanged bool

	// QueryDefaultsChanged is set when the default hex or recruit distance
	// changed. Applying it also rebuilds the query service.
	QueryDefaultsChanged bool

	// RestartRequired lists changed settings that only take effect after a
	// restart, by YAML key.
	RestartRequired []string
}

// IsZero reports whether nothing changed.
func (d ConfigDiff) IsZero() bool {
	return !d.LogLevelChanged && !d.VariantsChanged && !d.QueryDefaultsChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Variants.Active != new.Variants.Active || !slices.Equal(old.Variants.Files, new.Variants.Files) {
		d.VariantsChanged = true
	}

	if old.Variants.LegionHex != new.Variants.LegionHex || old.Inspector.DefaultDistance != new.Inspector.DefaultDistance {
		d.QueryDefaultsChanged = true
	}

	restart := []struct {
		key     string
		changed bool
	}{
		{"server.listen_addr", old.Server.ListenAddr != new.Server.ListenAddr},
		{"database.postgres_dsn", old.Database.PostgresDSN != new.Database.PostgresDSN},
		{"inspector.mcp_transport", old.Inspector.MCPTransport != new.Inspector.MCPTransport},
		{"inspector.mcp_path", old.Inspector.MCPPath != new.Inspector.MCPPath},
		{"observability.service_name", old.Observability.ServiceName != new.Observability.ServiceName},
	}
	for _, r := range restart {
		if r.changed {
			d.RestartRequired = append(d.RestartRequired, r.key)
		}
	}

	return d
}
