package config

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/specialistvlad/workgrid/internal/pipeline"
	"github.com/specialistvlad/workgrid/internal/workspace"
)

const (
	// FileName is the config file looked up in the workspace root.
	FileName = "workgrid"
	// EnvPrefix prefixes environment overrides, e.g. WORKGRID_LOG_LEVEL.
	EnvPrefix = "WORKGRID"
)

// Config holds all application configuration.
type Config struct {
	Workspace WorkspaceConfig  `mapstructure:"workspace"`
	Options   pipeline.Options `mapstructure:"options"`
	Log       LogConfig        `mapstructure:"log"`
	Tracing   TracingConfig    `mapstructure:"tracing"`
	Report    ReportConfig     `mapstructure:"report"`
	// Stages maps a stage name to its raw settings.
	Stages map[string]map[string]any `mapstructure:"stages"`
}

// WorkspaceConfig controls discovery and how packages enter the registry.
type WorkspaceConfig struct {
	workspace.DiscoverOptions `mapstructure:",squash"`
	workspace.Policy          `mapstructure:",squash"`
	// Lock takes an exclusive file lock on the workspace for the run.
	Lock bool `mapstructure:"lock"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	// Endpoint is the OTLP gRPC collector address. Empty disables tracing.
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type ReportConfig struct {
	// URL is a socket.io server that receives pipeline events.
	URL string `mapstructure:"url"`
}

// flagKeys binds command line flags to config keys.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"otlp-endpoint": "tracing.endpoint",
	"report-url":    "report.url",
}

// Validate checks configuration for issues and returns one message per
// problem.
func (c *Config) Validate() []string {
	var problems []string

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be 'debug', 'info', 'warn', or 'error'", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.Log.Format))
	}

	switch c.Workspace.PeerDependencies {
	case "", workspace.PeersOrder, workspace.PeersLinkOnly:
	default:
		problems = append(problems, fmt.Sprintf("invalid peer_dependencies '%s': must be '%s' or '%s'", c.Workspace.PeerDependencies, workspace.PeersOrder, workspace.PeersLinkOnly))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		problems = append(problems, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	return problems
}

// Load reads configuration from file, environment and flags. path names an
// explicit config file; when empty, workgrid.yaml in dir is used if present.
// flags may be nil.
func Load(path, dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("workspace.lock", true)
	v.SetDefault("workspace.peer_dependencies", string(workspace.PeersOrder))
	v.SetDefault("workspace.ignore_workspace_root", true)
	v.SetDefault("tracing.service_name", "workgrid")
	v.SetDefault("tracing.sample_rate", 1.0)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "binding flag --%s", name)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	return &cfg, nil
}
