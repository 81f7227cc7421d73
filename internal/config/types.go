// Package config loads songplays configuration from defaults, a YAML file,
// SONGPLAYS_ environment variables and command-line flags.
package config

import "github.com/leapstack-labs/songplays/pkg/core"

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	SongData     string               `koanf:"song_data" yaml:"song_data"`
	LogData      string               `koanf:"log_data" yaml:"log_data"`
	Extension    string               `koanf:"extension" yaml:"extension"`
	Workers      int                  `koanf:"workers" yaml:"workers"`
	CacheSize    uint64               `koanf:"cache_size" yaml:"cache_size"`
	StatePath    string               `koanf:"state_path" yaml:"state_path"`
	Verbose      bool                 `koanf:"verbose" yaml:"verbose"`
	OutputFormat string               `koanf:"output" yaml:"output"`
	Target       *TargetConfig        `koanf:"target" yaml:"target"`
	Environments map[string]EnvConfig `koanf:"environments" yaml:"environments,omitempty"`

	// TargetName is the environment selected with --target, if any.
	TargetName string `koanf:"-" yaml:"-"`
	// ProjectRoot anchors relative paths.
	ProjectRoot string `koanf:"-" yaml:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SongData string        `koanf:"song_data" yaml:"song_data,omitempty"`
	LogData  string        `koanf:"log_data" yaml:"log_data,omitempty"`
	Target   *TargetConfig `koanf:"target" yaml:"target,omitempty"`
}

// Default configuration values.
const (
	DefaultSongData  = "data/song_data"
	DefaultLogData   = "data/log_data"
	DefaultExtension = ".json"
	DefaultWorkers   = 4
	DefaultCacheSize = 10000
	DefaultStateFile = ".songplays/state.db"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultTarget    = "postgres"
	DefaultDatabase  = "sparkifydb"

	// RedactedValue replaces secrets in printed configuration.
	RedactedValue = "********"
)

// RunName returns the name runs are recorded under: the selected
// environment, or the target type when none was selected.
func (c *Config) RunName() string {
	if c.TargetName != "" {
		return c.TargetName
	}
	if c.Target != nil {
		return c.Target.Type
	}
	return ""
}

// Redacted returns a copy of c with passwords masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Target = redactTarget(c.Target)
	if c.Environments != nil {
		out.Environments = make(map[string]EnvConfig, len(c.Environments))
		for name, env := range c.Environments {
			env.Target = redactTarget(env.Target)
			out.Environments[name] = env
		}
	}
	return &out
}

func redactTarget(t *TargetConfig) *TargetConfig {
	if t == nil {
		return nil
	}
	cp := *t
	if cp.Password != "" {
		cp.Password = RedactedValue
	}
	return &cp
}
