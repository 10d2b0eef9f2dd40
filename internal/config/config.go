// Package config loads LineageKit configuration from file, environment
// variables, and CLI flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration options.
type Config struct {
	ProjectDir string `koanf:"project_dir"`
	Port       int    `koanf:"port"`
	Watch      bool   `koanf:"watch"`
	Verbose    bool   `koanf:"verbose"`
	Output     string `koanf:"output"`
}

// Default configuration values.
const (
	DefaultProjectDir = "tables"
	DefaultPort       = 8080
	DefaultOutput     = "text"

	envPrefix = "LINEAGEKIT_"
)

// Config file names searched in order.
var configFileNames = []string{"lineagekit.yaml", "lineagekit.yml"}

// FindConfigFile returns the config file to use: the explicit path when
// given, else the first lineagekit.yaml/lineagekit.yml in the working
// directory. Empty string when none is found.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from defaults, an optional config file, LINEAGEKIT_
// environment variables, and explicitly set CLI flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"project_dir": DefaultProjectDir,
		"port":        DefaultPort,
		"watch":       false,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := FindConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// LINEAGEKIT_PROJECT_DIR -> project_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only flags that were explicitly set override other sources.
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ProjectDir == "" {
		return fmt.Errorf("project_dir is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	return nil
}

// ValidateProjectDir checks that the project directory exists.
func (c *Config) ValidateProjectDir() error {
	if _, err := os.Stat(c.ProjectDir); os.IsNotExist(err) {
		return fmt.Errorf("project directory does not exist: %s\nHint: create the directory or use --project-dir to specify a different path", c.ProjectDir)
	}
	return nil
}
