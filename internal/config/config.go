// Package config loads the host's own configuration file. Per-plugin config
// bags are opaque to the engine and are not parsed here; they pass through
// the registry verbatim.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gantry-dev/gantry/internal/plugin"
	gantryerrors "github.com/gantry-dev/gantry/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Config is the host configuration file model.
type Config struct {
	Logging  LoggingSettings  `yaml:"logging"`
	Registry RegistrySettings `yaml:"registry"`
	// Plugins maps plugin name to its opaque config bag, handed back
	// unchanged through the plugin context.
	Plugins map[string]map[string]any `yaml:"plugins"`
}

// LoggingSettings configures the host logger.
type LoggingSettings struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=auto human json"`
}

// RegistrySettings configures registry policy. Pointer fields distinguish
// "unset, use default" from an explicit false.
type RegistrySettings struct {
	AllowDuplicates      bool  `yaml:"allow_duplicates"`
	AutoEnable           *bool `yaml:"auto_enable"`
	ValidateDependencies *bool `yaml:"validate_dependencies"`
	SignalHistorySize    int   `yaml:"signal_history_size" validate:"omitempty,min=1"`
}

// Load reads, parses and validates the host configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, gantryerrors.NewParseError(path, 0, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, gantryerrors.NewParseError(path, extractLine(err), err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingSettings{Level: "info", Format: "auto"},
	}
}

// RegistryConfig folds the file settings into engine defaults.
func (c *Config) RegistryConfig() *plugin.RegistryConfig {
	cfg := plugin.DefaultConfig()
	if c == nil {
		return cfg
	}

	cfg.AllowDuplicates = c.Registry.AllowDuplicates
	if c.Registry.AutoEnable != nil {
		cfg.AutoEnable = *c.Registry.AutoEnable
	}
	if c.Registry.ValidateDependencies != nil {
		cfg.ValidateDependencies = *c.Registry.ValidateDependencies
	}
	if c.Registry.SignalHistorySize > 0 {
		cfg.SignalHistorySize = c.Registry.SignalHistorySize
	}
	return cfg
}

// PluginConfig returns the opaque config bag declared for a plugin, or nil.
func (c *Config) PluginConfig(name string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Plugins[name]
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return gantryerrors.NewValidationError(fe.Namespace(), fmt.Sprintf("failed '%s' rule", fe.Tag()), err)
		}
		return gantryerrors.NewValidationError("", err.Error(), err)
	}
	return nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	if _, scanErr := fmt.Sscanf(matches[1], "%d", &line); scanErr != nil {
		return 0
	}
	return line
}
