package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/gantry-dev/gantry/internal/command"
	"github.com/gantry-dev/gantry/internal/config"
	"github.com/gantry-dev/gantry/internal/logger"
	"github.com/gantry-dev/gantry/internal/plugin"
	"github.com/gantry-dev/gantry/internal/plugins/audit"
	"github.com/gantry-dev/gantry/internal/plugins/greet"
	"github.com/gantry-dev/gantry/internal/plugins/shout"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	registry := plugin.New(cfg.RegistryConfig(), log)
	if err := registerPlugins(registry, cfg, log); err != nil {
		return fmt.Errorf("failed to prepare plugins: %w", err)
	}

	root := newRootCmd(registry)
	command.Attach(root, registry)
	return root.Execute()
}

// loadConfig reads the file named by GANTRY_CONFIG, falling back to
// ./gantry.yaml when present and built-in defaults otherwise.
func loadConfig() (*config.Config, error) {
	path := os.Getenv("GANTRY_CONFIG")
	if path == "" {
		if _, err := os.Stat("gantry.yaml"); err == nil {
			path = "gantry.yaml"
		}
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	human := false
	switch cfg.Logging.Format {
	case "human":
		human = true
	case "json":
		human = false
	default:
		human = term.IsTerminal(int(os.Stderr.Fd()))
	}

	return logger.New(logger.Options{
		Level:         cfg.Logging.Level,
		HumanReadable: human,
	})
}

func registerPlugins(registry *plugin.Registry, cfg *config.Config, log *logger.Logger) error {
	ctx := context.Background()
	builtins := []plugin.Plugin{
		audit.New(log),
		greet.New(),
		shout.New(),
	}
	for _, p := range builtins {
		name := p.Metadata().Name
		if err := registry.Register(ctx, p, cfg.PluginConfig(name)); err != nil {
			return err
		}
	}
	return nil
}
