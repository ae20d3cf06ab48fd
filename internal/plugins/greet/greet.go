// Package greet provides a built-in plugin contributing a demonstration
// command to the host command table.
package greet

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gantry-dev/gantry/internal/plugin"
)

// Plugin contributes the "greet" command.
type Plugin struct {
	// Out receives command output; defaults to stdout.
	Out io.Writer
}

// New creates the greet plugin writing to stdout.
func New() *Plugin {
	return &Plugin{Out: os.Stdout}
}

// Metadata implements plugin.Plugin.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "greet",
		Version:     "1.0.0",
		Description: "greets people from the command line",
	}
}

// Commands implements plugin.CommandProvider.
func (p *Plugin) Commands() map[string]plugin.CommandSpec {
	return map[string]plugin.CommandSpec{
		"greet": {
			Use:   "greet [name]",
			Short: "Print a greeting",
			Flags: []plugin.Flag{
				{Name: "greeting", Default: "Hello", Usage: "Greeting word to use"},
			},
			Run: p.run,
		},
	}
}

func (p *Plugin) run(ctx context.Context, args []string, flags map[string]string) error {
	target := "world"
	if len(args) > 0 {
		target = strings.Join(args, " ")
	}
	_, err := fmt.Fprintf(p.out(), "%s, %s!\n", flags["greeting"], target)
	return err
}

func (p *Plugin) out() io.Writer {
	if p.Out != nil {
		return p.Out
	}
	return os.Stdout
}
