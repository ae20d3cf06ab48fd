// Package shout provides a built-in plugin that extends the greet command,
// demonstrating dependency declarations and onion-style handler wrapping.
package shout

import (
	"context"
	"strings"

	"github.com/gantry-dev/gantry/internal/plugin"
)

// Plugin extends the greet command with an uppercase option.
type Plugin struct{}

// New creates the shout plugin.
func New() *Plugin {
	return &Plugin{}
}

// Metadata implements plugin.Plugin. The dependency on greet keeps this
// plugin disabled until greet is registered, and blocks greet from being
// unregistered while shout remains.
func (p *Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "shout",
		Version:     "1.0.0",
		Description: "adds a --shout option to greet",
		Dependencies: map[string]string{
			"greet": "1.x",
		},
	}
}

// Extensions implements plugin.ExtensionProvider. The wrapper rewrites the
// greeting flag before handing control to the original handler.
func (p *Plugin) Extensions() map[string]plugin.Extension {
	return map[string]plugin.Extension{
		"greet": {
			Flags: []plugin.Flag{
				{Name: "shout", Default: "", Usage: "Uppercase the greeting"},
			},
			Wrap: func(next plugin.CommandHandler) plugin.CommandHandler {
				return func(ctx context.Context, args []string, flags map[string]string) error {
					if flags["shout"] != "" {
						flags["greeting"] = strings.ToUpper(flags["greeting"])
					}
					return next(ctx, args, flags)
				}
			},
		},
	}
}
