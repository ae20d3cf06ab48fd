// Package plugin implements the orchestration core: a registry that tracks
// plugin metadata and dependency relationships and drives the
// install/enable/disable/uninstall lifecycle, backed by a dependency graph
// and shared hook and signal managers.
package plugin

import (
	"context"
	"time"

	"github.com/gantry-dev/gantry/internal/hook"
	"github.com/gantry-dev/gantry/internal/signal"
)

// Plugin is the contract every gantry plugin satisfies. Lifecycle callbacks
// and capability surfaces are optional; the registry discovers them via the
// interfaces below.
type Plugin interface {
	// Metadata returns the plugin's identity and dependency declarations.
	Metadata() Metadata
}

// Installer is implemented by plugins that need one-time setup when they are
// registered in an enabled state. An install failure disables the plugin but
// does not undo registration.
type Installer interface {
	Install(ctx context.Context, pc *Context) error
}

// Uninstaller is implemented by plugins that need teardown at unregister
// time. Failures are logged, not propagated; removal proceeds regardless.
type Uninstaller interface {
	Uninstall(ctx context.Context, pc *Context) error
}

// Activator is implemented by plugins that need work on every enable. A
// failure aborts the enable and leaves the plugin disabled.
type Activator interface {
	Activate(ctx context.Context, pc *Context) error
}

// Deactivator is implemented by plugins that need work on every disable.
// Failures are best-effort: the disable still happens.
type Deactivator interface {
	Deactivate(ctx context.Context, pc *Context) error
}

// CommandProvider exposes commands that the registry merges into the host's
// command table while the plugin is enabled.
type CommandProvider interface {
	Commands() map[string]CommandSpec
}

// ExtensionProvider exposes extensions keyed by dotted command path.
type ExtensionProvider interface {
	Extensions() map[string]Extension
}

// ServiceProvider exposes named services to other plugins and the host.
type ServiceProvider interface {
	Services() map[string]any
}

// CommandHandler runs a merged plugin command. Flags carries the resolved
// string flag values by name.
type CommandHandler func(ctx context.Context, args []string, flags map[string]string) error

// Flag declares one string-valued command flag.
type Flag struct {
	Name      string
	Shorthand string
	Default   string
	Usage     string
}

// CommandSpec declares one command contributed by a plugin. The map key under
// which it is exposed is a dotted path ("db" or "db.migrate"); colliding keys
// resolve last-registered wins.
type CommandSpec struct {
	Use   string
	Short string
	Flags []Flag
	Run   CommandHandler
}

// Extension augments an existing command identified by its dotted path. Wrap,
// when set, wraps the target's handler onion-style with the original handler
// innermost; extensions from earlier-registered plugins sit closest to the
// original.
type Extension struct {
	Flags []Flag
	Wrap  func(next CommandHandler) CommandHandler
}

// Context is handed to every lifecycle callback. It exposes the shared hook
// and signal managers, a back-reference to the registry for plugin queries,
// the plugin's own metadata, and the opaque config bag supplied at
// registration, returned verbatim on every callback.
type Context struct {
	Hooks    *hook.Manager
	Signals  *signal.Manager
	Plugins  *Registry
	Metadata Metadata
	Config   map[string]any
}

// RegisteredPlugin is the registry's bookkeeping entry for one plugin.
type RegisteredPlugin struct {
	Plugin   Plugin
	Metadata Metadata
	Enabled  bool
	LoadTime time.Time
	// Dependencies is the flattened union of declared dependency and peer
	// dependency names.
	Dependencies []string
	// Dependents lists registered plugins that declared this one as a
	// dependency. Maintained by the registry to mirror the graph.
	Dependents []string
	Config     map[string]any
}
