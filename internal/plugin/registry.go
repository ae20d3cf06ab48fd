package plugin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gantry-dev/gantry/internal/hook"
	"github.com/gantry-dev/gantry/internal/logger"
	"github.com/gantry-dev/gantry/internal/signal"
)

// Signals emitted by the registry itself on lifecycle transitions. Plugins
// can subscribe to them through the shared signal manager.
const (
	SignalLoaded       = "core:plugin:loaded"
	SignalRegistered   = "plugin:registered"
	SignalEnabled      = "plugin:enabled"
	SignalDisabled     = "plugin:disabled"
	SignalUnregistered = "plugin:unregistered"
)

// Registry is the top-level orchestrator. It owns the plugin entries and the
// dependency graph, drives the lifecycle, and shares one hook manager and one
// signal manager with every plugin it hosts.
//
// Structural mutations (register, unregister, enable, disable) are serialized
// by a single mutex so a graph update can never interleave with a dependents
// scan. Lifecycle handlers run outside the lock and may call back into the
// registry.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*RegisteredPlugin
	// order preserves registration order so colliding command, extension and
	// service keys resolve last-registered wins.
	order   []string
	graph   *DependencyGraph
	hooks   *hook.Manager
	signals *signal.Manager
	config  *RegistryConfig
	logger  *logger.Logger
}

// New returns an independent registry instance. Multiple registries share
// nothing.
func New(cfg *RegistryConfig, log *logger.Logger) *Registry {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &Registry{
		entries: make(map[string]*RegisteredPlugin),
		graph:   NewDependencyGraph(),
		hooks:   hook.NewManager(),
		signals: signal.NewManager(signal.WithHistorySize(cfg.SignalHistorySize)),
		config:  cfg,
		logger:  log.WithComponent("registry"),
	}
}

// Hooks returns the shared hook manager.
func (r *Registry) Hooks() *hook.Manager {
	return r.hooks
}

// Signals returns the shared signal manager.
func (r *Registry) Signals() *signal.Manager {
	return r.signals
}

// Register adds a plugin to the registry. A duplicate name yields
// ErrDuplicatePlugin unless AllowDuplicates is set, in which case the new
// registration replaces the old entry. With dependency validation on, missing
// dependencies force the plugin to register disabled (or reject it outright
// when AutoEnable is off). An install handler failure disables the plugin but
// the registration stands; the failure is logged, not returned.
func (r *Registry) Register(ctx context.Context, p Plugin, config map[string]any) error {
	if p == nil {
		return fmt.Errorf("plugin is nil")
	}

	meta := p.Metadata()
	if err := meta.Validate(); err != nil {
		return err
	}

	deps := meta.DependencyNames()

	r.mu.Lock()

	_, exists := r.entries[meta.Name]
	if exists && !r.config.AllowDuplicates {
		r.mu.Unlock()
		return ErrDuplicatePlugin{Name: meta.Name}
	}

	var missing []string
	if r.config.ValidateDependencies {
		for _, dep := range deps {
			if _, ok := r.entries[dep]; !ok {
				missing = append(missing, dep)
			}
		}
	}

	enabled := r.config.AutoEnable
	if len(missing) > 0 {
		if !r.config.AutoEnable {
			r.mu.Unlock()
			return ErrMissingDependency{Plugin: meta.Name, Dependencies: missing}
		}
		enabled = false
	}

	var staleDeps []string
	if exists {
		// Replacing: drop the old entry's outgoing edges, keep incoming ones
		// since dependents still declare this name. The old dependencies need
		// their Dependents lists resynced below.
		staleDeps = r.graph.Dependencies(meta.Name)
		for _, dep := range staleDeps {
			r.graph.RemoveEdge(meta.Name, dep)
		}
		r.removeFromOrder(meta.Name)
	}

	entry := &RegisteredPlugin{
		Plugin:       p,
		Metadata:     meta,
		Enabled:      enabled,
		LoadTime:     time.Now(),
		Dependencies: deps,
		Config:       config,
	}
	r.entries[meta.Name] = entry
	r.order = append(r.order, meta.Name)

	r.graph.AddNode(meta.Name)
	for _, dep := range deps {
		r.graph.AddEdge(meta.Name, dep)
	}
	r.refreshDependents(append(append([]string{meta.Name}, deps...), staleDeps...))

	r.mu.Unlock()

	if len(missing) > 0 {
		r.logger.WithFields(map[string]any{"plugin": meta.Name, "missing": missing}).
			Warn("plugin registered disabled: dependencies missing")
	}

	r.emit(ctx, SignalRegistered, map[string]any{"plugin": meta.Name, "version": meta.Version})

	if enabled {
		if err := r.runInstall(ctx, entry); err != nil {
			r.mu.Lock()
			entry.Enabled = false
			r.mu.Unlock()
			r.logger.Error(err, "install handler failed; plugin disabled")
			return nil
		}
		r.emit(ctx, SignalLoaded, map[string]any{"plugin": meta.Name})
	}

	return nil
}

// Unregister removes a plugin. It fails with ErrHasDependents while any
// registered plugin, enabled or not, declares the target as a dependency. The
// uninstall handler is best-effort: its failure is logged and reported as a
// *CleanupError, but removal proceeds. The plugin's hook registrations and
// signal subscriptions are detached with it.
func (r *Registry) Unregister(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return ErrPluginNotFound{Name: name}
	}

	if dependents := r.registeredDependents(name); len(dependents) > 0 {
		r.mu.Unlock()
		return ErrHasDependents{Plugin: name, Dependents: dependents}
	}
	r.mu.Unlock()

	var cleanup error
	if u, ok := entry.Plugin.(Uninstaller); ok {
		if err := u.Uninstall(ctx, r.contextFor(entry)); err != nil {
			cleanup = &CleanupError{Plugin: name, Stage: "uninstall", Err: err}
			r.logger.Error(err, "uninstall handler failed; removal proceeds")
		}
	}

	r.mu.Lock()
	// The uninstall handler ran outside the lock; a dependent may have
	// registered in the meantime. Abort rather than strand it.
	if dependents := r.registeredDependents(name); len(dependents) > 0 {
		r.mu.Unlock()
		return ErrHasDependents{Plugin: name, Dependents: dependents}
	}
	deps := append([]string{}, entry.Dependencies...)
	delete(r.entries, name)
	r.removeFromOrder(name)
	r.graph.RemoveNode(name)
	r.refreshDependents(deps)
	r.mu.Unlock()

	r.hooks.RemoveOwner(name)
	r.signals.RemoveOwner(name)

	r.emit(ctx, SignalUnregistered, map[string]any{"plugin": name})
	return cleanup
}

// Enable activates a plugin. Enabling an already enabled plugin is a no-op
// success. Missing dependencies fail the enable; an activate handler failure
// aborts it and leaves state unchanged.
func (r *Registry) Enable(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return ErrPluginNotFound{Name: name}
	}
	if entry.Enabled {
		r.mu.Unlock()
		return nil
	}

	if r.config.ValidateDependencies {
		var missing []string
		for _, dep := range entry.Dependencies {
			if _, ok := r.entries[dep]; !ok {
				missing = append(missing, dep)
			}
		}
		if len(missing) > 0 {
			r.mu.Unlock()
			return ErrMissingDependency{Plugin: name, Dependencies: missing}
		}
	}
	r.mu.Unlock()

	if a, ok := entry.Plugin.(Activator); ok {
		if err := a.Activate(ctx, r.contextFor(entry)); err != nil {
			return &LifecycleError{Plugin: name, Stage: "activate", Err: err}
		}
	}

	r.mu.Lock()
	entry.Enabled = true
	r.mu.Unlock()

	r.emit(ctx, SignalEnabled, map[string]any{"plugin": name})
	return nil
}

// Disable deactivates a plugin. It fails with ErrEnabledDependents while any
// enabled plugin depends on the target. The deactivate handler is
// best-effort: its failure is logged and reported as a *CleanupError, but the
// plugin is disabled regardless.
func (r *Registry) Disable(ctx context.Context, name string) error {
	r.mu.Lock()
	entry, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return ErrPluginNotFound{Name: name}
	}
	if !entry.Enabled {
		r.mu.Unlock()
		return nil
	}

	var enabledDeps []string
	for _, dep := range r.registeredDependents(name) {
		if r.entries[dep].Enabled {
			enabledDeps = append(enabledDeps, dep)
		}
	}
	if len(enabledDeps) > 0 {
		r.mu.Unlock()
		return ErrEnabledDependents{Plugin: name, Dependents: enabledDeps}
	}
	r.mu.Unlock()

	var cleanup error
	if d, ok := entry.Plugin.(Deactivator); ok {
		if err := d.Deactivate(ctx, r.contextFor(entry)); err != nil {
			cleanup = &CleanupError{Plugin: name, Stage: "deactivate", Err: err}
			r.logger.Error(err, "deactivate handler failed; disable proceeds")
		}
	}

	r.mu.Lock()
	// Re-check in the same critical section as the flag flip: a dependent
	// enabled while the deactivate handler ran must still block the disable.
	enabledDeps = enabledDeps[:0]
	for _, dep := range r.registeredDependents(name) {
		if r.entries[dep].Enabled {
			enabledDeps = append(enabledDeps, dep)
		}
	}
	if len(enabledDeps) > 0 {
		r.mu.Unlock()
		return ErrEnabledDependents{Plugin: name, Dependents: enabledDeps}
	}
	entry.Enabled = false
	r.mu.Unlock()

	r.emit(ctx, SignalDisabled, map[string]any{"plugin": name})
	return cleanup
}

// DependencyOrder returns registered plugin names in dependency order: every
// plugin's dependencies appear before the plugin itself. A dependency cycle
// yields ErrCircularDependency.
func (r *Registry) DependencyOrder() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, err := r.graph.DependencyOrder()
	if err != nil {
		return nil, err
	}

	// The graph may hold nodes for missing dependencies; only registered
	// plugins belong in the activation sequence.
	result := make([]string, 0, len(r.entries))
	for _, name := range order {
		if _, ok := r.entries[name]; ok {
			result = append(result, name)
		}
	}
	return result, nil
}

// EnableAll enables every disabled plugin in dependency order. Individual
// enable failures are collected and joined; the sweep continues past them.
func (r *Registry) EnableAll(ctx context.Context) error {
	order, err := r.DependencyOrder()
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range order {
		if err := r.Enable(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Get returns a copy of the registry entry for name.
func (r *Registry) Get(name string) (RegisteredPlugin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[name]
	if !ok {
		return RegisteredPlugin{}, ErrPluginNotFound{Name: name}
	}
	return r.snapshotLocked(entry), nil
}

// List returns every registered plugin name in sorted order.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every registry entry sorted by name.
func (r *Registry) Snapshot() []RegisteredPlugin {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]RegisteredPlugin, 0, len(names))
	for _, name := range names {
		out = append(out, r.snapshotLocked(r.entries[name]))
	}
	return out
}

// enabledSnapshot returns enabled plugins in registration order. Provider
// callbacks are invoked after the lock is released so they may call back
// into the registry.
func (r *Registry) enabledSnapshot() []Plugin {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Plugin, 0, len(r.order))
	for _, name := range r.order {
		entry := r.entries[name]
		if entry == nil || !entry.Enabled {
			continue
		}
		out = append(out, entry.Plugin)
	}
	return out
}

// Commands folds every enabled plugin's command map into one table, keyed by
// dotted command path, colliding keys resolved last-registered wins.
func (r *Registry) Commands() map[string]CommandSpec {
	merged := make(map[string]CommandSpec)
	for _, p := range r.enabledSnapshot() {
		provider, ok := p.(CommandProvider)
		if !ok {
			continue
		}
		for key, spec := range provider.Commands() {
			merged[key] = spec
		}
	}
	return merged
}

// Extensions returns every enabled plugin's extensions grouped by target
// command path, in registration order.
func (r *Registry) Extensions() map[string][]Extension {
	merged := make(map[string][]Extension)
	for _, p := range r.enabledSnapshot() {
		provider, ok := p.(ExtensionProvider)
		if !ok {
			continue
		}
		for path, ext := range provider.Extensions() {
			merged[path] = append(merged[path], ext)
		}
	}
	return merged
}

// HandlerWrappers returns the wrap functions targeting a command path in
// registration order. Composing them in order leaves the first-registered
// wrapper innermost, closest to the original handler.
func (r *Registry) HandlerWrappers(path string) []func(CommandHandler) CommandHandler {
	var wrappers []func(CommandHandler) CommandHandler
	for _, ext := range r.Extensions()[path] {
		if ext.Wrap != nil {
			wrappers = append(wrappers, ext.Wrap)
		}
	}
	return wrappers
}

// Services folds every enabled plugin's exposed services into one map,
// colliding keys resolved last-registered wins.
func (r *Registry) Services() map[string]any {
	merged := make(map[string]any)
	for _, p := range r.enabledSnapshot() {
		provider, ok := p.(ServiceProvider)
		if !ok {
			continue
		}
		for key, svc := range provider.Services() {
			merged[key] = svc
		}
	}
	return merged
}

func (r *Registry) runInstall(ctx context.Context, entry *RegisteredPlugin) error {
	installer, ok := entry.Plugin.(Installer)
	if !ok {
		return nil
	}
	if err := installer.Install(ctx, r.contextFor(entry)); err != nil {
		return &LifecycleError{Plugin: entry.Metadata.Name, Stage: "install", Err: err}
	}
	return nil
}

func (r *Registry) contextFor(entry *RegisteredPlugin) *Context {
	return &Context{
		Hooks:    r.hooks,
		Signals:  r.signals,
		Plugins:  r,
		Metadata: entry.Metadata,
		Config:   entry.Config,
	}
}

// registeredDependents returns graph dependents filtered to registered
// plugins. Caller must hold r.mu.
func (r *Registry) registeredDependents(name string) []string {
	var out []string
	for _, dep := range r.graph.Dependents(name) {
		if _, ok := r.entries[dep]; ok {
			out = append(out, dep)
		}
	}
	return out
}

// refreshDependents resyncs the Dependents list of each named entry from the
// graph. Caller must hold r.mu.
func (r *Registry) refreshDependents(names []string) {
	for _, name := range names {
		if entry, ok := r.entries[name]; ok {
			entry.Dependents = r.registeredDependents(name)
		}
	}
}

func (r *Registry) removeFromOrder(name string) {
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

func (r *Registry) snapshotLocked(entry *RegisteredPlugin) RegisteredPlugin {
	copied := *entry
	copied.Dependencies = append([]string{}, entry.Dependencies...)
	copied.Dependents = append([]string{}, entry.Dependents...)
	return copied
}

// emit publishes a registry lifecycle signal. Subscriber failures never
// affect the lifecycle operation itself; the aggregate is logged.
func (r *Registry) emit(ctx context.Context, name string, payload map[string]any) {
	if err := r.signals.EmitFrom(ctx, "core", name, payload); err != nil {
		r.logger.Error(err, "lifecycle signal delivery reported failures")
	}
}
