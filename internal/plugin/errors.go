package plugin

import (
	"fmt"
	"strings"
)

// ErrPluginNotFound is returned when the requested plugin is not registered.
type ErrPluginNotFound struct {
	Name string
}

func (e ErrPluginNotFound) Error() string {
	return fmt.Sprintf("plugin '%s' not found in registry\nHint: ensure the plugin is registered before usage", e.Name)
}

// ErrDuplicatePlugin is returned when a name is already registered and
// duplicates are disallowed. The original entry is left untouched.
type ErrDuplicatePlugin struct {
	Name string
}

func (e ErrDuplicatePlugin) Error() string {
	return fmt.Sprintf("plugin '%s' already registered\nHint: unregister the existing plugin or enable AllowDuplicates", e.Name)
}

// ErrMissingDependency is returned when a declared dependency has not been
// registered.
type ErrMissingDependency struct {
	Plugin       string
	Dependencies []string
}

func (e ErrMissingDependency) Error() string {
	return fmt.Sprintf(
		"plugin '%s' declares unregistered dependencies: %s\nHint: register the dependencies first",
		e.Plugin,
		strings.Join(e.Dependencies, ", "),
	)
}

// ErrCircularDependency is returned when the dependency order traversal
// revisits a plugin already on the active path.
type ErrCircularDependency struct {
	Cycle []string
}

func (e ErrCircularDependency) Error() string {
	if len(e.Cycle) == 0 {
		return "circular dependency detected\nHint: review plugin dependencies to remove cycles"
	}

	sequence := append(append([]string{}, e.Cycle...), e.Cycle[0])
	return fmt.Sprintf(
		"circular dependency detected: %s\nHint: break the cycle by removing or refactoring one of the dependencies",
		strings.Join(sequence, " -> "),
	)
}

// ErrEnabledDependents blocks a disable while enabled plugins still depend on
// the target.
type ErrEnabledDependents struct {
	Plugin     string
	Dependents []string
}

func (e ErrEnabledDependents) Error() string {
	return fmt.Sprintf(
		"cannot disable plugin '%s': still required by enabled plugins %s\nHint: disable the dependents first",
		e.Plugin,
		strings.Join(e.Dependents, ", "),
	)
}

// ErrHasDependents blocks an unregister while any plugin, enabled or not,
// still declares the target as a dependency.
type ErrHasDependents struct {
	Plugin     string
	Dependents []string
}

func (e ErrHasDependents) Error() string {
	return fmt.Sprintf(
		"cannot unregister plugin '%s': still declared as a dependency by %s\nHint: unregister the dependents first",
		e.Plugin,
		strings.Join(e.Dependents, ", "),
	)
}

// LifecycleError wraps a fatal lifecycle handler failure. The transition that
// triggered the handler was aborted.
type LifecycleError struct {
	Plugin string
	Stage  string
	Err    error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("plugin '%s' %s handler failed: %v", e.Plugin, e.Stage, e.Err)
}

// Unwrap exposes the handler's underlying error.
func (e *LifecycleError) Unwrap() error {
	return e.Err
}

// CleanupError wraps a best-effort lifecycle handler failure from a
// deactivate or uninstall hook. The transition still happened; callers use
// errors.As to distinguish "cleanup partially failed" from "operation
// aborted".
type CleanupError struct {
	Plugin string
	Stage  string
	Err    error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("plugin '%s' %s cleanup failed (transition completed): %v", e.Plugin, e.Stage, e.Err)
}

// Unwrap exposes the handler's underlying error.
func (e *CleanupError) Unwrap() error {
	return e.Err
}
