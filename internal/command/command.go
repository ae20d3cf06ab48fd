// Package command folds the registry's merged plugin command table into a
// cobra command tree. It is a boundary adapter: all merge semantics
// (last-registered wins, onion wrapping) live in the registry; this package
// only materialises the result.
package command

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gantry-dev/gantry/internal/plugin"
)

// Attach builds a cobra command for every merged plugin command and adds it
// under root. Dotted command paths ("db.migrate") produce nested commands;
// missing intermediate segments become plain group commands. Extensions
// targeting a path contribute extra flags and wrap its handler with the
// original innermost.
func Attach(root *cobra.Command, reg *plugin.Registry) {
	commands := reg.Commands()

	// Sorted traversal guarantees parents are attached before children and
	// keeps the tree deterministic.
	paths := make([]string, 0, len(commands))
	for path := range commands {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		spec := commands[path]
		parent := ensureParent(root, path)
		parent.AddCommand(build(path, spec, reg))
	}
}

// ensureParent walks the dotted path's leading segments from root, creating
// group commands for segments that do not exist yet.
func ensureParent(root *cobra.Command, path string) *cobra.Command {
	segments := strings.Split(path, ".")
	current := root
	for _, segment := range segments[:len(segments)-1] {
		child := findChild(current, segment)
		if child == nil {
			child = &cobra.Command{Use: segment}
			current.AddCommand(child)
		}
		current = child
	}
	return current
}

func findChild(parent *cobra.Command, name string) *cobra.Command {
	for _, child := range parent.Commands() {
		if child.Name() == name {
			return child
		}
	}
	return nil
}

func build(path string, spec plugin.CommandSpec, reg *plugin.Registry) *cobra.Command {
	segments := strings.Split(path, ".")
	use := spec.Use
	if use == "" {
		use = segments[len(segments)-1]
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: spec.Short,
	}

	flags := append([]plugin.Flag{}, spec.Flags...)
	for _, ext := range reg.Extensions()[path] {
		flags = append(flags, ext.Flags...)
	}
	for _, flag := range flags {
		cmd.Flags().StringP(flag.Name, flag.Shorthand, flag.Default, flag.Usage)
	}

	handler := spec.Run
	if handler == nil {
		return cmd
	}
	for _, wrap := range reg.HandlerWrappers(path) {
		handler = wrap(handler)
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		values := make(map[string]string, len(flags))
		for _, flag := range flags {
			value, err := cmd.Flags().GetString(flag.Name)
			if err != nil {
				return err
			}
			values[flag.Name] = value
		}
		return handler(cmd.Context(), args, values)
	}

	return cmd
}
