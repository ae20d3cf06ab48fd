package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gantry-dev/gantry/internal/plugin"
)

var (
	enabledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type pluginsOptions struct {
	jsonOutput bool
}

func newPluginsCmd(registry *plugin.Registry) *cobra.Command {
	opts := &pluginsOptions{}

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List registered plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugins(cmd, registry, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

type pluginListing struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Description  string    `json:"description,omitempty"`
	Enabled      bool      `json:"enabled"`
	LoadTime     time.Time `json:"load_time"`
	Dependencies []string  `json:"dependencies,omitempty"`
	Dependents   []string  `json:"dependents,omitempty"`
}

func runPlugins(cmd *cobra.Command, registry *plugin.Registry, opts *pluginsOptions) error {
	listings := make([]pluginListing, 0)
	for _, entry := range registry.Snapshot() {
		listings = append(listings, pluginListing{
			Name:         entry.Metadata.Name,
			Version:      entry.Metadata.Version,
			Description:  entry.Metadata.Description,
			Enabled:      entry.Enabled,
			LoadTime:     entry.LoadTime,
			Dependencies: entry.Dependencies,
			Dependents:   entry.Dependents,
		})
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS\tDEPENDENCIES")
	for _, listing := range listings {
		status := enabledStyle.Render("enabled")
		if !listing.Enabled {
			status = disabledStyle.Render("disabled")
		}
		deps := "-"
		if len(listing.Dependencies) > 0 {
			deps = strings.Join(listing.Dependencies, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", listing.Name, listing.Version, status, deps)
	}
	return w.Flush()
}
