package main

import (
	"github.com/spf13/cobra"

	"github.com/gantry-dev/gantry/internal/plugin"
)

func newRootCmd(registry *plugin.Registry) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gantry",
		Short:         "Gantry hosts and orchestrates command-line plugins",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newPluginsCmd(registry))

	return cmd
}
