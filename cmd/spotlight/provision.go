package main

import (
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/face"
)

func newProvisionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Download missing model weights and check the rest are present",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return face.Provision(cmd.Context(), a.cfg, a.logger)
		},
	}
}
