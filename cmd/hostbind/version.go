// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/hostbind/hostbind/internal/apidesc"
)

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Prints the build version and the host API version of the built-in description.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			api := apidesc.Default()
			cmd.Printf("hostbind %s (commit: %s, built: %s)\n", version, commit, date)
			cmd.Printf("host API %s %s", api.Header.Name, api.Header.HostVersion)
			if c := api.Header.Compatibility; c != "" {
				cmd.Printf(" (compatible: %s)", c)
			}
			cmd.Println()
			return nil
		},
	}
}
