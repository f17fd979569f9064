// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"fmt"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hostbind/hostbind/internal/apidesc"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	var host string

	cmd := &cobra.Command{
		Use:   "validate <api.yaml>",
		Short: "Validate an API description without loading a host",
		Long: `Checks an API description file against the schema, then checks its
classes, inheritance and method signatures. Exits with code 0 on success,
non-zero on failure.

With --host, also checks that the given host version satisfies the
description's compatibility constraint:
  hostbind validate api.yaml --host 4.3.0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0], host)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "host version to check compatibility against")

	return cmd
}

func runValidate(cmd *cobra.Command, path, host string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return oops.In("cli").With("path", path).Wrapf(err, "read API description")
	}
	if err := apidesc.ValidateSchema(data); err != nil {
		return fmt.Errorf("%s: %s", path, apidesc.FormatSchemaError(err))
	}
	api, err := apidesc.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if host != "" {
		if err := apidesc.CheckCompatible(host, api.Header.Compatibility); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	cmd.Printf("%s: %d classes, host %s\n", path, len(api.Classes), api.Header.HostVersion)
	return nil
}
