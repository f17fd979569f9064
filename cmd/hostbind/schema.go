// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/internal/xdg"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of API description files",
		Long: `Generates the JSON Schema that API description files are checked
against. Writes to standard output unless --output names a file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := apidesc.GenerateSchema()
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(schema, '\n'))
				return err
			}
			if err := xdg.EnsureDir(filepath.Dir(output)); err != nil {
				return err
			}
			if err := os.WriteFile(output, schema, 0o600); err != nil {
				return oops.In("cli").With("path", output).Wrapf(err, "write schema")
			}
			cmd.Printf("Generated %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to this file")

	return cmd
}
