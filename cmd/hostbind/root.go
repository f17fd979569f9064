// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/hostbind/hostbind/internal/apidesc"
	"github.com/hostbind/hostbind/internal/config"
	"github.com/hostbind/hostbind/internal/logging"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the hostbind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostbind",
		Short: "hostbind - typed object handles and calls against a simulated host",
		Long: `hostbind drives the object binding layer against a simulated host.
It runs sandboxed Lua scripts that construct and call host objects,
and inspects or validates the API descriptions the host is built from.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewClassesCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// loadConfig reads the configuration for cmd, honoring flags set on the
// command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

// newLogger builds the command logger from cfg. Records go to the command's
// error stream so that results on stdout stay machine readable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.Setup("hostbind", version, logging.Options{
		Format: cfg.Log.Format,
		Level:  cfg.SlogLevel(),
		Output: cmd.ErrOrStderr(),
	})
}

// loadAPI returns the API description named by cfg, or the built-in one.
func loadAPI(cfg *config.Config) (*apidesc.API, error) {
	if cfg.Engine.API == "" {
		return apidesc.Default(), nil
	}
	data, err := os.ReadFile(cfg.Engine.API)
	if err != nil {
		return nil, oops.In("cli").Code("API_INVALID").With("path", cfg.Engine.API).
			Wrapf(err, "read API description")
	}
	api, err := apidesc.Parse(data)
	if err != nil {
		return nil, oops.With("path", cfg.Engine.API).Wrap(err)
	}
	return api, nil
}
