// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/hostbind/hostbind/internal/enginesim"
	"github.com/hostbind/hostbind/internal/observability"
	"github.com/hostbind/hostbind/internal/script"
	"github.com/hostbind/hostbind/pkg/errutil"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

// runConfig holds configuration for the run command.
type runConfig struct {
	name   string
	dump   bool
	linger time.Duration
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cfg := &runConfig{}

	cmd := &cobra.Command{
		Use:   "run <script.lua>",
		Short: "Run a Lua script against a simulated host",
		Long: `Loads a simulated host from the configured API description and runs a
sandboxed Lua script against it. The values the script returns are
printed one per line, as text or, with --dump, as JSON.

Objects still alive when the host shuts down are reported as leaks.
Use "-" to read the script from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.name, "name", "", "script name used for capability grants (default: file name)")
	cmd.Flags().BoolVar(&cfg.dump, "dump", false, "print results as JSON")
	cmd.Flags().DurationVar(&cfg.linger, "linger", 0, "keep the metrics endpoint up this long after the run")

	return cmd
}

func runScript(cmd *cobra.Command, path string, cfg *runConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, conf)
	ctx := cmd.Context()

	code, err := readScript(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}
	name := cfg.name
	if name == "" {
		name = scriptName(path)
	}

	api, err := loadAPI(conf)
	if err != nil {
		errutil.LogErrorContext(ctx, logger, "cannot load API description", err)
		return err
	}
	engine, err := enginesim.New(api, enginesim.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := sys.Load(engine.Interface()); err != nil {
		return err
	}
	defer sys.Unload()

	if conf.Metrics.Addr != "" {
		srv := observability.NewServer(conf.Metrics.Addr,
			observability.WithLogger(logger),
			observability.WithHostStatus(func() any { return engine.Stats() }),
		)
		if _, err := srv.Start(); err != nil {
			return err
		}
		logger.Info("metrics endpoint started", "addr", srv.Addr())
		defer func() {
			if cfg.linger > 0 {
				select {
				case <-time.After(cfg.linger):
				case <-ctx.Done():
				}
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				logger.Warn("stopping metrics endpoint", "error", err)
			}
		}()
	}

	enforcer, err := script.NewEnforcer(conf.Script.Capabilities...)
	if err != nil {
		return err
	}
	host := script.NewHost(
		script.WithEnforcer(enforcer),
		script.WithTimeout(conf.Script.Timeout),
		script.WithLogger(logger),
	)
	defer func() {
		if err := host.Close(ctx); err != nil {
			logger.Warn("closing script host", "error", err)
		}
		if leaked := engine.Shutdown(); leaked > 0 {
			logger.Warn("objects left alive at shutdown", "count", leaked)
		}
	}()

	res, err := host.Run(ctx, name, code)
	if err != nil {
		errutil.LogErrorContext(ctx, logger, "script failed", err)
		return err
	}
	defer res.Release()

	return printValues(cmd.OutOrStdout(), res.Values, cfg.dump)
}

func readScript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", oops.In("cli").Code("SCRIPT_FAILED").With("path", path).Wrapf(err, "read script")
	}
	return string(data), nil
}

// scriptName derives the capability name of a script from its path.
func scriptName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printValues(w io.Writer, values []variant.Variant, asJSON bool) error {
	for _, v := range values {
		if !asJSON {
			if _, err := fmt.Fprintln(w, v.String()); err != nil {
				return err
			}
			continue
		}
		data, err := protojson.Marshal(v.ToProto())
		if err != nil {
			return oops.In("cli").With("type", v.Type().String()).Wrapf(err, "encode result")
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
	}
	return nil
}
