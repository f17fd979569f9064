// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hostbind/hostbind/internal/apidesc"
)

// classesConfig holds configuration for the classes command.
type classesConfig struct {
	methods    bool
	jsonOutput bool
}

// classInfo is the JSON form of one listed class.
type classInfo struct {
	Name       string   `json:"name"`
	Ancestors  []string `json:"ancestors,omitempty"`
	RefCounted bool     `json:"ref_counted"`
	Abstract   bool     `json:"abstract,omitempty"`
	Methods    []string `json:"methods,omitempty"`
}

// NewClassesCmd creates the classes subcommand.
func NewClassesCmd() *cobra.Command {
	cfg := &classesConfig{}

	cmd := &cobra.Command{
		Use:   "classes [class...]",
		Short: "List the classes of the API description",
		Long: `Lists the classes of the configured API description with their
inheritance chain and ownership category. Name classes to list only those.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses(cmd, args, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.methods, "methods", false, "include method signatures")
	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runClasses(cmd *cobra.Command, names []string, cfg *classesConfig) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	api, err := loadAPI(conf)
	if err != nil {
		return err
	}

	infos := make([]classInfo, 0, len(api.Classes))
	if len(names) == 0 {
		for i := range api.Classes {
			infos = append(infos, describeClass(api, &api.Classes[i], cfg.methods))
		}
	}
	for _, name := range names {
		c, ok := api.Class(name)
		if !ok {
			return fmt.Errorf("unknown class %q", name)
		}
		infos = append(infos, describeClass(api, c, cfg.methods))
	}

	if cfg.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	return printClasses(cmd.OutOrStdout(), infos)
}

func describeClass(api *apidesc.API, c *apidesc.Class, withMethods bool) classInfo {
	info := classInfo{
		Name:       c.Name,
		Ancestors:  api.Ancestors(c.Name)[1:],
		RefCounted: c.RefCounted,
		Abstract:   c.Abstract,
	}
	if withMethods {
		for _, sig := range c.Signatures() {
			info.Methods = append(info.Methods, sig.String())
		}
	}
	return info
}

func printClasses(w io.Writer, infos []classInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CLASS\tINHERITS\tMEMORY\tFLAGS")
	for _, c := range infos {
		memory := "manual"
		if c.RefCounted {
			memory = "ref-counted"
		}
		flags := "-"
		if c.Abstract {
			flags = "abstract"
		}
		inherits := "-"
		if len(c.Ancestors) > 0 {
			inherits = strings.Join(c.Ancestors, " < ")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, inherits, memory, flags)
		for _, m := range c.Methods {
			_, _ = fmt.Fprintf(tw, "  %s\t\t\t\n", m)
		}
	}
	return tw.Flush()
}
