// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/holomush/authcore/internal/config"
)

// NewConfigCmd creates the config subcommand.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err //nolint:wrapcheck // config errors carry codes
			}
			cmd.Println(string(schema))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a YAML configuration file",
		Long: `Validate FILE against the configuration schema, then layer the
environment on top and check that the result can start the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, args[0], nil)
		},
	})

	return cmd
}

func runConfigValidate(cmd *cobra.Command, path string, environ map[string]string) error {
	cfg, err := config.Load(config.LoadOptions{Path: path, Environ: environ})
	if err != nil {
		return err //nolint:wrapcheck // config errors carry codes
	}
	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck // config errors carry codes
	}
	cmd.Printf("%s is valid\n", path)
	return nil
}
