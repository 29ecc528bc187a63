// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/holomush/authcore/internal/config"
	"github.com/holomush/authcore/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the authcore CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authcore",
		Short: "authcore - account registration and session issuance",
		Long: `authcore registers accounts, authenticates them by password or
one-time code, allocates unique usernames, and issues bearer tokens.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: $XDG_CONFIG_HOME/authcore/config.yaml)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}

// loadConfig resolves configuration for cmd from the --config file (or
// $XDG_CONFIG_HOME/authcore/config.yaml when present), the environment and
// any override flags cmd defines.
func loadConfig(cmd *cobra.Command, environ map[string]string) (config.Config, error) {
	var flags *pflag.FlagSet
	if cmd != nil {
		flags = cmd.Flags()
	}

	path := configFile
	if path == "" {
		var getenv xdg.Getenv
		if environ != nil {
			getenv = func(key string) string { return environ[key] }
		}
		path = xdg.ConfigFile(getenv)
	}

	return config.Load(config.LoadOptions{
		Path:    path,
		Flags:   flags,
		Environ: environ,
	})
}
