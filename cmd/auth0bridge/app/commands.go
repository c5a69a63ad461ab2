// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package app provides the entry point for the auth0bridge command-line
// application.
package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:               "auth0bridge",
	DisableAutoGenTag: true,
	Short:             "auth0bridge is an Auth0 login bridge for web applications",
	Long: `auth0bridge bridges a web application's user accounts to an Auth0 tenant.
It runs the OAuth 2.0 authorization code flow against Auth0, reconciles the
authenticated identity against the local user store (matching, linking, or
provisioning accounts), and establishes a local session for the signed-in user.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the auth0bridge CLI.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Fatalf("Failed to bind debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
