// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the auth0bridge server.
package main

import (
	"os"

	"github.com/albrightlabs/auth0bridge/cmd/auth0bridge/app"
	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
