// Copyright (C) 2025 AtlasFit Labs (engineering@atlasfit.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command coachctl is the terminal client for the coaching engine.
//
// Usage:
//
//	# Interactive coaching session against a running coachd
//	coachctl chat --user u1 --equipment Dumbbell,Band --skill beginner
//
//	# Seed sample workout history into a coachd Badger directory
//	coachctl seed --dir /var/lib/coachd --user u1 --weeks 8
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// serverURL holds the --server flag shared by all subcommands.
var serverURL string

var rootCmd = &cobra.Command{
	Use:   "coachctl",
	Short: "Terminal client for the coaching engine",
	Long: "coachctl talks to a running coachd instance. Use 'chat' for an " +
		"interactive coaching session and 'seed' to load sample workout history.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(),
		"Base URL of the coachd server")
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(seedCmd)
}

// defaultServerURL prefers the COACHD_URL environment variable so shell
// sessions do not have to repeat --server.
func defaultServerURL() string {
	if v := os.Getenv("COACHD_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
