// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package command provides the root and sub-commands of the
// fleetkeepd scheduler binary, organized using the cobra library.
// The root command boots the scheduler runtime, which first runs the
// state-store migration engine to completion before accepting any
// scheduling work. The store sub-command exposes the same engine for
// operator-driven, out-of-band runs.
//
//	./fleetkeepd [-c /path/of/config.yaml]        # boot the scheduler
//	./fleetkeepd store migrate [-c ...]            # run migration only
//	./fleetkeepd store check [-c ...]              # report stored version
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fleetkeep/fleetkeep/pkg/core/log"
	"github.com/spf13/cobra"
)

var cfgPath string

// buildVersion is set by Execute from the value baked into the main
// package at link time.
var buildVersion string

var rootCmd = &cobra.Command{
	Use:   "fleetkeepd",
	Short: "The fleetkeep cluster scheduler daemon",
	Long: `fleetkeepd is the cluster scheduler daemon. Before it starts
serving any scheduling work, it runs its state-store migration engine
against the configured key-value store, bringing a storage layout left
behind by an older (or brand new) build up to the version built into
this binary. The engine's steps, backup/restore policy, and error
taxonomy are independent of the scheduler runtime proper: it can also
be invoked standalone through the "store" sub-command for operator
maintenance windows.`,
	RunE: bootScheduler,
}

func bootScheduler(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	o, err := buildOrchestrator(ctx)
	if err != nil {
		return fmt.Errorf("building migration engine: %w", err)
	}
	v, err := o.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrating state store: %w", err)
	}
	log.Info(ctx, "state store ready", slog.String("version", v.Dotted()))

	// The scheduling runtime proper (leader election, offer
	// reconciliation, the plugin dispatch loop, the REST surface) is
	// out of scope for the migration engine and is not implemented by
	// this exercise; fleetkeepd exits once the store is current.
	fmt.Println("fleetkeepd: state store migrated, scheduler runtime not started (out of scope)")
	return nil
}

// Execute runs the rootCmd, which in turn parses CLI arguments and
// flags and runs the most specific cobra command. build is the raw
// build-version string baked into the binary at link time.
func Execute(build string) {
	buildVersion = build
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(fixConfigPath)
	rootCmd.PersistentFlags().StringVarP(
		&cfgPath, "config", "c", "", "config file path",
	)
}

// fixConfigPath ensures that cfgPath is set respectively by either the
// CLI args, the CONFIG_FILE environment variable, or its default
// value.
func fixConfigPath() {
	if cfgPath != "" {
		return
	}
	var found bool
	if cfgPath, found = os.LookupEnv("CONFIG_FILE"); !found {
		cfgPath = "configs/sample-config.yaml"
	}
}
