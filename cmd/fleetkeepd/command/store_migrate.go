// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the state-store migration engine to completion",
	Long: `Run the state-store migration engine to completion against
the store configured in the config file, without starting the
scheduler runtime. This is the same engine run the root command
performs at boot; it exists standalone for operator-driven maintenance
windows and for CI smoke tests against a throwaway store.

On success, the committed schema version is printed. On any failure
past the guard phase, the in-progress marker is intentionally left set
in the store so a subsequent run can detect the aborted attempt and
enter restore mode.`,
	RunE: storeMigrate,
	Args: cobra.NoArgs,
}

func storeMigrate(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	o, err := buildOrchestrator(ctx)
	if err != nil {
		return fmt.Errorf("building migration engine: %w", err)
	}
	v, err := o.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrating state store: %w", err)
	}
	fmt.Printf("migrated state store to %s\n", v.Dotted())
	return nil
}

func init() {
	storeCmd.AddCommand(storeMigrateCmd)
}
