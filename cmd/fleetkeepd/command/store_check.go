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

var storeCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report the version currently persisted in the state store",
	Long: `Report the version currently persisted in the state store,
or the build's own version if the store has never been migrated.
Read-only: safe to run at any time, including before a "migrate".`,
	RunE: storeCheck,
	Args: cobra.NoArgs,
}

func storeCheck(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	o, err := buildOrchestrator(ctx)
	if err != nil {
		return fmt.Errorf("building migration engine: %w", err)
	}
	v, err := o.CurrentStorageVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading storage version: %w", err)
	}
	fmt.Printf("current storage version: %s\n", v.Dotted())
	return nil
}

func init() {
	storeCmd.AddCommand(storeCheckCmd)
}
