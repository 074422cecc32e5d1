// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import "github.com/spf13/cobra"

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "State-store migration engine actions",
	Long: `State-store migration engine actions can be chosen by
sub-commands. The "migrate" sub-command runs the full engine exactly
as the root command does at boot, outside of the scheduler runtime;
"check" reports the version currently persisted in the store without
modifying anything.`,
}

func init() {
	rootCmd.AddCommand(storeCmd)
}
