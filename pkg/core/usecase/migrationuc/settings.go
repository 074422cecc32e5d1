// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"fmt"
	"strings"
)

// Settings represents the configuration inputs the migration engine
// requires, per spec.md §6: the live state key prefix and the backup
// key prefix, which must be disjoint and neither a prefix of the
// other.
type Settings interface {
	// StatePrefix returns the prefix under which live state keys are
	// stored, e.g. "/marathon/state".
	StatePrefix() string

	// BackupPrefix returns the prefix under which backup snapshots
	// are stored, e.g. "/marathon/backup". The actual per-version
	// backup path additionally suffixes this with "_<major.minor.patch>".
	BackupPrefix() string
}

// ValidateSettings checks the disjointness invariant spec.md §6
// requires of s: StatePrefix and BackupPrefix must differ, and
// neither may be a prefix of the other.
func ValidateSettings(s Settings) error {
	sp, bp := s.StatePrefix(), s.BackupPrefix()
	if sp == "" {
		return fmt.Errorf("statePrefix must not be empty")
	}
	if bp == "" {
		return fmt.Errorf("backupPrefix must not be empty")
	}
	if sp == bp || strings.HasPrefix(sp, bp) || strings.HasPrefix(bp, sp) {
		return fmt.Errorf(
			"statePrefix %q and backupPrefix %q must be disjoint and"+
				" neither may be a prefix of the other", sp, bp,
		)
	}
	return nil
}
