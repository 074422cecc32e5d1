// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"fmt"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// StepFn performs one migration step's work against the deps already
// bound into it (or closed over at registration time). It takes no
// arguments and returns a typed failure on error.
type StepFn func(ctx context.Context) error

// entry is one (targetVersion, stepFn) pair of the Registry.
type entry struct {
	targetVersion model.SchemaVersion
	fn            StepFn
}

// minSupportedStorageVersion is the oldest stored version the engine
// will migrate from. Anything older fails fast with UnsupportedVersion
// rather than attempting (and likely mis-applying) the step list.
var minSupportedStorageVersion = model.SchemaVersion{0, 3, 0}

// Registry is a statically-declared, append-only, strictly ascending
// ordered collection of migration steps. Entries must never be
// reordered or modified once registered; new versions are always
// appended.
type Registry struct {
	entries []entry
}

// NewRegistry returns an empty Registry. Use Register to populate it,
// in strictly ascending targetVersion order.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a (targetVersion, fn) entry. It panics if
// targetVersion is not strictly greater than the last registered
// entry's version, since that would violate the registry's ordering
// contract at program-wiring time rather than at migration time.
func (r *Registry) Register(targetVersion model.SchemaVersion, fn StepFn) {
	if len(r.entries) > 0 {
		last := r.entries[len(r.entries)-1].targetVersion
		if targetVersion.Compare(last) <= 0 {
			panic(fmt.Sprintf(
				"migrationuc: registry entries must be strictly"+
					" ascending, got %s after %s",
				targetVersion, last,
			))
		}
	}
	r.entries = append(r.entries, entry{targetVersion: targetVersion, fn: fn})
}

// applicableSteps returns all entries whose targetVersion is strictly
// greater than from, sorted ascending by targetVersion (which is
// already their registration order, given the Register invariant).
func (r *Registry) applicableSteps(from model.SchemaVersion) []entry {
	steps := make([]entry, 0, len(r.entries))
	for _, e := range r.entries {
		if e.targetVersion.Compare(from) > 0 {
			steps = append(steps, e)
		}
	}
	return steps
}

// checkMinSupported enforces spec.md §4.4's minimum supported version
// gate: a non-empty from older than minSupportedStorageVersion fails
// immediately. The empty sentinel (first-ever start) bypasses the
// check, since there is nothing to migrate from.
func checkMinSupported(from model.SchemaVersion) error {
	if from.IsEmpty() {
		return nil
	}
	if from.Compare(minSupportedStorageVersion) < 0 {
		return cerr.AsUnsupportedVersion(minSupportedStorageVersion, from)
	}
	return nil
}
