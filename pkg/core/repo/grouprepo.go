// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// Group repository manages the single root hierarchical container of
// application definitions, per spec.md §6.
type Group interface {
	// LoadRoot returns the root group. found is false if it has
	// never been stored (a fresh deployment).
	LoadRoot(ctx context.Context) (g model.Group, found bool, err error)

	// Store persists g under name (model.RootGroupID for the root
	// group), creating or overwriting it.
	Store(ctx context.Context, name string, g model.Group) error
}
