// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// App repository manages the versioned configuration history of
// application definitions, per spec.md §6.
type App interface {
	// ListIDs returns every application id currently known to the
	// repository, in no particular order.
	ListIDs(ctx context.Context) ([]string, error)

	// ListVersions returns the versions stored for id, in no
	// particular order.
	ListVersions(ctx context.Context, id string) ([]model.AppVersionID, error)

	// Load returns the stored record for id at version. found is
	// false if no such record exists.
	Load(ctx context.Context, id string, version model.AppVersionID) (rec model.AppVersionRecord, found bool, err error)

	// Store persists rec, creating or overwriting the record at its
	// (AppID, Version) key.
	Store(ctx context.Context, rec model.AppVersionRecord) error

	// Expunge removes every stored version of id.
	Expunge(ctx context.Context, id string) error
}
