// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package repo specifies the capability set which the migration
// engine requires from an external key-value state store, and the
// narrow repository interfaces (App, Group, Task) it uses to read
// and write domain records on top of that store.
package repo

import (
	"context"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// KVS is the capability set a concrete adapter must provide. No
// ordering or atomicity across keys is assumed; every method may
// suspend on I/O and every error it returns should already be
// classified with cerr.StoreUnavailable (or a more specific kind for
// Create/Update) by the adapter.
type KVS interface {
	// Enumerate returns every id currently present in the store, in
	// no particular order.
	Enumerate(ctx context.Context) ([]string, error)

	// Load returns the entity stored at id. found is false if no
	// such id exists; in that case entity is the zero value.
	Load(ctx context.Context, id string) (entity model.Entity, found bool, err error)

	// Create stores bytes under a brand new id. It fails with
	// cerr.AlreadyExists if id is already present.
	Create(ctx context.Context, id string, bytes []byte) (model.Entity, error)

	// Update stores entity.Bytes at entity.ID, conditioned on
	// entity.Revision still matching the stored revision. It fails
	// with cerr.StaleRevision on a concurrent modification or
	// cerr.NotFound if the id does not exist.
	Update(ctx context.Context, entity model.Entity) (model.Entity, error)

	// Delete removes id if present, reporting whether it existed.
	Delete(ctx context.Context, id string) (existed bool, err error)
}

// Initializer is an optional capability a KVS adapter may advertise.
// The orchestrator's INIT phase calls Initialize only when the
// concrete adapter also implements this interface; otherwise INIT is
// a no-op for that backend.
type Initializer interface {
	// Initialize prepares the backing store for use (e.g. running a
	// schema migration or creating a table) and must be idempotent.
	Initialize(ctx context.Context) error
}
