// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package repo

import (
	"context"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// Task repository manages scheduled-task records. Its surface is
// deliberately closer to the raw entity store than App or Group: the
// 0.13 rekey step must enumerate keys under both their legacy and
// post-rekey shapes and decode raw bytes itself (see
// model.DecodeLegacyTask), so this interface exposes raw key
// enumeration and byte-level access rather than hiding it behind a
// decoded-record API.
type Task interface {
	// Enumerate returns every key currently managed by the task
	// store, in no particular order, including both legacy and
	// post-rekey shapes.
	Enumerate(ctx context.Context) ([]string, error)

	// LoadRaw returns the undecoded bytes stored at key. found is
	// false if key does not exist.
	LoadRaw(ctx context.Context, key string) (bytes []byte, found bool, err error)

	// Store persists t under its post-0.13 key (model.NewTaskKey),
	// creating or overwriting it.
	Store(ctx context.Context, t model.Task) error

	// Expunge removes key, reporting whether it existed.
	Expunge(ctx context.Context, key string) (existed bool, err error)
}
