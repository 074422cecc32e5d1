// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package migrationuc provides the state-store migration use case: an
// Orchestrator which drives a key-value state store from whatever
// schema version it was last left at up to the version built into the
// running binary, a Registry of ordered migration Steps it consults
// along the way, and a Backup Manager which snapshots (or restores)
// the live state around the migration window.
//
// The orchestrator never depends on a concrete store; it is built
// from a repo.KVS plus the narrow App/Group/Task repositories, all of
// which may be backed by Postgres, Redis, SQLite, or an in-memory fake
// for tests.
package migrationuc
