// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"github.com/fleetkeep/fleetkeep/pkg/adapter/kvs/memkvs"
	"github.com/fleetkeep/fleetkeep/pkg/adapter/repo/kvsrepo"
)

// testSettings is a fixed Settings implementation used throughout
// this package's tests.
type testSettings struct {
	statePrefix, backupPrefix string
}

func (s testSettings) StatePrefix() string  { return s.statePrefix }
func (s testSettings) BackupPrefix() string { return s.backupPrefix }

func defaultTestSettings() testSettings {
	return testSettings{statePrefix: "/marathon/state", backupPrefix: "/marathon/backup"}
}

// testDeps bundles a fresh in-memory store and its entity repositories
// for a single test.
type testDeps struct {
	kvs    *memkvs.KVS
	apps   *kvsrepo.App
	groups *kvsrepo.Group
	tasks  *kvsrepo.Task
}

func newTestDeps() testDeps {
	kvs := memkvs.New()
	return testDeps{
		kvs:    kvs,
		apps:   kvsrepo.NewApp(kvs),
		groups: kvsrepo.NewGroup(kvs),
		tasks:  kvsrepo.NewTask(kvs),
	}
}
