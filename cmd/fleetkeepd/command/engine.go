// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"

	"github.com/fleetkeep/fleetkeep/pkg/adapter/config"
	"github.com/fleetkeep/fleetkeep/pkg/adapter/repo/kvsrepo"
	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	"github.com/fleetkeep/fleetkeep/pkg/core/usecase/migrationuc"
)

// buildOrchestrator reads and validates the configuration file at
// cfgPath, connects the selected KVS backend, wires the repositories
// and default step registry over it, and returns an Orchestrator
// ready to run against the binary's buildVersion. Migrate performs
// its own INIT-phase Initialize call, but "store check" may run
// against a backend that was never migrated, so Initialize is also
// called here up front.
func buildOrchestrator(ctx context.Context) (*migrationuc.Orchestrator, error) {
	current, err := model.CurrentFromBuild(buildVersion)
	if err != nil {
		return nil, cerr.New(cerr.BadBuildVersion, err)
	}

	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}

	kvs, err := c.NewKVS(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to kvs backend: %w", err)
	}
	if init, ok := kvs.(repo.Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("initializing kvs backend: %w", err)
		}
	}

	apps := kvsrepo.NewApp(kvs)
	groups := kvsrepo.NewGroup(kvs)
	tasks := kvsrepo.NewTask(kvs)
	registry := migrationuc.NewDefaultRegistry(kvs, apps, groups, tasks)

	return migrationuc.NewOrchestrator(kvs, registry, c.Settings(), current), nil
}
