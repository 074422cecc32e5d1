// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/log"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
)

const (
	// versionKey holds the serialized SchemaVersion record.
	versionKey = "internal:storage:version"

	// inProgressKey's mere existence signals a migration is under
	// way (or crashed mid-flight).
	inProgressKey = "internal:storage:migrationInProgress"
)

// Orchestrator drives the state store from whatever version it was
// last left at up to current, the version built into the running
// binary, following spec.md §4.6's state machine:
// IDLE -> INIT -> GUARD -> BACKUP -> APPLY -> COMMIT -> RELEASE -> DONE.
type Orchestrator struct {
	kvs      repo.KVS
	registry *Registry
	backup   *BackupManager
	current  model.SchemaVersion
}

// NewOrchestrator returns an Orchestrator which migrates kvs (using
// the steps registered in registry and the backup policy from
// settings) towards current. ValidateSettings should already have
// been called on settings before constructing this.
func NewOrchestrator(
	kvs repo.KVS, registry *Registry, settings Settings, current model.SchemaVersion,
) *Orchestrator {
	return &Orchestrator{
		kvs:      kvs,
		registry: registry,
		backup:   NewBackupManager(kvs, settings),
		current:  current,
	}
}

// CurrentStorageVersion returns the persisted version, or the
// orchestrator's built-in current version if none is stored yet. It
// is read-only and safe to call before Migrate.
func (o *Orchestrator) CurrentStorageVersion(ctx context.Context) (model.SchemaVersion, error) {
	v, err := o.loadStoredVersion(ctx)
	if err != nil {
		return model.SchemaVersion{}, err
	}
	if v.IsEmpty() {
		return o.current, nil
	}
	return v, nil
}

// Migrate runs the full state machine once and returns the committed
// version on success. On any failure after the GUARD phase, the
// in-progress key is intentionally left in place so a subsequent run
// detects the aborted migration and enters restore mode.
func (o *Orchestrator) Migrate(ctx context.Context) (model.SchemaVersion, error) {
	// INIT
	if init, ok := o.kvs.(repo.Initializer); ok {
		if err := init.Initialize(ctx); err != nil {
			return model.SchemaVersion{}, err
		}
	}

	// GUARD
	if err := o.guard(ctx); err != nil {
		return model.SchemaVersion{}, err
	}

	from, err := o.loadStoredVersion(ctx)
	if err != nil {
		return model.SchemaVersion{}, err
	}

	// BACKUP
	if err := o.backup.Run(ctx, from); err != nil {
		return model.SchemaVersion{}, err
	}

	// APPLY: a fresh store with nothing persisted yet migrates from
	// o.current, not from the empty sentinel (which would make every
	// registered step "applicable" and trip the legacy-refusal step).
	applyFrom := from
	if applyFrom.IsEmpty() {
		applyFrom = o.current
	}
	if _, err := o.ApplyMigrationSteps(ctx, applyFrom); err != nil {
		return model.SchemaVersion{}, err
	}

	// COMMIT
	if err := o.commit(ctx, o.current); err != nil {
		return model.SchemaVersion{}, err
	}

	// RELEASE
	o.release(ctx)

	return o.current, nil
}

// ApplyMigrationSteps executes every applicable registered step in
// ascending target-version order, starting from from, and returns the
// ordered list of target versions actually applied. It is exposed
// directly (beyond Migrate) so callers/tests can exercise the APPLY
// phase in isolation, per spec.md §6.
func (o *Orchestrator) ApplyMigrationSteps(
	ctx context.Context, from model.SchemaVersion,
) ([]model.SchemaVersion, error) {
	if err := checkMinSupported(from); err != nil {
		return nil, err
	}
	steps := o.registry.applicableSteps(from)
	applied := make([]model.SchemaVersion, 0, len(steps))
	for _, s := range steps {
		log.Info(ctx, "applying migration step",
			slog.String("targetVersion", s.targetVersion.Dotted()))
		if err := s.fn(ctx); err != nil {
			return applied, cerr.New(cerr.MigrationFailed, fmt.Errorf(
				"step to %s: %w", s.targetVersion, err,
			))
		}
		applied = append(applied, s.targetVersion)
	}
	return applied, nil
}

// guard implements the GUARD phase: fail loudly if a previous run's
// in-progress marker is still set, otherwise claim it.
func (o *Orchestrator) guard(ctx context.Context) error {
	_, found, err := o.kvs.Load(ctx, inProgressKey)
	if err != nil {
		return err
	}
	if found {
		return cerr.New(cerr.MigrationAlreadyInProgress, fmt.Errorf(
			"a previous migration attempt is still marked in-progress;"+
				" remove the %q key manually once it is safe to retry",
			inProgressKey,
		))
	}
	_, err = o.kvs.Create(ctx, inProgressKey, nil)
	return err
}

// commit writes the new version record at versionKey, creating it if
// absent or updating it if a prior version was stored.
func (o *Orchestrator) commit(ctx context.Context, v model.SchemaVersion) error {
	existing, found, err := o.kvs.Load(ctx, versionKey)
	if err != nil {
		return err
	}
	if !found {
		_, err = o.kvs.Create(ctx, versionKey, v.Serialize())
		return err
	}
	existing.Bytes = v.Serialize()
	_, err = o.kvs.Update(ctx, existing)
	return err
}

// release deletes the in-progress marker, logging (rather than
// failing) if it was already gone.
func (o *Orchestrator) release(ctx context.Context) {
	existed, err := o.kvs.Delete(ctx, inProgressKey)
	if err != nil {
		log.Warn(ctx, "failed to release in-progress marker", log.Err("error", err))
		return
	}
	if !existed {
		log.Warn(ctx, "in-progress marker was already gone at release time")
	}
}

// loadStoredVersion reads and parses versionKey, returning the empty
// sentinel version if nothing has been stored yet.
func (o *Orchestrator) loadStoredVersion(ctx context.Context) (model.SchemaVersion, error) {
	e, found, err := o.kvs.Load(ctx, versionKey)
	if err != nil {
		return model.SchemaVersion{}, err
	}
	if !found {
		return model.SchemaVersion{}, nil
	}
	v, err := model.ParseSchemaVersion(e.Bytes)
	if err != nil {
		return model.SchemaVersion{}, cerr.New(cerr.CorruptVersion, err)
	}
	return v, nil
}
