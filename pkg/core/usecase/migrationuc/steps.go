// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
)

// v070, v0110 and v0130 are the target versions of the reference step
// set defined by spec.md §4.5.
var (
	v070  = model.SchemaVersion{0, 7, 0}
	v0110 = model.SchemaVersion{0, 11, 0}
	v0130 = model.SchemaVersion{0, 13, 0}
)

// NewDefaultRegistry builds the reference Registry from spec.md §4.5:
// an unconditional refusal targeting 0.7.0 (applicable only to stored
// versions below 0.7.0), the 0.11
// AddVersionInfo backfill, and the 0.13 RekeyTasks+RenameFrameworkId
// step. Hosts which need additional steps may call Register on the
// returned Registry to append further entries.
func NewDefaultRegistry(kvs repo.KVS, apps repo.App, groups repo.Group, tasks repo.Task) *Registry {
	r := NewRegistry()
	r.Register(v070, stepRefuseLegacy)
	r.Register(v0110, stepAddVersionInfo(apps, groups))
	r.Register(v0130, stepRekeyTasksAndRenameFrameworkID(kvs, tasks))
	return r
}

// stepRefuseLegacy unconditionally fails: registered at 0.7.0, it is
// applicable whenever the stored version is below 0.7.0 (and at or
// above minSupportedStorageVersion), so such a migration surfaces a
// clean, typed error instead of silently running the later steps
// against data shapes they do not understand. Stored versions from
// 0.7.0 upwards skip it.
func stepRefuseLegacy(ctx context.Context) error {
	return cerr.New(cerr.UnsupportedLegacy, errors.New(
		"migration from 0.7.x not supported anymore",
	))
}

// stepAddVersionInfo returns the 0.11.0 "AddVersionInfo" step, which
// backfills per-application version history as described in
// spec.md §4.5.
func stepAddVersionInfo(apps repo.App, groups repo.Group) StepFn {
	return func(ctx context.Context) error {
		group, found, err := groups.LoadRoot(ctx)
		if err != nil {
			return fmt.Errorf("loading root group: %w", err)
		}
		if !found {
			group = model.Group{ID: model.RootGroupID}
		}

		allIDs, err := apps.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("listing application ids: %w", err)
		}
		ids := unionIDs(allIDs, group.AppIDs())

		for _, id := range ids {
			if !group.HasApp(id) {
				if err := apps.Expunge(ctx, id); err != nil {
					return fmt.Errorf("expunging orphan app %q: %w", id, err)
				}
				continue
			}
			if err := backfillAppVersionInfo(ctx, apps, group, id); err != nil {
				return fmt.Errorf("backfilling app %q: %w", id, err)
			}
		}

		return groups.Store(ctx, model.RootGroupID, group)
	}
}

// backfillAppVersionInfo folds the "last app" state across id's
// stored versions (in ascending order, plus the group's live version)
// and rewrites each record's VersionInfo per the isUpgrade predicate.
func backfillAppVersionInfo(ctx context.Context, apps repo.App, group model.Group, id string) error {
	versions, err := apps.ListVersions(ctx, id)
	if err != nil {
		return fmt.Errorf("listing versions: %w", err)
	}
	liveVersion := group.AppLiveVersion[id]
	versions = appendIfMissing(versions, liveVersion)
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	var last *model.AppVersionRecord
	for _, v := range versions {
		rec, found, err := apps.Load(ctx, id, v)
		if err != nil {
			return fmt.Errorf("loading version %d: %w", v, err)
		}
		if !found {
			continue
		}
		if last == nil {
			rec.VersionInfo = model.ForNewConfig(rec.Version)
		} else if model.IsUpgrade(last.Config, rec.Config) {
			rec.VersionInfo = model.ForNewConfig(rec.Version)
		} else {
			rec.VersionInfo = last.VersionInfo.WithScaleOrRestartChange(rec.Version)
		}
		if err := apps.Store(ctx, rec); err != nil {
			return fmt.Errorf("storing version %d: %w", v, err)
		}
		last = &rec
	}
	return nil
}

// frameworkIDKey and legacyFrameworkIDKey are the post- and
// pre-rename shapes of the framework identity record, per spec.md
// §4.5's RenameFrameworkId sub-step.
const (
	frameworkIDKey       = "framework:id"
	legacyFrameworkIDKey = "frameworkId"
)

// stepRekeyTasksAndRenameFrameworkID returns the 0.13.0 step, which
// rekeys every legacy task record to its post-0.13 key shape and
// renames the legacy framework id key if present, per spec.md §4.5.
func stepRekeyTasksAndRenameFrameworkID(kvs repo.KVS, tasks repo.Task) StepFn {
	return func(ctx context.Context) error {
		if err := rekeyTasks(ctx, tasks); err != nil {
			return err
		}
		return renameFrameworkID(ctx, kvs)
	}
}

// rekeyTasks processes legacy task keys strictly sequentially (per
// spec.md §5's intra-step, per-key ordering requirement for this
// step), decoding each legacy record and re-storing it under its
// post-0.13 key before expunging the legacy key.
func rekeyTasks(ctx context.Context, tasks repo.Task) error {
	keys, err := tasks.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("enumerating task keys: %w", err)
	}
	for _, key := range keys {
		if !model.LegacyTaskKeyPattern.MatchString(key) {
			continue
		}
		raw, found, err := tasks.LoadRaw(ctx, key)
		if err != nil {
			return fmt.Errorf("loading legacy task %q: %w", key, err)
		}
		if !found {
			continue
		}
		task, err := model.DecodeLegacyTask(raw)
		if err != nil {
			return cerr.New(cerr.CorruptLegacyTask, fmt.Errorf("key %q: %w", key, err))
		}
		if err := tasks.Store(ctx, task); err != nil {
			return fmt.Errorf("storing rekeyed task %q: %w", task.ID, err)
		}
		if _, err := tasks.Expunge(ctx, key); err != nil {
			return fmt.Errorf("expunging legacy task key %q: %w", key, err)
		}
	}
	return nil
}

// renameFrameworkID implements the RenameFrameworkId sub-step: a
// no-op if the new key already exists, otherwise copy-then-delete
// from the legacy key if present, otherwise a no-op.
func renameFrameworkID(ctx context.Context, kvs repo.KVS) error {
	_, found, err := kvs.Load(ctx, frameworkIDKey)
	if err != nil {
		return fmt.Errorf("checking %q: %w", frameworkIDKey, err)
	}
	if found {
		return nil
	}
	legacy, found, err := kvs.Load(ctx, legacyFrameworkIDKey)
	if err != nil {
		return fmt.Errorf("checking %q: %w", legacyFrameworkIDKey, err)
	}
	if !found {
		return nil
	}
	if _, err := kvs.Create(ctx, frameworkIDKey, legacy.Bytes); err != nil {
		return fmt.Errorf("creating %q: %w", frameworkIDKey, err)
	}
	if _, err := kvs.Delete(ctx, legacyFrameworkIDKey); err != nil {
		return fmt.Errorf("deleting %q: %w", legacyFrameworkIDKey, err)
	}
	return nil
}

// unionIDs returns the set union of a and b, in no particular order.
func unionIDs(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// appendIfMissing appends v to versions if it is not already present.
func appendIfMissing(versions []model.AppVersionID, v model.AppVersionID) []model.AppVersionID {
	for _, existing := range versions {
		if existing == v {
			return versions
		}
	}
	return append(versions, v)
}
