// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"log/slog"
	"strings"

	"github.com/fleetkeep/fleetkeep/pkg/core/log"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	"golang.org/x/sync/errgroup"
)

// backupPipelineWidth bounds the number of concurrent per-key
// create/delete calls the Backup Manager issues during a store or
// restore pass, per spec.md §5's "cross-key operations may be
// pipelined" allowance.
const backupPipelineWidth = 8

// BackupManager implements spec.md §4.3's snapshot/restore decision,
// run once at the start of a migration, before any step executes.
type BackupManager struct {
	kvs      repo.KVS
	settings Settings
}

// NewBackupManager returns a BackupManager operating over kvs using
// the state/backup prefixes from settings.
func NewBackupManager(kvs repo.KVS, settings Settings) *BackupManager {
	return &BackupManager{kvs: kvs, settings: settings}
}

// backupPath returns the backup prefix for snapshots of version v,
// per spec.md §4.3: backupPrefix + "_" + v.major.minor.patch.
func (bm *BackupManager) backupPath(v model.SchemaVersion) string {
	return bm.settings.BackupPrefix() + "_" + v.Dotted()
}

// Run decides between store and restore mode given the currently
// stored version from, and performs the corresponding pass. It is a
// no-op if the state store is entirely empty.
func (bm *BackupManager) Run(ctx context.Context, from model.SchemaVersion) error {
	ids, err := bm.kvs.Enumerate(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	statePrefix := bm.settings.StatePrefix()
	backupPrefix := bm.backupPath(from)

	k0 := firstWithPrefix(ids, statePrefix)
	if k0 == "" {
		// No id lies under statePrefix; keys outside it are not
		// snapshotted, so there is nothing to do.
		return nil
	}
	b0 := backupPrefix + strings.TrimPrefix(k0, statePrefix)
	_, found, err := bm.kvs.Load(ctx, b0)
	if err != nil {
		return err
	}
	if found {
		return bm.restore(ctx, statePrefix, backupPrefix, ids)
	}
	return bm.store(ctx, statePrefix, backupPrefix, ids)
}

// store creates a backup key under backupPrefix for every id under
// statePrefix, per spec.md §4.3's store-mode procedure.
func (bm *BackupManager) store(
	ctx context.Context, statePrefix, backupPrefix string, ids []string,
) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backupPipelineWidth)
	for _, id := range ids {
		if !strings.HasPrefix(id, statePrefix) {
			continue
		}
		id := id
		g.Go(func() error {
			dst := backupPrefix + strings.TrimPrefix(id, statePrefix)
			bytes, err := bm.loadBytesOrWarn(gctx, id)
			if err != nil {
				return err
			}
			_, err = bm.kvs.Create(gctx, dst, bytes)
			return err
		})
	}
	return g.Wait()
}

// restore first deletes every id under statePrefix, awaiting all
// deletions, then recreates each one from its backupPrefix
// counterpart, per spec.md §4.3's restore-mode procedure.
func (bm *BackupManager) restore(
	ctx context.Context, statePrefix, backupPrefix string, ids []string,
) error {
	del, delCtx := errgroup.WithContext(ctx)
	del.SetLimit(backupPipelineWidth)
	for _, id := range ids {
		if !strings.HasPrefix(id, statePrefix) {
			continue
		}
		id := id
		del.Go(func() error {
			_, err := bm.kvs.Delete(delCtx, id)
			return err
		})
	}
	if err := del.Wait(); err != nil {
		return err
	}

	// Re-enumerate: deletions above may have changed the id set, and
	// the backup keys were never touched by them.
	ids, err := bm.kvs.Enumerate(ctx)
	if err != nil {
		return err
	}
	cre, creCtx := errgroup.WithContext(ctx)
	cre.SetLimit(backupPipelineWidth)
	for _, id := range ids {
		if !strings.HasPrefix(id, backupPrefix) {
			continue
		}
		id := id
		cre.Go(func() error {
			dst := statePrefix + strings.TrimPrefix(id, backupPrefix)
			bytes, err := bm.loadBytesOrWarn(creCtx, id)
			if err != nil {
				return err
			}
			_, err = bm.kvs.Create(creCtx, dst, bytes)
			return err
		})
	}
	return cre.Wait()
}

// loadBytesOrWarn loads id's bytes, returning an empty slice and
// logging a warning if the key vanished between enumeration and load
// (a benign race, not a failure of the backup invariant).
func (bm *BackupManager) loadBytesOrWarn(ctx context.Context, id string) ([]byte, error) {
	e, found, err := bm.kvs.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warn(ctx, "source key vanished before backup copy, using empty bytes",
			slog.String("id", id))
		return []byte{}, nil
	}
	return e.Bytes, nil
}

func firstWithPrefix(ids []string, prefix string) string {
	for _, id := range ids {
		if strings.HasPrefix(id, prefix) {
			return id
		}
	}
	return ""
}
