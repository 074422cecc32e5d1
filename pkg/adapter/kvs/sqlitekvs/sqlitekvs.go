// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package sqlitekvs implements the repo.KVS capability set over a
// single local SQLite file, using the pure-Go modernc.org/sqlite
// driver (no cgo). It is the zero-dependency backend for a
// single-node or development deployment of the scheduler; it is used
// only when the configuration selects it, as no backend is chosen by
// default.
package sqlitekvs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	_ "modernc.org/sqlite"
)

// KVS implements repo.KVS and repo.Initializer over a *sql.DB opened
// with the modernc.org/sqlite driver.
type KVS struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database file at path
// and returns a KVS over it. Call Initialize before first use so the
// kv_entries table exists.
func Open(path string) (*KVS, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, cerr.New(cerr.StoreUnavailable, err)
	}
	return &KVS{db: db}, nil
}

// Initialize issues CREATE TABLE IF NOT EXISTS for the kv_entries
// table.
func (k *KVS) Initialize(ctx context.Context) error {
	_, err := k.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv_entries (
		id TEXT PRIMARY KEY,
		bytes BLOB,
		rev INTEGER NOT NULL
	)`)
	if err != nil {
		return cerr.New(cerr.StoreUnavailable, err)
	}
	return nil
}

// Enumerate returns every id presently stored.
func (k *KVS) Enumerate(ctx context.Context) ([]string, error) {
	rows, err := k.db.QueryContext(ctx, `SELECT id FROM kv_entries`)
	if err != nil {
		return nil, cerr.New(cerr.StoreUnavailable, err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, cerr.New(cerr.StoreUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, cerr.New(cerr.StoreUnavailable, err)
	}
	return ids, nil
}

// Load returns the entity stored at id.
func (k *KVS) Load(ctx context.Context, id string) (model.Entity, bool, error) {
	var bytes []byte
	var rev int64
	row := k.db.QueryRowContext(ctx, `SELECT bytes, rev FROM kv_entries WHERE id = ?`, id)
	err := row.Scan(&bytes, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Entity{}, false, nil
	}
	if err != nil {
		return model.Entity{}, false, cerr.New(cerr.StoreUnavailable, err)
	}
	return model.Entity{ID: id, Bytes: bytes, Revision: strconv.FormatInt(rev, 10)}, true, nil
}

// Create stores bytes under a brand new id.
func (k *KVS) Create(ctx context.Context, id string, bytes []byte) (model.Entity, error) {
	_, err := k.db.ExecContext(ctx,
		`INSERT INTO kv_entries (id, bytes, rev) VALUES (?, ?, 1)`, id, bytes)
	if err != nil {
		if isUniqueConstraint(err) {
			return model.Entity{}, cerr.New(cerr.AlreadyExists, fmt.Errorf("id %q already exists", id))
		}
		return model.Entity{}, cerr.New(cerr.StoreUnavailable, err)
	}
	return model.Entity{ID: id, Bytes: bytes, Revision: "1"}, nil
}

// Update stores entity.Bytes at entity.ID, conditioned on
// entity.Revision still matching the stored rev column.
func (k *KVS) Update(ctx context.Context, e model.Entity) (model.Entity, error) {
	rev, err := strconv.ParseInt(e.Revision, 10, 64)
	if err != nil {
		return model.Entity{}, cerr.New(cerr.StaleRevision, fmt.Errorf("malformed revision %q: %w", e.Revision, err))
	}
	result, err := k.db.ExecContext(ctx,
		`UPDATE kv_entries SET bytes = ?, rev = ? WHERE id = ? AND rev = ?`,
		e.Bytes, rev+1, e.ID, rev)
	if err != nil {
		return model.Entity{}, cerr.New(cerr.StoreUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.Entity{}, cerr.New(cerr.StoreUnavailable, err)
	}
	if affected == 0 {
		_, found, err := k.Load(ctx, e.ID)
		if err != nil {
			return model.Entity{}, err
		}
		if !found {
			return model.Entity{}, cerr.New(cerr.NotFound, fmt.Errorf("id %q not found", e.ID))
		}
		return model.Entity{}, cerr.New(cerr.StaleRevision, fmt.Errorf("id %q has a stale revision", e.ID))
	}
	return model.Entity{ID: e.ID, Bytes: e.Bytes, Revision: strconv.FormatInt(rev+1, 10)}, nil
}

// Delete removes id if present, reporting whether it existed.
func (k *KVS) Delete(ctx context.Context, id string) (bool, error) {
	result, err := k.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE id = ?`, id)
	if err != nil {
		return false, cerr.New(cerr.StoreUnavailable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, cerr.New(cerr.StoreUnavailable, err)
	}
	return affected > 0, nil
}

func isUniqueConstraint(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
