// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package pgkvs implements the repo.KVS capability set over PostgreSQL
// using gorm.io/gorm and gorm.io/driver/postgres (which wraps
// jackc/pgx/v5), the same ORM/driver pairing the ambient database
// layer uses elsewhere in this module.
package pgkvs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"gorm.io/gorm"
)

// kvEntry is the GORM model backing the kv_entries table: one row per
// stored id, with rev as an application-managed optimistic
// concurrency counter (incremented on every successful Update).
type kvEntry struct {
	ID    string `gorm:"column:id;primaryKey"`
	Bytes []byte `gorm:"column:bytes"`
	Rev   int64  `gorm:"column:rev"`
}

// TableName pins the GORM model to the kv_entries table regardless of
// the struct's name.
func (kvEntry) TableName() string { return "kv_entries" }

// KVS implements repo.KVS and repo.Initializer over a *gorm.DB
// connected to PostgreSQL.
type KVS struct {
	db *gorm.DB
}

// New returns a KVS backed by db. Call Initialize before first use so
// the kv_entries table exists.
func New(db *gorm.DB) *KVS {
	return &KVS{db: db}
}

// Initialize runs AutoMigrate for the kv_entries table. This adapter
// advertises the management capability (as sqlitekvs also does), per
// spec.md §4.2.
func (k *KVS) Initialize(ctx context.Context) error {
	if err := k.db.WithContext(ctx).AutoMigrate(&kvEntry{}); err != nil {
		return cerr.New(cerr.StoreUnavailable, fmt.Errorf("auto-migrating kv_entries: %w", err))
	}
	return nil
}

// Enumerate returns every id presently stored.
func (k *KVS) Enumerate(ctx context.Context) ([]string, error) {
	var ids []string
	err := k.db.WithContext(ctx).Model(&kvEntry{}).Pluck("id", &ids).Error
	if err != nil {
		return nil, cerr.New(cerr.StoreUnavailable, err)
	}
	return ids, nil
}

// Load returns the entity stored at id.
func (k *KVS) Load(ctx context.Context, id string) (model.Entity, bool, error) {
	var row kvEntry
	err := k.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Entity{}, false, nil
	}
	if err != nil {
		return model.Entity{}, false, cerr.New(cerr.StoreUnavailable, err)
	}
	return toEntity(row), true, nil
}

// Create stores bytes under a brand new id.
func (k *KVS) Create(ctx context.Context, id string, bytes []byte) (model.Entity, error) {
	row := kvEntry{ID: id, Bytes: bytes, Rev: 1}
	err := k.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return model.Entity{}, cerr.New(cerr.AlreadyExists, fmt.Errorf("id %q already exists", id))
		}
		return model.Entity{}, cerr.New(cerr.StoreUnavailable, err)
	}
	return toEntity(row), nil
}

// Update stores entity.Bytes at entity.ID, conditioned on
// entity.Revision still matching the stored rev column.
func (k *KVS) Update(ctx context.Context, e model.Entity) (model.Entity, error) {
	rev, err := strconv.ParseInt(e.Revision, 10, 64)
	if err != nil {
		return model.Entity{}, cerr.New(cerr.StaleRevision, fmt.Errorf("malformed revision %q: %w", e.Revision, err))
	}
	result := k.db.WithContext(ctx).Model(&kvEntry{}).
		Where("id = ? AND rev = ?", e.ID, rev).
		Updates(map[string]any{"bytes": e.Bytes, "rev": rev + 1})
	if result.Error != nil {
		return model.Entity{}, cerr.New(cerr.StoreUnavailable, result.Error)
	}
	if result.RowsAffected == 0 {
		exists, err := k.exists(ctx, e.ID)
		if err != nil {
			return model.Entity{}, err
		}
		if !exists {
			return model.Entity{}, cerr.New(cerr.NotFound, fmt.Errorf("id %q not found", e.ID))
		}
		return model.Entity{}, cerr.New(cerr.StaleRevision, fmt.Errorf("id %q has a stale revision", e.ID))
	}
	return model.Entity{ID: e.ID, Bytes: e.Bytes, Revision: strconv.FormatInt(rev+1, 10)}, nil
}

// Delete removes id if present, reporting whether it existed.
func (k *KVS) Delete(ctx context.Context, id string) (bool, error) {
	result := k.db.WithContext(ctx).Where("id = ?", id).Delete(&kvEntry{})
	if result.Error != nil {
		return false, cerr.New(cerr.StoreUnavailable, result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (k *KVS) exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := k.db.WithContext(ctx).Model(&kvEntry{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, cerr.New(cerr.StoreUnavailable, err)
	}
	return count > 0, nil
}

func toEntity(row kvEntry) model.Entity {
	return model.Entity{ID: row.ID, Bytes: row.Bytes, Revision: strconv.FormatInt(row.Rev, 10)}
}

// isUniqueViolation recognizes a PostgreSQL unique_violation (SQLSTATE
// 23505) as reported by jackc/pgx through GORM's generic error
// interface, without importing the pgx error type directly so this
// check also degrades gracefully against sqlmock-driven tests.
func isUniqueViolation(err error) bool {
	type sqlStater interface {
		SQLState() string
	}
	var s sqlStater
	if errors.As(err, &s) {
		return s.SQLState() == "23505"
	}
	return false
}
