// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package kvsrepo implements the App, Group and Task repositories
// from pkg/core/repo on top of any repo.KVS, using a structured key
// convention and goccy/go-json encoding for non-legacy records.
package kvsrepo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	json "github.com/goccy/go-json"
)

const appKeyPrefix = "app:"

// App implements repo.App atop a repo.KVS, storing one entity per
// (AppID, Version) pair under "app:<id>:<version>".
type App struct {
	kvs repo.KVS
}

// NewApp returns an App repository backed by kvs.
func NewApp(kvs repo.KVS) *App {
	return &App{kvs: kvs}
}

func appKey(id string, version model.AppVersionID) string {
	return appKeyPrefix + id + ":" + strconv.FormatUint(uint64(version), 10)
}

// parseAppKey splits an "app:<id>:<version>" key into its id and
// version parts. ok is false for any key which is not app-shaped.
func parseAppKey(key string) (id string, version model.AppVersionID, ok bool) {
	rest, found := strings.CutPrefix(key, appKeyPrefix)
	if !found {
		return "", 0, false
	}
	idx := strings.LastIndex(rest, ":")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.ParseUint(rest[idx+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return rest[:idx], model.AppVersionID(n), true
}

// ListIDs returns every distinct application id with at least one
// stored version.
func (a *App) ListIDs(ctx context.Context) ([]string, error) {
	keys, err := a.kvs.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id, _, ok := parseAppKey(key)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListVersions returns the versions stored for id.
func (a *App) ListVersions(ctx context.Context, id string) ([]model.AppVersionID, error) {
	keys, err := a.kvs.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	versions := make([]model.AppVersionID, 0)
	for _, key := range keys {
		kid, v, ok := parseAppKey(key)
		if !ok || kid != id {
			continue
		}
		versions = append(versions, v)
	}
	return versions, nil
}

// Load returns the stored record for id at version.
func (a *App) Load(ctx context.Context, id string, version model.AppVersionID) (model.AppVersionRecord, bool, error) {
	e, found, err := a.kvs.Load(ctx, appKey(id, version))
	if err != nil || !found {
		return model.AppVersionRecord{}, found, err
	}
	var rec model.AppVersionRecord
	if err := json.Unmarshal(e.Bytes, &rec); err != nil {
		return model.AppVersionRecord{}, false, fmt.Errorf("decoding app record %q: %w", id, err)
	}
	return rec, true, nil
}

// Store persists rec, creating or overwriting the record at its
// (AppID, Version) key.
func (a *App) Store(ctx context.Context, rec model.AppVersionRecord) error {
	bytes, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding app record %q: %w", rec.AppID, err)
	}
	key := appKey(rec.AppID, rec.Version)
	existing, found, err := a.kvs.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		_, err = a.kvs.Create(ctx, key, bytes)
		return err
	}
	existing.Bytes = bytes
	_, err = a.kvs.Update(ctx, existing)
	return err
}

// Expunge removes every stored version of id.
func (a *App) Expunge(ctx context.Context, id string) error {
	versions, err := a.ListVersions(ctx, id)
	if err != nil {
		return err
	}
	for _, v := range versions {
		if _, err := a.kvs.Delete(ctx, appKey(id, v)); err != nil {
			return err
		}
	}
	return nil
}
