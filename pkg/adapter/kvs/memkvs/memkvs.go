// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package memkvs provides an in-memory repo.KVS implementation backed
// by a mutex-guarded map. It exists solely for exercising the
// migration engine's core logic (orchestrator, backup manager,
// registry, steps) in tests without any network or process
// dependency; it is never wired into a running binary.
package memkvs

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// KVS is an in-memory repo.KVS implementation. The zero value is not
// usable; construct one with New.
type KVS struct {
	mu   sync.Mutex
	data map[string]entry
	rev  uint64
}

type entry struct {
	bytes []byte
	rev   uint64
}

// New returns an empty KVS.
func New() *KVS {
	return &KVS{data: make(map[string]entry)}
}

// Enumerate returns every id currently stored, in no particular
// order.
func (k *KVS) Enumerate(ctx context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ids := make([]string, 0, len(k.data))
	for id := range k.data {
		ids = append(ids, id)
	}
	return ids, nil
}

// Load returns the entity stored at id.
func (k *KVS) Load(ctx context.Context, id string) (model.Entity, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.data[id]
	if !ok {
		return model.Entity{}, false, nil
	}
	return toEntity(id, e), true, nil
}

// Create stores bytes under a brand new id.
func (k *KVS) Create(ctx context.Context, id string, bytes []byte) (model.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.data[id]; ok {
		return model.Entity{}, cerr.New(cerr.AlreadyExists, fmt.Errorf("id %q already exists", id))
	}
	k.rev++
	e := entry{bytes: cloneBytes(bytes), rev: k.rev}
	k.data[id] = e
	return toEntity(id, e), nil
}

// Update stores entity.Bytes at entity.ID, conditioned on
// entity.Revision still matching.
func (k *KVS) Update(ctx context.Context, e model.Entity) (model.Entity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	cur, ok := k.data[e.ID]
	if !ok {
		return model.Entity{}, cerr.New(cerr.NotFound, fmt.Errorf("id %q not found", e.ID))
	}
	if strconv.FormatUint(cur.rev, 10) != e.Revision {
		return model.Entity{}, cerr.New(cerr.StaleRevision, fmt.Errorf("id %q has a stale revision", e.ID))
	}
	k.rev++
	next := entry{bytes: cloneBytes(e.Bytes), rev: k.rev}
	k.data[e.ID] = next
	return toEntity(e.ID, next), nil
}

// Delete removes id if present, reporting whether it existed.
func (k *KVS) Delete(ctx context.Context, id string) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, existed := k.data[id]
	delete(k.data, id)
	return existed, nil
}

func toEntity(id string, e entry) model.Entity {
	return model.Entity{
		ID:       id,
		Bytes:    cloneBytes(e.bytes),
		Revision: strconv.FormatUint(e.rev, 10),
	}
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
