// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package kvsrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	json "github.com/goccy/go-json"
)

const taskKeyPrefix = "task:"

// reservedKeyPrefixes never belong to the task store, even though
// model.LegacyTaskKeyPattern is a loose pattern that could otherwise
// coincidentally match them.
var reservedKeyPrefixes = []string{appKeyPrefix, "group:", "internal:"}

// Task implements repo.Task atop a repo.KVS.
type Task struct {
	kvs repo.KVS
}

// NewTask returns a Task repository backed by kvs.
func NewTask(kvs repo.KVS) *Task {
	return &Task{kvs: kvs}
}

func isReservedKey(key string) bool {
	for _, p := range reservedKeyPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Enumerate returns every key currently managed by the task store,
// including both legacy and post-rekey shapes.
func (t *Task) Enumerate(ctx context.Context) ([]string, error) {
	keys, err := t.kvs.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if isReservedKey(key) {
			continue
		}
		if strings.HasPrefix(key, taskKeyPrefix) || model.LegacyTaskKeyPattern.MatchString(key) {
			out = append(out, key)
		}
	}
	return out, nil
}

// LoadRaw returns the undecoded bytes stored at key.
func (t *Task) LoadRaw(ctx context.Context, key string) ([]byte, bool, error) {
	e, found, err := t.kvs.Load(ctx, key)
	if err != nil || !found {
		return nil, found, err
	}
	return e.Bytes, true, nil
}

// Store persists t's Task under its post-0.13 key.
func (t *Task) Store(ctx context.Context, task model.Task) error {
	bytes, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding task %q: %w", task.ID, err)
	}
	key := model.NewTaskKey(task.ID)
	existing, found, err := t.kvs.Load(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		_, err = t.kvs.Create(ctx, key, bytes)
		return err
	}
	existing.Bytes = bytes
	_, err = t.kvs.Update(ctx, existing)
	return err
}

// Expunge removes key, reporting whether it existed.
func (t *Task) Expunge(ctx context.Context, key string) (bool, error) {
	return t.kvs.Delete(ctx, key)
}
