// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package kvsrepo

import (
	"context"
	"fmt"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	json "github.com/goccy/go-json"
)

// Group implements repo.Group atop a repo.KVS, storing each group
// under the name passed to Store as the key; LoadRoot reads the key
// model.RootGroupID.
type Group struct {
	kvs repo.KVS
}

// NewGroup returns a Group repository backed by kvs.
func NewGroup(kvs repo.KVS) *Group {
	return &Group{kvs: kvs}
}

// LoadRoot returns the root group.
func (g *Group) LoadRoot(ctx context.Context) (model.Group, bool, error) {
	e, found, err := g.kvs.Load(ctx, model.RootGroupID)
	if err != nil || !found {
		return model.Group{}, found, err
	}
	var group model.Group
	if err := json.Unmarshal(e.Bytes, &group); err != nil {
		return model.Group{}, false, fmt.Errorf("decoding root group: %w", err)
	}
	return group, true, nil
}

// Store persists g under name, creating or overwriting it.
func (g *Group) Store(ctx context.Context, name string, group model.Group) error {
	bytes, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("encoding group %q: %w", name, err)
	}
	existing, found, err := g.kvs.Load(ctx, name)
	if err != nil {
		return err
	}
	if !found {
		_, err = g.kvs.Create(ctx, name, bytes)
		return err
	}
	existing.Bytes = bytes
	_, err = g.kvs.Update(ctx, existing)
	return err
}
