// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rediskvs implements the repo.KVS capability set over Redis
// using redis/go-redis/v9, storing each entity as a hash and wrapping
// every call with a sony/gobreaker circuit breaker so a flapping or
// unreachable broker surfaces as cerr.StoreUnavailable instead of
// hanging the orchestrator.
package rediskvs

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

const (
	bytesField = "bytes"
	revField   = "rev"
)

// KVS implements repo.KVS over a *redis.Client. It advertises no
// Initialize capability: Redis requires no schema, so the
// orchestrator's INIT phase is a no-op for this adapter.
type KVS struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// New returns a KVS backed by client, with a circuit breaker named
// name guarding every call.
func New(client *redis.Client, name string) *KVS {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: name,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ce *cerr.Error
			if errors.As(err, &ce) {
				switch ce.Kind {
				case cerr.AlreadyExists, cerr.NotFound, cerr.StaleRevision:
					return true
				}
			}
			return false
		},
	})
	return &KVS{client: client, cb: cb}
}

// Enumerate returns every id currently stored, via SCAN.
func (k *KVS) Enumerate(ctx context.Context) ([]string, error) {
	res, err := k.execute(func() (any, error) {
		var ids []string
		iter := k.client.Scan(ctx, 0, "*", 0).Iterator()
		for iter.Next(ctx) {
			ids = append(ids, iter.Val())
		}
		return ids, iter.Err()
	})
	if err != nil {
		return nil, err
	}
	ids, _ := res.([]string)
	return ids, nil
}

// Load returns the entity stored at id.
func (k *KVS) Load(ctx context.Context, id string) (model.Entity, bool, error) {
	res, err := k.execute(func() (any, error) {
		return k.client.HGetAll(ctx, id).Result()
	})
	if err != nil {
		return model.Entity{}, false, err
	}
	fields, _ := res.(map[string]string)
	if len(fields) == 0 {
		return model.Entity{}, false, nil
	}
	return model.Entity{ID: id, Bytes: []byte(fields[bytesField]), Revision: fields[revField]}, true, nil
}

// Create stores bytes under a brand new id.
func (k *KVS) Create(ctx context.Context, id string, bytes []byte) (model.Entity, error) {
	_, err := k.execute(func() (any, error) {
		n, err := k.client.Exists(ctx, id).Result()
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, cerr.New(cerr.AlreadyExists, fmt.Errorf("id %q already exists", id))
		}
		return nil, k.client.HSet(ctx, id, map[string]any{bytesField: bytes, revField: "1"}).Err()
	})
	if err != nil {
		return model.Entity{}, err
	}
	return model.Entity{ID: id, Bytes: bytes, Revision: "1"}, nil
}

// Update stores entity.Bytes at entity.ID, conditioned on
// entity.Revision still matching the stored revision, using a
// WATCH/MULTI transaction so the check-then-set is atomic.
func (k *KVS) Update(ctx context.Context, e model.Entity) (model.Entity, error) {
	var next model.Entity
	_, err := k.execute(func() (any, error) {
		txf := func(tx *redis.Tx) error {
			cur, err := tx.HGetAll(ctx, e.ID).Result()
			if err != nil {
				return err
			}
			if len(cur) == 0 {
				return cerr.New(cerr.NotFound, fmt.Errorf("id %q not found", e.ID))
			}
			if cur[revField] != e.Revision {
				return cerr.New(cerr.StaleRevision, fmt.Errorf("id %q has a stale revision", e.ID))
			}
			rev, err := strconv.ParseUint(cur[revField], 10, 64)
			if err != nil {
				return cerr.New(cerr.StaleRevision, fmt.Errorf("malformed stored revision for %q: %w", e.ID, err))
			}
			next = model.Entity{ID: e.ID, Bytes: e.Bytes, Revision: strconv.FormatUint(rev+1, 10)}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.HSet(ctx, e.ID, map[string]any{bytesField: e.Bytes, revField: next.Revision})
				return nil
			})
			return err
		}
		return nil, k.client.Watch(ctx, txf, e.ID)
	})
	if err != nil {
		return model.Entity{}, err
	}
	return next, nil
}

// Delete removes id if present, reporting whether it existed.
func (k *KVS) Delete(ctx context.Context, id string) (bool, error) {
	res, err := k.execute(func() (any, error) {
		return k.client.Del(ctx, id).Result()
	})
	if err != nil {
		return false, err
	}
	n, _ := res.(int64)
	return n > 0, nil
}

// execute runs fn through the circuit breaker, classifying a breaker
// trip or underlying Redis I/O failure as cerr.StoreUnavailable while
// letting an already-classified *cerr.Error (AlreadyExists, NotFound,
// StaleRevision) pass through unwrapped.
func (k *KVS) execute(fn func() (any, error)) (any, error) {
	res, err := k.cb.Execute(fn)
	if err == nil {
		return res, nil
	}
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return nil, err
	}
	return nil, cerr.New(cerr.StoreUnavailable, err)
}
