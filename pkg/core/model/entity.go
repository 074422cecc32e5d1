// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// Entity is a single record of the key-value state store: an id, its
// opaque byte payload, and an adapter-opaque revision token used for
// optimistic-concurrency updates. The migration engine treats Bytes
// as immutable except where a Step explicitly decodes and re-encodes
// it (see the 0.13 task rekey step).
type Entity struct {
	ID       string
	Bytes    []byte
	Revision string
}

// Clone returns a deep copy of e, so callers may mutate Bytes without
// aliasing the original entity.
func (e Entity) Clone() Entity {
	b := make([]byte, len(e.Bytes))
	copy(b, e.Bytes)
	return Entity{ID: e.ID, Bytes: b, Revision: e.Revision}
}
