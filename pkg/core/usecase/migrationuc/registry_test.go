// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package migrationuc

import (
	"context"
	"errors"
	"testing"

	"github.com/fleetkeep/fleetkeep/pkg/core/cerr"
	"github.com/fleetkeep/fleetkeep/pkg/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryApplicableSteps(t *testing.T) {
	r := NewRegistry()
	r.Register(model.SchemaVersion{0, 7, 0}, func(context.Context) error { return nil })
	r.Register(model.SchemaVersion{0, 11, 0}, func(context.Context) error { return nil })
	r.Register(model.SchemaVersion{0, 13, 0}, func(context.Context) error { return nil })

	steps := r.applicableSteps(model.SchemaVersion{0, 9, 0})
	require.Len(t, steps, 2)
	assert.Equal(t, model.SchemaVersion{0, 11, 0}, steps[0].targetVersion)
	assert.Equal(t, model.SchemaVersion{0, 13, 0}, steps[1].targetVersion)

	all := r.applicableSteps(model.SchemaVersion{})
	assert.Len(t, all, 3)

	none := r.applicableSteps(model.SchemaVersion{1, 0, 0})
	assert.Empty(t, none)
}

func TestRegistryRegisterPanicsOnNonAscending(t *testing.T) {
	r := NewRegistry()
	r.Register(model.SchemaVersion{0, 11, 0}, func(context.Context) error { return nil })
	assert.Panics(t, func() {
		r.Register(model.SchemaVersion{0, 7, 0}, func(context.Context) error { return nil })
	})
	assert.Panics(t, func() {
		r.Register(model.SchemaVersion{0, 11, 0}, func(context.Context) error { return nil })
	})
}

func TestCheckMinSupported(t *testing.T) {
	assert.NoError(t, checkMinSupported(model.SchemaVersion{}))
	assert.NoError(t, checkMinSupported(model.SchemaVersion{0, 3, 0}))
	assert.NoError(t, checkMinSupported(model.SchemaVersion{1, 0, 0}))

	err := checkMinSupported(model.SchemaVersion{0, 2, 9})
	require.Error(t, err)
	var ce *cerr.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, cerr.UnsupportedVersion, ce.Kind)
	assert.Contains(t, ce.Error(), "Migration from versions < Version(0, 3, 0) is not supported")
}
