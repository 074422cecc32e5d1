// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndNormalizeRejectsUnknownBackend(t *testing.T) {
	c := &Config{StatePrefix: "/a", BackupPrefix: "/b", KVSBackend: "oracle"}
	assert.Error(t, c.ValidateAndNormalize())
}

func TestValidateAndNormalizeRejectsOverlappingPrefixes(t *testing.T) {
	c := &Config{StatePrefix: "/a", BackupPrefix: "/a", KVSBackend: BackendSQLite}
	assert.Error(t, c.ValidateAndNormalize())
}

func TestValidateAndNormalizeAcceptsValidConfig(t *testing.T) {
	c := &Config{StatePrefix: "/marathon/state", BackupPrefix: "/marathon/backup", KVSBackend: BackendSQLite}
	assert.NoError(t, c.ValidateAndNormalize())
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
state-prefix: /marathon/state
backup-prefix: /marathon/backup
kvs-backend: sqlite
sqlite:
  path: /var/lib/fleetkeep/state.db
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/marathon/state", c.StatePrefix)
	assert.Equal(t, BackendSQLite, c.KVSBackend)
	assert.Equal(t, "/var/lib/fleetkeep/state.db", c.SQLite.Path)
}
