// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package dbcontainer is an internal helper for the pgkvs test suite.
// It spins up a temporary postgres:16 podman container and returns a
// pgkvs.KVS connected to it, for integration-level tests which need a
// real PostgreSQL server rather than a sqlmock.
package dbcontainer

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/bitcomplete/sqltestutil"
	"github.com/fleetkeep/fleetkeep/pkg/adapter/kvs/pgkvs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// New creates and starts up a postgres podman container, opens a
// pgkvs.KVS over it (with the kv_entries table already initialized),
// and returns cleanup functions to run (in order) once the test is
// done.
//
// The podman.service needs to be running and DOCKER_HOST set
// beforehand, e.g. DOCKER_HOST=unix://$XDG_RUNTIME_DIR/podman/podman.sock.
// ctx is used throughout startup and shutdown; timeout bounds startup
// only.
func New(ctx context.Context, timeout time.Duration, t *testing.T) (
	pg *sqltestutil.PostgresContainer,
	kvs *pgkvs.KVS,
	dfrs []func(),
	ok bool,
) {
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	dbmsVer := "16"
	pg, err := sqltestutil.StartPostgresContainer(ctx2, dbmsVer)
	ok = assert.NoError(t, err, "failed to set up a test database")
	if !ok {
		return
	}
	dfrs = append(dfrs, func() {
		err := pg.Shutdown(ctx)
		assert.NoError(t, err, "failed to shutdown test database")
	})

	u := pg.ConnectionString()
	var db *gorm.DB
	for db == nil {
		db, err = gorm.Open(postgres.Open(u), &gorm.Config{})
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.SQLState() == "57P03" {
			continue // the database system is starting up
		}
		var netErr net.Error
		if ctx2.Err() == nil && errors.As(err, &netErr) {
			continue // tolerate network errors until a timeout
		}
		ok = assert.NoError(t, err, "cannot connect to test database")
		if !ok {
			return
		}
	}
	dfrs = append(dfrs, func() {
		sqlDB, err := db.DB()
		if assert.NoError(t, err, "failed to get underlying *sql.DB") {
			assert.NoError(t, sqlDB.Close(), "failed to close the connection")
		}
	})

	kvs = pgkvs.New(db)
	ok = assert.NoError(t, kvs.Initialize(ctx), "failed to create kv_entries table")
	return
}
