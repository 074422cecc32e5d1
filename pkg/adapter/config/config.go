// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package config is an adapter which lets operators write a yaml
// configuration file and have fleetkeepd instantiate the migration
// engine's store/repository stack from it. Parsed and validated
// settings are handed to their ultimate components as individual
// params, so this struct stays the single place aware of the on-disk
// file shape.
package config

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/fleetkeep/fleetkeep/pkg/adapter/kvs/pgkvs"
	"github.com/fleetkeep/fleetkeep/pkg/adapter/kvs/rediskvs"
	"github.com/fleetkeep/fleetkeep/pkg/adapter/kvs/sqlitekvs"
	"github.com/fleetkeep/fleetkeep/pkg/core/repo"
	"github.com/fleetkeep/fleetkeep/pkg/core/usecase/migrationuc"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Backend names the supported KVS backends, as read from the
// kvsBackend configuration field.
type Backend string

// The supported KVS backends.
const (
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendSQLite   Backend = "sqlite"
)

// Config contains all settings required to build the migration
// engine: the live/backup key prefixes, the chosen KVS backend, and
// that backend's connection settings. Only the struct matching
// KVSBackend needs to be filled in.
type Config struct {
	StatePrefix  string  `yaml:"state-prefix"`
	BackupPrefix string  `yaml:"backup-prefix"`
	KVSBackend   Backend `yaml:"kvs-backend"`

	Postgres Postgres `yaml:"postgres"`
	Redis    Redis    `yaml:"redis"`
	SQLite   SQLite   `yaml:"sqlite"`
}

// statePrefixValue and backupPrefixValue back settingsView's
// implementation of migrationuc.Settings.
func (c *Config) statePrefixValue() string  { return c.StatePrefix }
func (c *Config) backupPrefixValue() string { return c.BackupPrefix }

// settingsView adapts *Config to migrationuc.Settings without
// exposing the yaml-tagged fields directly as the interface's method
// set (StatePrefix/BackupPrefix would otherwise collide with the
// struct's own fields of the same name).
type settingsView struct{ c *Config }

func (s settingsView) StatePrefix() string  { return s.c.statePrefixValue() }
func (s settingsView) BackupPrefix() string { return s.c.backupPrefixValue() }

// Settings returns c adapted to the migrationuc.Settings interface.
func (c *Config) Settings() migrationuc.Settings { return settingsView{c: c} }

// Postgres contains the Postgres KVS backend's connection settings.
type Postgres struct {
	Host     string // domain name or IP address of the DBMS server
	Port     int    // port number of the DBMS server
	Name     string // database name
	Role     string // role/username for connecting to the database
	PassFile string `yaml:"pass-file"` // path of the password file
}

// NewKVS opens a *gorm.DB over p's connection settings and returns a
// pgkvs.KVS wrapping it.
func (p Postgres) NewKVS(ctx context.Context) (*pgkvs.KVS, error) {
	pass, err := os.ReadFile(p.PassFile)
	if err != nil {
		return nil, fmt.Errorf("reading pass-file: %w", err)
	}
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(p.Role, string(pass)),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:   p.Name,
	}
	db, err := gorm.Open(postgres.Open(u.String()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening gorm session: %w", err)
	}
	return pgkvs.New(db), nil
}

// Redis contains the Redis KVS backend's connection settings.
type Redis struct {
	Addr               string `yaml:"addr"`
	CircuitBreakerName string `yaml:"circuit-breaker-name"`
}

// NewKVS returns a rediskvs.KVS connected to r's address.
func (r Redis) NewKVS() *rediskvs.KVS {
	name := r.CircuitBreakerName
	if name == "" {
		name = "fleetkeep-kvs"
	}
	client := redis.NewClient(&redis.Options{Addr: r.Addr})
	return rediskvs.New(client, name)
}

// SQLite contains the SQLite KVS backend's connection settings.
type SQLite struct {
	Path string
}

// NewKVS opens the SQLite file at s.Path and returns a sqlitekvs.KVS
// over it.
func (s SQLite) NewKVS() (*sqlitekvs.KVS, error) {
	return sqlitekvs.Open(s.Path)
}

// NewKVS builds the repo.KVS implementation selected by c.KVSBackend.
func (c *Config) NewKVS(ctx context.Context) (repo.KVS, error) {
	switch c.KVSBackend {
	case BackendPostgres:
		return c.Postgres.NewKVS(ctx)
	case BackendRedis:
		return c.Redis.NewKVS(), nil
	case BackendSQLite:
		return c.SQLite.NewKVS()
	default:
		return nil, fmt.Errorf("unknown kvsBackend %q", c.KVSBackend)
	}
}

// Load reads, parses and validates the yaml configuration file at
// path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := &Config{}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("unmarshalling yaml: %w", err)
	}
	if err = c.ValidateAndNormalize(); err != nil {
		return nil, fmt.Errorf("validating configs: %w", err)
	}
	return c, nil
}

// ValidateAndNormalize validates the configuration settings,
// including the state/backup prefix disjointness invariant.
func (c *Config) ValidateAndNormalize() error {
	switch c.KVSBackend {
	case BackendPostgres, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("kvsBackend must be one of postgres, redis, sqlite; got %q", c.KVSBackend)
	}
	return migrationuc.ValidateSettings(c.Settings())
}
