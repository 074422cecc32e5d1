// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
)

// SchemaVersion represents the on-disk schema version of the state
// store, as a (major, minor, patch) triple of non-negative integers.
// Comparison is lexicographic on (major, minor, patch) and the zero
// value represents the "empty/unknown" sentinel described by
// IsEmpty.
type SchemaVersion [3]uint

// buildVersionPattern matches the leading "<major>.<minor>.<patch>"
// of a build metadata string; any trailing characters (pre-release
// tags, build hashes, ...) are ignored.
var buildVersionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`)

// IsEmpty reports whether v equals the (0,0,0) sentinel, which the
// orchestrator treats as "no version persisted yet".
func (v SchemaVersion) IsEmpty() bool {
	return v == SchemaVersion{}
}

// Compare returns -1, 0 or 1 depending on whether v is less than,
// equal to, or greater than other, comparing major then minor then
// patch components in turn.
func (v SchemaVersion) Compare(other SchemaVersion) int {
	for i := 0; i < 3; i++ {
		switch {
		case v[i] < other[i]:
			return -1
		case v[i] > other[i]:
			return 1
		}
	}
	return 0
}

// Less reports whether v sorts strictly before other.
func (v SchemaVersion) Less(other SchemaVersion) bool {
	return v.Compare(other) < 0
}

// String formats v as "Version(M, m, p)", matching the diagnostic
// representation used in error messages throughout this package.
func (v SchemaVersion) String() string {
	return fmt.Sprintf("Version(%d, %d, %d)", v[0], v[1], v[2])
}

// Dotted formats v as "M.m.p", the form used for backup-prefix path
// suffixes and build metadata strings.
func (v SchemaVersion) Dotted() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// Serialize encodes v as a fixed-width 24-byte binary record: three
// big-endian uint64 fields, one per component, with no length
// prefix. This is the on-disk
// representation stored at the internal:storage:version key.
func (v SchemaVersion) Serialize() []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint64(buf[0:8], uint64(v[0]))
	binary.BigEndian.PutUint64(buf[8:16], uint64(v[1]))
	binary.BigEndian.PutUint64(buf[16:24], uint64(v[2]))
	return buf
}

// ParseSchemaVersion decodes a SchemaVersion from its Serialize form.
// It fails with a CorruptVersion-classified error (via the caller,
// see cerr.CorruptVersion) whenever b is not exactly 24 bytes.
func ParseSchemaVersion(b []byte) (SchemaVersion, error) {
	if len(b) != 24 {
		return SchemaVersion{}, fmt.Errorf(
			"version record must be 24 bytes, got %d", len(b),
		)
	}
	var v SchemaVersion
	v[0] = uint(binary.BigEndian.Uint64(b[0:8]))
	v[1] = uint(binary.BigEndian.Uint64(b[8:16]))
	v[2] = uint(binary.BigEndian.Uint64(b[16:24]))
	return v, nil
}

// CurrentFromBuild parses the dotted "<major>.<minor>.<patch>..."
// build metadata string baked into the binary and returns the
// resulting SchemaVersion. Trailing characters after the third
// component (pre-release/build suffixes) are ignored. A build string
// which does not match ^\d+\.\d+\.\d+ is a BadBuildVersion failure,
// reported by the caller.
func CurrentFromBuild(build string) (SchemaVersion, error) {
	m := buildVersionPattern.FindStringSubmatch(build)
	if m == nil {
		return SchemaVersion{}, fmt.Errorf(
			"build version %q does not match ^\\d+\\.\\d+\\.\\d+", build,
		)
	}
	var v SchemaVersion
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(m[i+1], 10, 64)
		if err != nil {
			return SchemaVersion{}, fmt.Errorf(
				"component %q of %q is not numeric: %w", m[i+1], build, err,
			)
		}
		v[i] = uint(n)
	}
	return v, nil
}
