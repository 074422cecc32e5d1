// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
)

// LegacyTaskKeyPattern matches a pre-0.13 task key: an intermediate
// "<appId>:" segment followed by a dotted task identifier, e.g.
// "myApp:myApp.a1b2c3d4-instance". Invariant 5 of spec.md §3 (at most
// one colon after the "task:" prefix) only holds for keys rewritten
// by the 0.13 step into the new "task:<taskId>" shape.
var LegacyTaskKeyPattern = regexp.MustCompile(`^.*:.*\..*$`)

// NewTaskKey returns the post-0.13 key shape for the given task id.
func NewTaskKey(taskID string) string {
	return "task:" + taskID
}

// Task is the persisted representation of a single scheduled task,
// as stored (one Entity per task) under its post-0.13 "task:<id>" key.
type Task struct {
	ID        string
	AppID     string
	Host      string
	StartedAt uint64
}

// DecodeLegacyTask decodes raw as an ObjectInputStream-shaped legacy
// task record: a 4-byte big-endian size prefix followed by that many
// bytes of an inner record, itself three big-endian-length-prefixed
// strings (task id, app id, host) followed by an 8-byte big-endian
// started-at timestamp. A decode failure (malformed length prefixes,
// truncated payload) returns an error so the caller can decide,
// per record, whether to skip the record or fail the whole step.
func DecodeLegacyTask(raw []byte) (Task, error) {
	inner, err := readLengthPrefixed32(raw, 0)
	if err != nil {
		return Task{}, fmt.Errorf("outer record: %w", err)
	}
	off := 0
	taskID, off, err := readLengthPrefixed16(inner, off)
	if err != nil {
		return Task{}, fmt.Errorf("task id field: %w", err)
	}
	appID, off, err := readLengthPrefixed16(inner, off)
	if err != nil {
		return Task{}, fmt.Errorf("app id field: %w", err)
	}
	host, off, err := readLengthPrefixed16(inner, off)
	if err != nil {
		return Task{}, fmt.Errorf("host field: %w", err)
	}
	if off+8 > len(inner) {
		return Task{}, errors.New("started-at field: truncated record")
	}
	startedAt := binary.BigEndian.Uint64(inner[off : off+8])
	if taskID == "" {
		return Task{}, errors.New("decoded record has empty task id")
	}
	return Task{ID: taskID, AppID: appID, Host: host, StartedAt: startedAt}, nil
}

// EncodeLegacyTask is the inverse of DecodeLegacyTask, used only by
// tests which need to fabricate legacy fixtures.
func EncodeLegacyTask(t Task) []byte {
	inner := make([]byte, 0, 64)
	inner = appendLengthPrefixed16(inner, t.ID)
	inner = appendLengthPrefixed16(inner, t.AppID)
	inner = appendLengthPrefixed16(inner, t.Host)
	startedAt := make([]byte, 8)
	binary.BigEndian.PutUint64(startedAt, t.StartedAt)
	inner = append(inner, startedAt...)

	outer := make([]byte, 4+len(inner))
	binary.BigEndian.PutUint32(outer[0:4], uint32(len(inner)))
	copy(outer[4:], inner)
	return outer
}

func readLengthPrefixed32(b []byte, off int) ([]byte, error) {
	if off+4 > len(b) {
		return nil, errors.New("truncated size prefix")
	}
	n := binary.BigEndian.Uint32(b[off : off+4])
	start := off + 4
	end := start + int(n)
	if end > len(b) || end < start {
		return nil, errors.New("truncated payload")
	}
	return b[start:end], nil
}

func readLengthPrefixed16(b []byte, off int) (string, int, error) {
	if off+2 > len(b) {
		return "", off, errors.New("truncated size prefix")
	}
	n := binary.BigEndian.Uint16(b[off : off+2])
	start := off + 2
	end := start + int(n)
	if end > len(b) || end < start {
		return "", off, errors.New("truncated payload")
	}
	return string(b[start:end]), end, nil
}

func appendLengthPrefixed16(b []byte, s string) []byte {
	ln := make([]byte, 2)
	binary.BigEndian.PutUint16(ln, uint16(len(s)))
	b = append(b, ln...)
	b = append(b, s...)
	return b
}
