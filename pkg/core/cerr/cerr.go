// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package cerr represents the core layer errors. It defines the Error
// wrapper type which classifies any wrapped error by a Kind, so
// callers can branch on the failure category with errors.As instead
// of string matching, and a CLI (or any other host) can decide an
// exit code or recovery action from Kind alone.
package cerr

import "fmt"

// Kind classifies an Error by its place in the migration engine's
// error taxonomy (spec.md §7).
type Kind string

// The migration engine's complete error taxonomy.
const (
	StoreUnavailable           Kind = "StoreUnavailable"
	UnsupportedVersion         Kind = "UnsupportedVersion"
	UnsupportedLegacy          Kind = "UnsupportedLegacy"
	MigrationAlreadyInProgress Kind = "MigrationAlreadyInProgress"
	CorruptVersion             Kind = "CorruptVersion"
	CorruptLegacyTask          Kind = "CorruptLegacyTask"
	MigrationFailed            Kind = "MigrationFailed"
	BadBuildVersion            Kind = "BadBuildVersion"
	AlreadyExists              Kind = "AlreadyExists"
	StaleRevision              Kind = "StaleRevision"
	NotFound                   Kind = "NotFound"
)

// Error wraps Err and classifies it with Kind, so it may be recognized
// by callers (with errors.As) independently of its message text.
type Error struct {
	Kind Kind
	Err  error
}

// Unwrap returns the wrapped inner error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Err.Error())
}

// New wraps err, classifying it as kind.
func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// Newf is a convenience wrapper building the inner error from a
// format string, akin to fmt.Errorf.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Is reports whether target is an *Error with the same Kind, allowing
// errors.Is(err, cerr.New(cerr.StoreUnavailable, nil)) style checks
// when only the classification (not the message) matters.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
