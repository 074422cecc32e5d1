// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package cerr

import (
	"fmt"

	"github.com/fleetkeep/fleetkeep/pkg/core/model"
)

// UnsupportedVersionError indicates that a migration was asked to
// start from a stored version older than the engine's minimum
// supported version.
type UnsupportedVersionError struct {
	Min  model.SchemaVersion
	From model.SchemaVersion
}

// Error returns the exact user-visible message specified by spec.md
// §4.4: "Migration from versions < <min> is not supported. Your
// version: <from>".
func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf(
		"Migration from versions < %s is not supported. Your version: %s",
		e.Min, e.From,
	)
}

// AsUnsupportedVersion wraps an UnsupportedVersionError as a
// classified *Error.
func AsUnsupportedVersion(min, from model.SchemaVersion) *Error {
	return New(UnsupportedVersion, &UnsupportedVersionError{Min: min, From: from})
}
