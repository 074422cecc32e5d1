// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package main is the entry point of the fleetkeepd scheduler binary.
package main

import (
	"github.com/fleetkeep/fleetkeep/cmd/fleetkeepd/command"
)

// buildVersion is overwritten at link time with
// -ldflags "-X main.buildVersion=1.13.2+abcdef", per the scheduler's
// release process. It must match ^\d+\.\d+\.\d+ or fleetkeepd refuses
// to start with a BadBuildVersion error.
var buildVersion = "0.0.0-dev"

func main() {
	command.Execute(buildVersion)
}
