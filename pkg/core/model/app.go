// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// AppVersionID identifies one historical configuration of an
// application, as a monotonically increasing counter assigned at
// configuration-change or scale/restart time. It plays the role that
// a timestamp plays in the live scheduler: only relative ordering
// matters to the migration engine.
type AppVersionID uint64

// AppConfig is the subset of an application's configuration which
// matters for deciding whether a new version is an upgrade (a change
// to the runnable definition) or merely a scale/restart (the same
// runnable definition run with a different instance count or simply
// relaunched). Fields beyond these are irrelevant to that decision
// and are not modelled: a stored record holds only these fields, and
// the 0.11 step rewrites each record from its decoded struct.
type AppConfig struct {
	Cmd       string
	CPUs      float64
	Mem       float64
	Instances int
}

// IsUpgrade reports whether next changes the runnable definition of
// prev. Changing only the Instances count is a scale operation, and
// an otherwise-identical config is a forced restart; neither counts
// as an upgrade.
func IsUpgrade(prev, next AppConfig) bool {
	return prev.Cmd != next.Cmd || prev.CPUs != next.CPUs || prev.Mem != next.Mem
}

// VersionInfo records, for one historical AppConfig, the version at
// which its runnable definition last changed and the version at
// which it was last scaled or restarted (which may be the same
// version, or a later one for a pure scale/restart).
type VersionInfo struct {
	LastConfigChangeAt AppVersionID
	LastScalingAt      AppVersionID
}

// WithScaleOrRestartChange returns the VersionInfo describing a
// scale-or-restart transition to next: the config-change marker is
// carried forward from vi unchanged, while the scaling marker moves
// to next.
func (vi VersionInfo) WithScaleOrRestartChange(next AppVersionID) VersionInfo {
	return VersionInfo{LastConfigChangeAt: vi.LastConfigChangeAt, LastScalingAt: next}
}

// ForNewConfig returns the VersionInfo describing an upgrade to next:
// both markers move to next, since a new runnable definition was also
// necessarily (re)launched.
func ForNewConfig(next AppVersionID) VersionInfo {
	return VersionInfo{LastConfigChangeAt: next, LastScalingAt: next}
}

// AppVersionRecord is one historical, versioned configuration of an
// application, as stored (one Entity per version) by the App
// repository.
type AppVersionRecord struct {
	AppID       string
	Version     AppVersionID
	Config      AppConfig
	VersionInfo VersionInfo
}
