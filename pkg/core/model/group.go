// Copyright (c) 2026 The Fleetkeep Authors
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

// RootGroupID is the id of the single top-level hierarchical
// container of application definitions.
const RootGroupID = "group:root"

// Group is the top-level container of application definitions. It
// records, for every application id presently referenced by the
// group, the AppVersionID which is the group's "live" pointer into
// that application's version history.
type Group struct {
	ID             string
	AppLiveVersion map[string]AppVersionID
}

// HasApp reports whether id is one of the applications currently
// referenced by g.
func (g *Group) HasApp(id string) bool {
	if g == nil {
		return false
	}
	_, ok := g.AppLiveVersion[id]
	return ok
}

// AppIDs returns the ids of every application g references, in no
// particular order.
func (g *Group) AppIDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, 0, len(g.AppLiveVersion))
	for id := range g.AppLiveVersion {
		ids = append(ids, id)
	}
	return ids
}
