// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package buildvars contains variables injected at build time.
package buildvars

// Version is set at link time via
// `-ldflags -X github.com/clawmacdo/clawmacdo/buildvars.Version=...`.
// It is empty for local builds.
var Version string

// Commit is the short git SHA of the build, if known.
var Commit string

// VersionOrDefault returns Version if set, otherwise def.
func VersionOrDefault(def string) string {
	if len(Version) > 0 {
		return Version
	}
	return def
}

// Describe renders the version line printed by `clawmacdo --version`.
func Describe(def string) string {
	v := VersionOrDefault(def)
	if Commit != "" {
		return v + " (" + Commit + ")"
	}
	return v
}
