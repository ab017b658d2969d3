// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package buildvars

import "testing"

func TestVersionOrDefault(t *testing.T) {
	prev, prevCommit := Version, Commit
	defer func() { Version, Commit = prev, prevCommit }()

	Version = ""
	if got := VersionOrDefault("dev"); got != "dev" {
		t.Fatalf("expected default, got %q", got)
	}
	Version = "1.2.3"
	if got := VersionOrDefault("dev"); got != "1.2.3" {
		t.Fatalf("expected injected version, got %q", got)
	}
	Commit = "abc1234"
	if got := Describe("dev"); got != "1.2.3 (abc1234)" {
		t.Fatalf("unexpected describe output %q", got)
	}
}
