// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"strings"
	"testing"
)

func TestNamingConventionRoundTrip(t *testing.T) {
	id := NewDeployID()
	host := DefaultHostname(id)
	if !strings.HasPrefix(host, "openclaw-") || len(host) != len("openclaw-")+8 {
		t.Fatalf("unexpected hostname %q", host)
	}
	suffix := ShortID(id)
	if got := ProviderKeyName(host); got != "clawmacdo-"+suffix {
		t.Fatalf("provider key name = %q", got)
	}
	if got := KeyFileName(host); got != "clawmacdo_"+suffix {
		t.Fatalf("key file name = %q", got)
	}
	if got := ProviderKeyName("custom-box"); got != "clawmacdo-custom-box" {
		t.Fatalf("custom hostname key name = %q", got)
	}
}

func TestStageOrderAndNames(t *testing.T) {
	stages := DeployStages()
	if stages[0] != StageInit || stages[len(stages)-1] != StageRecordPersisted {
		t.Fatalf("unexpected stage bounds: %v", stages)
	}
	for i := 1; i < len(stages); i++ {
		if stages[i] <= stages[i-1] {
			t.Fatalf("stages out of order at %d: %v", i, stages)
		}
	}
	if StageSSHReady.String() != "SshReady" || Stage(99).String() != "Unknown" {
		t.Fatalf("unexpected stage names")
	}
}

func TestDropletHelpers(t *testing.T) {
	d := Droplet{Status: "active", Tags: []string{"x", DropletTag}}
	if !d.Active() || !d.HasTag(DropletTag) || d.HasTag("other") {
		t.Fatalf("droplet helpers wrong: %+v", d)
	}
	r := DeployRecord{SSHKeyPath: "/k", IPAddress: "1.2.3.4"}
	if r.SSHCommand() != "ssh -i /k root@1.2.3.4" {
		t.Fatalf("ssh command = %q", r.SSHCommand())
	}
	if !strings.Contains(r.TunnelCommand(), "18789:127.0.0.1:18789") {
		t.Fatalf("tunnel command = %q", r.TunnelCommand())
	}
}
