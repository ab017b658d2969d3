// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cloudinit

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func parse(t *testing.T, out string) document {
	t.Helper()
	if !strings.HasPrefix(out, "#cloud-config\n") {
		t.Fatalf("missing #cloud-config header: %q", out[:20])
	}
	var doc document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("rendered document is not yaml: %v", err)
	}
	return doc
}

func TestRenderDefault(t *testing.T) {
	out, err := Render(Default())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := parse(t, out)

	if last := doc.RunCmd[len(doc.RunCmd)-1]; last != "touch "+Sentinel {
		t.Fatalf("last runcmd = %q, want sentinel touch", last)
	}
	for _, want := range []string{"ufw allow 22/tcp", "ufw allow 18789/tcp", "ufw --force enable", "corepack enable"} {
		found := false
		for _, c := range doc.RunCmd {
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("runcmd missing %q", want)
		}
	}
	if !doc.PackageUpdate || len(doc.Packages) == 0 {
		t.Fatalf("packages not configured: %+v", doc)
	}

	files := map[string]string{}
	for _, f := range doc.WriteFiles {
		files[f.Path] = f.Content
	}
	if got := files[healthCheckCron]; got != "*/5 * * * * root "+healthCheckScript+"\n" {
		t.Fatalf("cron entry = %q", got)
	}
	if !strings.Contains(files[healthCheckScript], "http://127.0.0.1:18789/") {
		t.Fatalf("health check does not check the gateway: %q", files[healthCheckScript])
	}
	if !strings.Contains(files[logRotatePolicy], "rotate 7") {
		t.Fatalf("logrotate policy = %q", files[logRotatePolicy])
	}
}

func TestRenderOptionalSections(t *testing.T) {
	c := Default()
	c.HealthCheckInterval = 0
	c.LogRotate.Paths = nil
	c.FirewallRules = append(c.FirewallRules, FirewallRule{Port: 41641, Proto: "udp", Comment: "Tailscale"})
	out, err := Render(c)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := parse(t, out)
	if len(doc.WriteFiles) != 0 {
		t.Fatalf("expected no files, got %d", len(doc.WriteFiles))
	}
	if got := doc.RunCmd[4]; got != "ufw allow 41641/udp comment 'Tailscale'" {
		t.Fatalf("udp rule = %q", got)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	c := Default()
	c.Sentinel = ""
	if _, err := Render(c); err == nil {
		t.Fatal("expected error without sentinel")
	}
	c = Default()
	c.FirewallRules = []FirewallRule{{Port: 0, Proto: "tcp"}}
	if _, err := Render(c); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestHealthCheckIntervalRoundsUp(t *testing.T) {
	c := Default()
	c.HealthCheckInterval = 20 * time.Second
	out, err := Render(c)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "*/1 * * * *") {
		t.Fatalf("sub-minute interval not clamped:\n%s", out)
	}
}

func TestReadinessCheck(t *testing.T) {
	if got := ReadinessCheck(Sentinel); got != "test -f /root/.clawmacdo_cloud_init_done && echo done" {
		t.Fatalf("check = %q", got)
	}
}
