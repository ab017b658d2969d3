// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package cloudinit renders the #cloud-config user data handed to new
// droplets. The rendered document installs base packages, opens the
// firewall for SSH and the gateway, installs a health-check cron job and a
// logrotate policy, and touches Sentinel as its very last command. The
// deploy workflow only relies on that sentinel.
package cloudinit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clawmacdo/clawmacdo/internal/model"
)

// Sentinel is the file whose presence marks the end of first-boot provisioning.
const Sentinel = "/root/.clawmacdo_cloud_init_done"

// ReadinessCheck prints "done" once Sentinel exists.
func ReadinessCheck(sentinel string) string {
	return fmt.Sprintf("test -f %s && echo done", sentinel)
}

const (
	healthCheckScript = "/usr/local/bin/openclaw-healthcheck"
	healthCheckCron   = "/etc/cron.d/openclaw-healthcheck"
	logRotatePolicy   = "/etc/logrotate.d/openclaw"
)

// FirewallRule opens one inbound port.
type FirewallRule struct {
	Port    int
	Proto   string // tcp or udp
	Comment string
}

func (r FirewallRule) command() string {
	cmd := fmt.Sprintf("ufw allow %d/%s", r.Port, r.Proto)
	if r.Comment != "" {
		cmd += fmt.Sprintf(" comment '%s'", r.Comment)
	}
	return cmd
}

// LogRotate describes the rotation policy for gateway logs.
type LogRotate struct {
	Paths    []string
	Schedule string // daily, weekly or monthly
	Keep     int
}

// Config enumerates everything the rendered document does.
type Config struct {
	PackageUpgrade      bool
	Packages            []string
	FirewallRules       []FirewallRule
	RunCommands         []string
	HealthCheckInterval time.Duration
	HealthCheckURL      string
	LogRotate           LogRotate
	Sentinel            string
}

// Default is the configuration used for every deploy.
func Default() Config {
	return Config{
		PackageUpgrade: true,
		Packages: []string{
			"curl", "gnupg", "ufw", "git", "build-essential",
			"docker.io", "fail2ban", "unattended-upgrades",
		},
		FirewallRules: []FirewallRule{
			{Port: 22, Proto: "tcp"},
			{Port: model.GatewayPort, Proto: "tcp"},
		},
		RunCommands: []string{
			"curl -fsSL https://deb.nodesource.com/setup_24.x | bash -",
			"apt-get install -y nodejs",
			"corepack enable",
			"systemctl enable --now docker",
		},
		HealthCheckInterval: 5 * time.Minute,
		HealthCheckURL:      fmt.Sprintf("http://127.0.0.1:%d/", model.GatewayPort),
		LogRotate: LogRotate{
			Paths:    []string{"/home/openclaw/.openclaw/logs/*.log"},
			Schedule: "daily",
			Keep:     7,
		},
		Sentinel: Sentinel,
	}
}

type writeFile struct {
	Path        string `yaml:"path"`
	Permissions string `yaml:"permissions"`
	Owner       string `yaml:"owner"`
	Content     string `yaml:"content"`
}

type document struct {
	PackageUpdate  bool        `yaml:"package_update"`
	PackageUpgrade bool        `yaml:"package_upgrade"`
	Packages       []string    `yaml:"packages,omitempty"`
	WriteFiles     []writeFile `yaml:"write_files,omitempty"`
	RunCmd         []string    `yaml:"runcmd"`
}

// Render produces the user data for c.
func Render(c Config) (string, error) {
	if c.Sentinel == "" {
		return "", errors.New("cloud-init: sentinel path is required")
	}
	doc := document{
		PackageUpdate:  true,
		PackageUpgrade: c.PackageUpgrade,
		Packages:       c.Packages,
	}

	doc.RunCmd = append(doc.RunCmd, "ufw default deny incoming", "ufw default allow outgoing")
	for _, r := range c.FirewallRules {
		if r.Port <= 0 || r.Port > 65535 || (r.Proto != "tcp" && r.Proto != "udp") {
			return "", fmt.Errorf("cloud-init: invalid firewall rule %d/%s", r.Port, r.Proto)
		}
		doc.RunCmd = append(doc.RunCmd, r.command())
	}
	doc.RunCmd = append(doc.RunCmd, "ufw --force enable")
	doc.RunCmd = append(doc.RunCmd, c.RunCommands...)

	if c.HealthCheckInterval > 0 {
		minutes := int(c.HealthCheckInterval / time.Minute)
		if minutes < 1 {
			minutes = 1
		}
		doc.WriteFiles = append(doc.WriteFiles,
			writeFile{Path: healthCheckScript, Permissions: "0755", Owner: "root:root", Content: healthCheck(c.HealthCheckURL)},
			writeFile{Path: healthCheckCron, Permissions: "0644", Owner: "root:root",
				Content: fmt.Sprintf("*/%d * * * * root %s\n", minutes, healthCheckScript)},
		)
	}
	if len(c.LogRotate.Paths) > 0 {
		doc.WriteFiles = append(doc.WriteFiles,
			writeFile{Path: logRotatePolicy, Permissions: "0644", Owner: "root:root", Content: logRotate(c.LogRotate)})
	}

	doc.RunCmd = append(doc.RunCmd, "touch "+c.Sentinel)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("cloud-init: %w", err)
	}
	return "#cloud-config\n" + string(out), nil
}

func healthCheck(url string) string {
	return fmt.Sprintf(`#!/bin/sh
if curl -fsS -m 5 -o /dev/null %s; then
  exit 0
fi
uid=$(id -u openclaw 2>/dev/null) || exit 0
logger -t openclaw-healthcheck "gateway health check failed, restarting"
su - openclaw -c "XDG_RUNTIME_DIR=/run/user/$uid systemctl --user restart openclaw-gateway.service" >/dev/null 2>&1 || true
`, url)
}

func logRotate(l LogRotate) string {
	schedule := l.Schedule
	if schedule == "" {
		schedule = "daily"
	}
	keep := l.Keep
	if keep <= 0 {
		keep = 7
	}
	var b strings.Builder
	b.WriteString(strings.Join(l.Paths, " "))
	b.WriteString(" {\n")
	fmt.Fprintf(&b, "  %s\n  rotate %d\n", schedule, keep)
	b.WriteString("  compress\n  delaycompress\n  missingok\n  notifempty\n  copytruncate\n}\n")
	return b.String()
}
