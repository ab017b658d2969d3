// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Defaults for a new droplet.
const (
	DefaultRegion = "sgp1"
	DefaultSize   = "s-2vcpu-4gb"
	DefaultImage  = "ubuntu-24-04-x64"
)

// Config is the persisted, non-secret configuration plus the secrets
// resolved from flags and environment for one run.
type Config struct {
	Region    string `mapstructure:"region" yaml:"region"`
	Size      string `mapstructure:"size" yaml:"size"`
	Image     string `mapstructure:"image" yaml:"image"`
	Language  string `mapstructure:"language" yaml:"language"`
	Home      string `mapstructure:"home" yaml:"home"`
	SourceDir string `mapstructure:"source-dir" yaml:"source-dir"`
	Verbose   bool   `mapstructure:"verbose" yaml:"-"`

	Database Database `mapstructure:"database" yaml:"database"`
	Timeouts Timeouts `mapstructure:"timeouts" yaml:"timeouts"`

	Secrets Secrets `mapstructure:",squash" yaml:"-"`
}

// Database selects the audit history store.
type Database struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// Secrets are never written to the config file.
type Secrets struct {
	DOToken          string `mapstructure:"do-token"`
	AnthropicKey     string `mapstructure:"anthropic-key"`
	OpenAIKey        string `mapstructure:"openai-key"`
	GeminiKey        string `mapstructure:"gemini-key"`
	WhatsAppPhone    string `mapstructure:"whatsapp-phone"`
	TelegramBotToken string `mapstructure:"telegram-bot-token"`
	TailscaleAuthKey string `mapstructure:"tailscale-auth-key"`
}

// Timeouts bound the waits of a deploy.
type Timeouts struct {
	DropletActive time.Duration `mapstructure:"droplet-active" yaml:"droplet-active"`
	SSHReady      time.Duration `mapstructure:"ssh-ready" yaml:"ssh-ready"`
	Provisioning  time.Duration `mapstructure:"provisioning" yaml:"provisioning"`
	SourceConnect time.Duration `mapstructure:"source-connect" yaml:"source-connect"`
	PollInterval  time.Duration `mapstructure:"poll-interval" yaml:"poll-interval"`
}

// DefaultTimeouts are used for any zero field.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		DropletActive: 5 * time.Minute,
		SSHReady:      2 * time.Minute,
		Provisioning:  10 * time.Minute,
		SourceConnect: time.Minute,
		PollInterval:  5 * time.Second,
	}
}

// WithDefaults fills zero or negative fields from DefaultTimeouts.
func (t Timeouts) WithDefaults() Timeouts {
	d := DefaultTimeouts()
	fill := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&t.DropletActive, d.DropletActive)
	fill(&t.SSHReady, d.SSHReady)
	fill(&t.Provisioning, d.Provisioning)
	fill(&t.SourceConnect, d.SourceConnect)
	fill(&t.PollInterval, d.PollInterval)
	return t
}

// Defaults returns the viper defaults for Config.
func Defaults() map[string]any {
	t := DefaultTimeouts()
	return map[string]any{
		"region":                  DefaultRegion,
		"size":                    DefaultSize,
		"image":                   DefaultImage,
		"language":                "en",
		"home":                    "~/.clawmacdo",
		"source-dir":              "~/.openclaw",
		"database.type":           "sqlite",
		"database.dsn":            "",
		"timeouts.droplet-active": t.DropletActive,
		"timeouts.ssh-ready":      t.SSHReady,
		"timeouts.provisioning":   t.Provisioning,
		"timeouts.source-connect": t.SourceConnect,
		"timeouts.poll-interval":  t.PollInterval,
	}
}

// Paths are the resolved local directories. Components receive them
// through their constructors.
type Paths struct {
	Home    string
	Backups string
	Keys    string
	Deploys string
	// SourceDir is the local gateway configuration directory.
	SourceDir string
	// LaunchAgentPlist is the macOS gateway LaunchAgent; empty elsewhere.
	LaunchAgentPlist string
}

// ResolvePaths expands ~ in the configured directories.
func ResolvePaths(c Config) (Paths, error) {
	home, err := expandHome(valueOr(c.Home, "~/.clawmacdo"))
	if err != nil {
		return Paths{}, err
	}
	src, err := expandHome(valueOr(c.SourceDir, "~/.openclaw"))
	if err != nil {
		return Paths{}, err
	}
	p := Paths{
		Home:      home,
		Backups:   filepath.Join(home, "backups"),
		Keys:      filepath.Join(home, "keys"),
		Deploys:   filepath.Join(home, "deploys"),
		SourceDir: src,
	}
	if runtime.GOOS == "darwin" {
		if plist, err := expandHome("~/Library/LaunchAgents/ai.openclaw.gateway.plist"); err == nil {
			p.LaunchAgentPlist = plist
		}
	}
	return p, nil
}

// HistoryDSN is the sqlite file used when no database DSN is configured.
func (p Paths) HistoryDSN() string {
	return "file:" + filepath.Join(p.Home, "history.db")
}

// Ensure creates the directories this tool owns.
func (p Paths) Ensure() error {
	for _, d := range []string{p.Home, p.Backups, p.Keys, p.Deploys} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return filepath.Clean(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

func valueOr(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
