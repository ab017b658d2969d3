// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the data types shared by the deploy, migrate and
// destroy workflows.
package model

import (
	"fmt"
	"time"

	"github.com/clawmacdo/clawmacdo/internal/security"
)

// DropletTag marks every droplet this tool manages. Listing and destroy
// never look at droplets without it.
const DropletTag = "openclaw"

// GatewayPort is the fixed port the gateway listens on.
const GatewayPort = 18789

// DeployRecord describes one completed deploy. It is written once, after
// the gateway is confirmed running, and never modified.
type DeployRecord struct {
	ID                string    `json:"id"`
	DropletID         int       `json:"droplet_id"`
	Hostname          string    `json:"hostname"`
	IPAddress         string    `json:"ip_address"`
	Region            string    `json:"region"`
	Size              string    `json:"size"`
	SSHKeyPath        string    `json:"ssh_key_path"`
	SSHKeyFingerprint string    `json:"ssh_key_fingerprint"`
	BackupRestored    string    `json:"backup_restored,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// SSHCommand is the command a user runs to reach the deployed host.
func (r DeployRecord) SSHCommand() string {
	return fmt.Sprintf("ssh -i %s root@%s", r.SSHKeyPath, r.IPAddress)
}

// TunnelCommand forwards the loopback-bound gateway port to the local machine.
func (r DeployRecord) TunnelCommand() string {
	return fmt.Sprintf("ssh -i %s -N -L %d:127.0.0.1:%d root@%s", r.SSHKeyPath, GatewayPort, GatewayPort, r.IPAddress)
}

// BackupArchive is a tar.gz snapshot of a gateway configuration directory.
type BackupArchive struct {
	Path      string
	CreatedAt time.Time
	Size      int64
	Files     int
}

// Droplet is the provider-side VM as seen by this tool.
type Droplet struct {
	ID       int
	Name     string
	PublicIP string
	Status   string
	Region   string
	Size     string
	Tags     []string
}

// Active reports whether the provider considers the droplet running.
func (d Droplet) Active() bool { return d.Status == "active" }

// HasTag reports whether tag is in the droplet's tag set.
func (d Droplet) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SSHKey is a public key registered with the provider.
type SSHKey struct {
	ID          int
	Name        string
	Fingerprint string
	PublicKey   string
}

// KeyPair points at a locally generated key pair.
type KeyPair struct {
	PrivateKeyPath string
	PublicKeyPath  string
	PublicKey      string // authorized_keys line
	Fingerprint    string
}

// Credentials are the secrets and messaging identifiers handed to the gateway.
type Credentials struct {
	AnthropicAPIKey     security.Secret
	OpenAIAPIKey        security.Secret
	GeminiAPIKey        security.Secret
	WhatsAppPhoneNumber string
	TelegramBotToken    security.Secret
}

// DropletSpec is what the orchestrator asks the provider to create.
type DropletSpec struct {
	Name          string
	Region        string
	Size          string
	Image         string
	SSHKeyID      int
	UserData      string
	Tags          []string
	EnableBackups bool
}
