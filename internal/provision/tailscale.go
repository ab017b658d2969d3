// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"fmt"

	"github.com/clawmacdo/clawmacdo/internal/security"
)

var tailscaleUFW = fmt.Sprintf("ufw allow %d/udp comment 'Tailscale'", TailscalePort)

const tailscaleRepo = `curl -fsSL https://pkgs.tailscale.com/stable/ubuntu/noble.noarmor.gpg | tee /usr/share/keyrings/tailscale-archive-keyring.gpg >/dev/null && ` +
	`curl -fsSL https://pkgs.tailscale.com/stable/ubuntu/noble.tailscale-keyring.list | tee /etc/apt/sources.list.d/tailscale.list >/dev/null`

// tailscaleKeyFile holds the auth key only for the duration of "tailscale up",
// keeping it off the command line.
const tailscaleKeyFile = "/root/.clawmacdo_tailscale_key"

func tailscaleSteps(authKey security.Secret) []Step {
	const phase = "tailscale"
	steps := []Step{
		root(phase, "repository", tailscaleRepo),
		root(phase, "install", "apt-get update && apt-get install -y tailscale"),
		root(phase, "service", "systemctl enable tailscaled && systemctl start tailscaled"),
		root(phase, "firewall", tailscaleUFW),
	}
	if authKey.IsEmpty() {
		return steps
	}
	return append(steps,
		file(phase, "auth key", tailscaleKeyFile, []byte(authKey.Reveal()), 0o600, ""),
		root(phase, "up", fmt.Sprintf(
			"tailscale up --auth-key=file:%[1]s; rc=$?; rm -f %[1]s; exit $rc", tailscaleKeyFile)),
	)
}
