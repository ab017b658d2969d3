// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

// TailscalePort is the UDP port tailscale uses for direct connections.
const TailscalePort = 41641

const jailLocal = `[DEFAULT]
bantime = 3600
findtime = 600
maxretry = 5
backend = systemd

[sshd]
enabled = true
port = ssh
filter = sshd
`

const autoUpgrades = `APT::Periodic::Update-Package-Lists "1";
APT::Periodic::Unattended-Upgrade "1";
APT::Periodic::AutocleanInterval "7";
`

const unattendedUpgrades = `Unattended-Upgrade::Allowed-Origins {
    "${distro_id}:${distro_codename}-security";
    "${distro_id}ESMApps:${distro_codename}-apps-security";
    "${distro_id}ESM:${distro_codename}-infra-security";
};
Unattended-Upgrade::Package-Blacklist {
};
Unattended-Upgrade::AutoFixInterruptedDpkg "true";
Unattended-Upgrade::MinimalSteps "true";
Unattended-Upgrade::Remove-Unused-Dependencies "true";
Unattended-Upgrade::Automatic-Reboot "false";
`

// dockerUserRules inserts a DOCKER-USER chain before the first COMMIT of
// ufw's after.rules so published container ports stay unreachable from the
// public interface. Running it twice is a no-op.
const dockerUserRules = `DEFAULT_IF=$(ip route | awk '/default/ {print $5; exit}')
if [ -z "$DEFAULT_IF" ]; then
  echo "could not detect default network interface" >&2
  exit 1
fi
grep -q 'DOCKER-USER' /etc/ufw/after.rules && exit 0
awk -v default_if="$DEFAULT_IF" '
/^COMMIT$/ && !inserted {
  print ":DOCKER-USER - [0:0]"
  print "-A DOCKER-USER -m conntrack --ctstate RELATED,ESTABLISHED -j ACCEPT"
  print "-A DOCKER-USER -i lo -j ACCEPT"
  print "-A DOCKER-USER -i " default_if " -j DROP"
  inserted=1
}
{ print }
END { if (!inserted) { print "no COMMIT in /etc/ufw/after.rules" > "/dev/stderr"; exit 1 } }
' /etc/ufw/after.rules > /etc/ufw/after.rules.tmp && mv /etc/ufw/after.rules.tmp /etc/ufw/after.rules`

func firewallSteps(tailscale bool) []Step {
	const phase = "firewall"
	steps := []Step{
		file(phase, "fail2ban jail", "/etc/fail2ban/jail.local", []byte(jailLocal), 0o644, ""),
		root(phase, "fail2ban restart", "systemctl restart fail2ban && systemctl enable fail2ban"),
		file(phase, "auto upgrades", "/etc/apt/apt.conf.d/20auto-upgrades", []byte(autoUpgrades), 0o644, ""),
		file(phase, "unattended upgrades", "/etc/apt/apt.conf.d/50unattended-upgrades", []byte(unattendedUpgrades), 0o644, ""),
		root(phase, "deny routed", "ufw default deny routed"),
	}
	if tailscale {
		steps = append(steps, root(phase, "tailscale port", tailscaleUFW))
	}
	return append(steps,
		root(phase, "docker isolation", dockerUserRules),
		root(phase, "reload", "ufw reload"),
	)
}
