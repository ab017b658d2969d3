// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

const daemonJSON = `{
  "iptables": true,
  "ip-forward": true,
  "userland-proxy": false,
  "live-restore": true,
  "ip6tables": false,
  "log-driver": "json-file",
  "log-opts": {
    "max-size": "10m",
    "max-file": "3"
  },
  "default-address-pools": [
    {
      "base": "172.17.0.0/12",
      "size": 24
    }
  ]
}
`

func dockerSteps() []Step {
	const phase = "docker"
	return []Step{
		root(phase, "config directory", "mkdir -p /etc/docker"),
		file(phase, "daemon config", "/etc/docker/daemon.json", []byte(daemonJSON), 0o644, ""),
		root(phase, "docker group", "usermod -aG docker "+User),
		root(phase, "restart", "systemctl restart docker"),
	}
}
