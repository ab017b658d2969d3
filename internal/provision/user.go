// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"fmt"
	"strings"
)

const bashrc = `# Enable 256 colors
export TERM=xterm-256color
export COLORTERM=truecolor

export PNPM_HOME="/home/openclaw/.local/share/pnpm"
export PATH="/home/openclaw/.local/bin:$PNPM_HOME:$PATH"

if [ -f "$HOME/.openclaw/.env" ]; then
  set -a
  . "$HOME/.openclaw/.env"
  set +a
fi

export CLICOLOR=1
alias ls='ls --color=auto'
alias grep='grep --color=auto'
alias ll='ls -lah'

export XDG_RUNTIME_DIR=/run/user/$(id -u)
if [ -z "$DBUS_SESSION_BUS_ADDRESS" ]; then
  export DBUS_SESSION_BUS_ADDRESS="unix:path=${XDG_RUNTIME_DIR}/bus"
fi
`

const bashProfile = `if [ -f ~/.bashrc ]; then
    . ~/.bashrc
fi
`

func sudoers() string {
	var b strings.Builder
	b.WriteString("# openclaw: scoped sudo permissions\n")
	for _, verb := range []string{"start", "stop", "restart", "status", "enable", "disable"} {
		fmt.Fprintf(&b, "%s ALL=(ALL) NOPASSWD: /usr/bin/systemctl %s openclaw\n", User, verb)
	}
	fmt.Fprintf(&b, "%s ALL=(ALL) NOPASSWD: /usr/bin/systemctl daemon-reload\n", User)
	for _, sub := range []string{"status", "up *", "down", "ip *", "version", "ping *", "whois *"} {
		fmt.Fprintf(&b, "%s ALL=(ALL) NOPASSWD: /usr/bin/tailscale %s\n", User, sub)
	}
	fmt.Fprintf(&b, "%s ALL=(ALL) NOPASSWD: /usr/bin/journalctl -u openclaw *\n", User)
	return b.String()
}

func userSteps(publicKey string) []Step {
	const phase = "user"
	const sudoersTmp = "/root/.clawmacdo_sudoers"
	return []Step{
		root(phase, "create system user", fmt.Sprintf(
			"id -u %[1]s >/dev/null 2>&1 || useradd --system --create-home --home-dir %[2]s --shell /bin/bash %[1]s", User, Home)),
		root(phase, "home ownership", fmt.Sprintf("chown %s %s && chmod 755 %s", owned(), Home, Home)),
		file(phase, "bashrc", Home+"/.bashrc", []byte(bashrc), 0o644, owned()),
		file(phase, "bash profile", Home+"/.bash_profile", []byte(bashProfile), 0o644, owned()),
		file(phase, "sudoers draft", sudoersTmp, []byte(sudoers()), 0o440, ""),
		root(phase, "sudoers", fmt.Sprintf(
			"visudo -cf %[1]s && install -m 440 -o root -g root %[1]s /etc/sudoers.d/%[2]s; rc=$?; rm -f %[1]s; exit $rc", sudoersTmp, User)),
		root(phase, "ssh directory", fmt.Sprintf("mkdir -p %[1]s/.ssh && chmod 700 %[1]s/.ssh && chown %[2]s %[1]s/.ssh", Home, owned())),
		file(phase, "authorized keys", Home+"/.ssh/authorized_keys", []byte(strings.TrimSpace(publicKey)+"\n"), 0o600, owned()),
		root(phase, "enable linger", "loginctl enable-linger "+User),
		root(phase, "runtime directory", fmt.Sprintf(
			"uid=$(id -u %[1]s) && mkdir -p /run/user/$uid && chown %[2]s /run/user/$uid && chmod 700 /run/user/$uid", User, owned())),
		root(phase, "move restored config", RelocateRestored),
	}
}
