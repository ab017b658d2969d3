// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"fmt"

	"github.com/clawmacdo/clawmacdo/internal/credentials"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

const apiKeyHelper = `#!/usr/bin/env bash
if [ -f "$HOME/.openclaw/.env" ]; then
  set -a
  . "$HOME/.openclaw/.env"
  set +a
fi
printf '%s' "${ANTHROPIC_API_KEY:-}"
`

var claudeSettings = fmt.Sprintf(`{
  "apiKeyHelper": "%s/.claude/api-key-helper.sh",
  "forceLoginMethod": "console"
}
`, Home)

// normalizeExtensions replaces hard-linked files under extensions/ with
// copies; the gateway refuses to load hard links.
const normalizeExtensions = `if [ -d ` + ConfigDir + `/extensions ]; then
  find ` + ConfigDir + `/extensions -type f -links +1 -exec sh -c 'for f do cp -p "$f" "$f.__clawmacdo_tmp" && mv -f "$f.__clawmacdo_tmp" "$f"; done' sh {} +
fi`

func openclawSteps(c model.Credentials) []Step {
	const phase = "openclaw"
	steps := []Step{
		root(phase, "config directories", fmt.Sprintf(
			"mkdir -p %[1]s/sessions %[1]s/credentials %[1]s/data %[1]s/logs %[1]s/agents/main/agent %[1]s/workspace && "+
				"chmod 700 %[1]s %[1]s/credentials %[1]s/agents/main/agent && chown -R %[2]s %[1]s", ConfigDir, owned())),
		file(phase, "environment file", EnvFile, credentials.RenderEnvFile(c), 0o600, owned()),
		root(phase, "claude directory", fmt.Sprintf("mkdir -p %[1]s/.claude && chmod 700 %[1]s/.claude", Home)),
		file(phase, "api key helper", Home+"/.claude/api-key-helper.sh", []byte(apiKeyHelper), 0o700, ""),
		file(phase, "claude settings", Home+"/.claude/settings.json", []byte(claudeSettings), 0o600, ""),
		root(phase, "claude ownership", fmt.Sprintf("chown -R %s %s/.claude", owned(), Home)),
		root(phase, "normalize extensions", normalizeExtensions+fmt.Sprintf(" && chown -R %[1]s %[2]s && chmod 700 %[2]s", owned(), ConfigDir)),
		asUser(phase, "install", userEnv+"pnpm install -g openclaw@latest"),
		asUser(phase, "verify", userEnv+"openclaw --version"),
	}
	if !c.AnthropicAPIKey.IsEmpty() {
		steps = append(steps, asUser(phase, "claude warm-up",
			userEnv+`claude -p "health check" --output-format text --max-turns 1 >/dev/null`))
	}
	return steps
}
