// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"fmt"
	"strings"
)

// userEnv is prefixed to commands that need the openclaw user's pnpm setup.
const userEnv = "PNPM_HOME=" + Home + "/.local/share/pnpm " +
	"PATH=" + Home + "/.local/bin:" + Home + "/.local/share/pnpm:/usr/local/bin:/usr/bin:/bin " +
	"HOME=" + Home + " "

// AgentCLIs are installed globally for the openclaw user.
var AgentCLIs = []string{"@anthropic-ai/claude-code", "@openai/codex", "@google/gemini-cli"}

func nodeSteps() []Step {
	const phase = "nodejs"
	return []Step{
		root(phase, "pnpm directories", fmt.Sprintf(
			"mkdir -p %[1]s/.local/share/pnpm/store %[1]s/.local/bin && chown -R %[2]s %[1]s/.local", Home, owned())),
		asUser(phase, "pnpm config", fmt.Sprintf(
			"pnpm config set global-dir %[1]s/.local/share/pnpm && pnpm config set global-bin-dir %[1]s/.local/bin", Home)),
		asUser(phase, "agent CLIs", userEnv+"pnpm install -g "+strings.Join(AgentCLIs, " ")),
		asUser(phase, "verify agent CLIs", userEnv+"claude --version && codex --version && gemini --version"),
	}
}
