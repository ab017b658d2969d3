// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/remote"
)

// GatewayUnit is the systemd user unit the gateway runs as.
const GatewayUnit = "openclaw-gateway.service"

// Failover models, primary first.
const (
	PrimaryModel  = "anthropic/claude-opus-4-6"
	OpenAIModel   = "openai/gpt-5-mini"
	GeminiModel   = "google/gemini-2.5-flash"
	dropInDir     = Home + "/.config/systemd/user/" + GatewayUnit + ".d"
	dropInEnvFile = dropInDir + "/10-env.conf"
)

// servicePrelude gives the openclaw user a PATH with pnpm binaries, a
// session bus for systemctl --user and the variables from the env file.
const servicePrelude = `export PATH="` + Home + `/.local/bin:` + Home + `/.local/share/pnpm:/usr/local/bin:$PATH" ` +
	`XDG_RUNTIME_DIR=/run/user/$(id -u) DBUS_SESSION_BUS_ADDRESS=unix:path=/run/user/$(id -u)/bus; ` +
	`if [ -f ` + EnvFile + ` ]; then set -a; . ` + EnvFile + `; set +a; fi; `

const telegramChannel = `node -e 'const fs=require("fs");const p=process.env.HOME+"/.openclaw/openclaw.json";` +
	`if(!fs.existsSync(p))process.exit(0);const c=JSON.parse(fs.readFileSync(p,"utf8"));` +
	`c.channels=c.channels||{};c.channels.telegram=c.channels.telegram||{};c.channels.telegram.botToken=process.env.TELEGRAM_BOT_TOKEN;` +
	`fs.writeFileSync(p,JSON.stringify(c,null,2)+"\n");'`

func onboardCommand(c model.Credentials) string {
	args := []string{
		"openclaw onboard --non-interactive --mode local --auth-choice apiKey",
		`--anthropic-api-key "$ANTHROPIC_API_KEY"`,
	}
	if !c.OpenAIAPIKey.IsEmpty() {
		args = append(args, `--openai-api-key "$OPENAI_API_KEY"`)
	}
	if !c.GeminiAPIKey.IsEmpty() {
		args = append(args, `--gemini-api-key "$GEMINI_API_KEY"`)
	}
	args = append(args, fmt.Sprintf(
		"--secret-input-mode plaintext --gateway-port %d --gateway-bind loopback --install-daemon --daemon-runtime node --skip-skills --accept-risk",
		model.GatewayPort))
	onboard := strings.Join(args, " ")
	daemon := fmt.Sprintf("openclaw daemon install --port %d --runtime node --force", model.GatewayPort)
	return fmt.Sprintf("(%s >/dev/null 2>&1 || %s >/dev/null 2>&1)", onboard, daemon)
}

// FailoverChain names the providers the gateway falls back through.
func FailoverChain(c model.Credentials) []string {
	chain := []string{"Anthropic"}
	if !c.OpenAIAPIKey.IsEmpty() {
		chain = append(chain, "OpenAI")
	}
	if !c.GeminiAPIKey.IsEmpty() {
		chain = append(chain, "Gemini")
	}
	return chain
}

func failoverCommand(c model.Credentials) string {
	cmd := servicePrelude + "openclaw models set " + PrimaryModel + " >/dev/null 2>&1 || true;"
	if !c.OpenAIAPIKey.IsEmpty() {
		cmd += " openclaw models fallbacks add " + OpenAIModel + " >/dev/null 2>&1 || true;"
	}
	if !c.GeminiAPIKey.IsEmpty() {
		cmd += " openclaw models fallbacks add " + GeminiModel + " >/dev/null 2>&1 || true;"
	}
	return cmd + " echo ok"
}

// Gateway is the plan run while entering GatewayStarted. It ends with a
// check that the user unit is active.
func Gateway(c model.Credentials) []Step {
	const phase = "gateway"
	steps := []Step{
		asUser(phase, "onboard", servicePrelude+onboardCommand(c)),
	}
	if !c.TelegramBotToken.IsEmpty() {
		steps = append(steps, asUser(phase, "telegram channel", servicePrelude+telegramChannel))
	}
	steps = append(steps,
		root(phase, "unit drop-in directory", fmt.Sprintf("mkdir -p %s && chown -R %s %s/.config", dropInDir, owned(), Home)),
		file(phase, "unit environment", dropInEnvFile, []byte("[Service]\nEnvironmentFile=-"+EnvFile+"\n"), 0o644, owned()),
		asUser(phase, "enable", servicePrelude+"systemctl --user daemon-reload && systemctl --user enable --now "+GatewayUnit),
		Step{Phase: phase, Name: "is-active", run: checkActive},
	)
	if len(FailoverChain(c)) > 1 {
		steps = append(steps, asUser(phase, "model failover", failoverCommand(c)))
	}
	return steps
}

func checkActive(ctx context.Context, s remote.Session) error {
	res, err := s.Exec(ctx, AsUser(servicePrelude+"systemctl --user is-active "+GatewayUnit))
	if err != nil {
		return err
	}
	if state := strings.TrimSpace(res.Stdout); !res.OK() || state != "active" {
		if state == "" {
			state = "unknown"
		}
		return fmt.Errorf("%s is %s: %s", GatewayUnit, state, strings.TrimSpace(res.Stderr))
	}
	return nil
}
