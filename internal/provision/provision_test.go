// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/credentials"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/internal/remote/remotetest"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

const host = "203.0.113.7"

func connect(t *testing.T, exec *remotetest.Executor) remote.Session {
	t.Helper()
	s, err := exec.Connect(context.Background(), remote.Target{Host: host, User: "root"})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAsUserRoundTrips(t *testing.T) {
	cmd := `echo "$HOME" && printf '%s' 'it''s'`
	wrapped := AsUser(cmd)
	words, err := shellquote.Split(wrapped)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(words) != 4 || words[0] != "su" || words[2] != User || words[3] != cmd {
		t.Fatalf("unexpected words %q", words)
	}
}

func TestHostWritesSanitizedEnvFile(t *testing.T) {
	exec := remotetest.New()
	s := connect(t, exec)
	creds := model.Credentials{
		AnthropicAPIKey:     security.FromString("sk-ant-api03-abc"),
		WhatsAppPhoneNumber: "+6591234567",
	}
	if err := Apply(context.Background(), s, Host(Options{PublicKey: "ssh-ed25519 AAAA test", Credentials: creds}), nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	f, ok := exec.File(host, EnvFile)
	if !ok {
		t.Fatal("env file not written")
	}
	if f.Mode != 0o600 {
		t.Fatalf("env file mode = %v", f.Mode)
	}
	env := credentials.ParseEnvFile(f.Data)
	if env["ANTHROPIC_API_KEY"] != "sk-ant-api03-abc" || env["WHATSAPP_PHONE_NUMBER"] != "+6591234567" {
		t.Fatalf("env = %v", env)
	}
	if _, present := env["OPENAI_API_KEY"]; !present {
		t.Fatal("empty keys must still be written")
	}
	if !exec.Ran(host, "chown openclaw:openclaw "+EnvFile) {
		t.Fatal("env file not handed to openclaw")
	}
	if keys, _ := exec.File(host, Home+"/.ssh/authorized_keys"); string(keys.Data) != "ssh-ed25519 AAAA test\n" {
		t.Fatalf("authorized_keys = %q", keys.Data)
	}
	if exec.Ran(host, "tailscale") && exec.Ran(host, "apt-get install -y tailscale") {
		t.Fatal("tailscale installed without being requested")
	}
	if !exec.Ran(host, "claude -p") {
		t.Fatal("claude warm-up skipped with an anthropic key present")
	}
}

func TestHostOrderUserBeforeGatewayInstall(t *testing.T) {
	steps := Host(Options{})
	idx := map[string]int{}
	for i, st := range steps {
		if _, seen := idx[st.Phase]; !seen {
			idx[st.Phase] = i
		}
	}
	order := []string{"user", "firewall", "docker", "nodejs", "openclaw"}
	for i := 1; i < len(order); i++ {
		if idx[order[i-1]] >= idx[order[i]] {
			t.Fatalf("phase %s does not precede %s", order[i-1], order[i])
		}
	}
	for _, st := range steps {
		if st.Name == "claude warm-up" {
			t.Fatal("warm-up planned without an anthropic key")
		}
	}
}

func TestTailscaleKeepsAuthKeyOffCommandLine(t *testing.T) {
	exec := remotetest.New()
	s := connect(t, exec)
	o := Options{Tailscale: true, TailscaleAuthKey: security.FromString("tskey-auth-secret")}
	if err := Apply(context.Background(), s, Host(o), nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	for _, c := range exec.Commands(host) {
		if strings.Contains(c, "tskey-auth-secret") {
			t.Fatalf("auth key leaked into command %q", c)
		}
	}
	f, ok := exec.File(host, tailscaleKeyFile)
	if !ok || string(f.Data) != "tskey-auth-secret" || f.Mode != 0o600 {
		t.Fatalf("auth key file = %+v ok=%v", f, ok)
	}
	if !exec.Ran(host, "ufw allow 41641/udp") {
		t.Fatal("tailscale port not opened")
	}
}

func TestApplyStopsAtFailure(t *testing.T) {
	exec := remotetest.New()
	exec.Respond("useradd", remote.Result{ExitCode: 1, Stderr: "useradd: failure"})
	s := connect(t, exec)

	var seen []string
	err := Apply(context.Background(), s, Host(Options{}), func(st Step) { seen = append(seen, st.Name) })
	var ee *apperr.RemoteExecError
	if !errors.As(err, &ee) || ee.ExitCode != 1 {
		t.Fatalf("expected exec error, got %v", err)
	}
	if !strings.Contains(err.Error(), "create system user") {
		t.Fatalf("error does not name the step: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("steps after failure ran: %v", seen)
	}
}

func TestGatewayPlan(t *testing.T) {
	exec := remotetest.New()
	exec.Respond("is-active", remote.Result{Stdout: "active\n"})
	s := connect(t, exec)
	creds := model.Credentials{
		AnthropicAPIKey: security.FromString("sk-ant-api03-abc"),
		GeminiAPIKey:    security.FromString("gem"),
	}
	if err := Apply(context.Background(), s, Gateway(creds), nil); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !exec.Ran(host, "--gemini-api-key") || exec.Ran(host, "--openai-api-key") {
		t.Fatal("onboard flags do not follow the configured keys")
	}
	if !exec.Ran(host, GeminiModel) || exec.Ran(host, OpenAIModel) {
		t.Fatal("failover chain does not follow the configured keys")
	}
	if f, ok := exec.File(host, dropInEnvFile); !ok || !strings.Contains(string(f.Data), "EnvironmentFile=-"+EnvFile) {
		t.Fatalf("drop-in = %+v", f)
	}
	for _, c := range exec.Commands(host) {
		if strings.Contains(c, "sk-ant-api03-abc") {
			t.Fatalf("secret on command line: %q", c)
		}
	}
	if got := FailoverChain(creds); strings.Join(got, ",") != "Anthropic,Gemini" {
		t.Fatalf("chain = %v", got)
	}
}

func TestGatewayNotActive(t *testing.T) {
	exec := remotetest.New()
	exec.Respond("is-active", remote.Result{ExitCode: 3, Stdout: "failed\n"})
	s := connect(t, exec)
	err := Apply(context.Background(), s, Gateway(model.Credentials{}), nil)
	if err == nil || !strings.Contains(err.Error(), "is failed") {
		t.Fatalf("expected inactive unit error, got %v", err)
	}
	if exec.Ran(host, "models set") {
		t.Fatal("failover configured without extra keys")
	}
}

func TestRestoreUploadsAndExtracts(t *testing.T) {
	exec := remotetest.New()
	s := connect(t, exec)
	local := filepath.Join(t.TempDir(), "b.tar.gz")
	if err := os.WriteFile(local, []byte("archive"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Restore(context.Background(), s, local); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if f, ok := exec.File(host, RemoteBackupPath); !ok || string(f.Data) != "archive" {
		t.Fatal("archive not uploaded")
	}
	if !exec.Ran(host, "cp -a /tmp/openclaw/. /root/.openclaw/") {
		t.Fatalf("extract not run: %v", exec.Commands(host))
	}
}

func TestSourceBackupCommand(t *testing.T) {
	cmd := SourceBackupCommand("/tmp/openclaw_migrate_20260101_000000.tar.gz")
	for _, want := range []string{
		"--transform 's,^\\.openclaw,openclaw,'",
		"-C \"$src\"",
		"test -s /tmp/openclaw_migrate_20260101_000000.tar.gz",
		"src=" + Home,
	} {
		if !strings.Contains(cmd, want) {
			t.Errorf("command missing %q:\n%s", want, cmd)
		}
	}
}
