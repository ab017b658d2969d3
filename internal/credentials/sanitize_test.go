// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package credentials

import (
	"errors"
	"strings"
	"testing"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		in        string
		want      string
		wantWarns int
	}{
		{"api key", "sk-ant-api03-AAAA", "sk-ant-api03-AAAA", 0},
		{"api key bare prefix", "sk-ant-api", "sk-ant-api", 0},
		{"session token", "sk-ant-oat01-BBBB", "", 1},
		{"session token bare prefix", "sk-ant-oat", "", 1},
		{"empty", "", "", 0},
		{"unknown shape", "something-else", "something-else", 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, warns := Classify("ANTHROPIC_API_KEY", security.FromString(c.in))
			if got.Reveal() != c.want {
				t.Fatalf("value = %q, want %q", got.Reveal(), c.want)
			}
			if len(warns) != c.wantWarns {
				t.Fatalf("warnings = %d, want %d", len(warns), c.wantWarns)
			}
		})
	}
}

func TestSanitizeOnlyTouchesPrimaryKey(t *testing.T) {
	in := model.Credentials{
		AnthropicAPIKey:     security.FromString("sk-ant-oat01-zzz"),
		OpenAIAPIKey:        security.FromString("sk-proj-1"),
		WhatsAppPhoneNumber: "+6512345678",
	}
	out, warns, err := Sanitize(in)
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if len(warns) != 1 || warns[0].Field != "ANTHROPIC_API_KEY" {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if !out.AnthropicAPIKey.IsEmpty() {
		t.Fatalf("session token survived sanitizing")
	}
	if out.OpenAIAPIKey.Reveal() != "sk-proj-1" || out.WhatsAppPhoneNumber != "+6512345678" {
		t.Fatalf("other fields changed: %+v", out)
	}
}

func TestSanitizeRejectsMultilineValues(t *testing.T) {
	_, _, err := Sanitize(model.Credentials{GeminiAPIKey: security.FromString("abc\nEVIL=1")})
	var ce *apperr.CredentialError
	if !errors.As(err, &ce) || ce.Field != "GEMINI_API_KEY" {
		t.Fatalf("expected CredentialError for GEMINI_API_KEY, got %v", err)
	}
}

func TestRenderEnvFileFixedLineSet(t *testing.T) {
	out := RenderEnvFile(model.Credentials{AnthropicAPIKey: security.FromString("sk-ant-api03-k")})
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	if len(lines) != len(EnvKeys) {
		t.Fatalf("expected %d lines, got %d: %q", len(EnvKeys), len(lines), out)
	}
	for i, k := range EnvKeys {
		if !strings.HasPrefix(lines[i], k+"=") {
			t.Fatalf("line %d = %q, want key %s", i, lines[i], k)
		}
	}
	parsed := ParseEnvFile(out)
	if parsed["ANTHROPIC_API_KEY"] != "sk-ant-api03-k" || parsed["TELEGRAM_BOT_TOKEN"] != "" {
		t.Fatalf("unexpected parsed env: %v", parsed)
	}
	if _, ok := parsed["OPENAI_API_KEY"]; !ok {
		t.Fatalf("empty field was omitted")
	}
}

func TestSanitizeRejectsSingleQuote(t *testing.T) {
	_, _, err := Sanitize(model.Credentials{TelegramBotToken: security.FromString("123:abc'; rm -rf ~; '")})
	var ce *apperr.CredentialError
	if !errors.As(err, &ce) || ce.Field != "TELEGRAM_BOT_TOKEN" {
		t.Fatalf("expected CredentialError for TELEGRAM_BOT_TOKEN, got %v", err)
	}
}

func TestRenderEnvFileQuotesShellSyntax(t *testing.T) {
	c := model.Credentials{
		AnthropicAPIKey:     security.FromString("sk-ant-api03-$(id)"),
		WhatsAppPhoneNumber: "+65 9123 4567",
	}
	if _, _, err := Sanitize(c); err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	out := string(RenderEnvFile(c))
	for _, want := range []string{
		"ANTHROPIC_API_KEY='sk-ant-api03-$(id)'\n",
		"WHATSAPP_PHONE_NUMBER='+65 9123 4567'\n",
		"OPENAI_API_KEY=''\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	parsed := ParseEnvFile([]byte(out))
	if parsed["WHATSAPP_PHONE_NUMBER"] != "+65 9123 4567" || parsed["ANTHROPIC_API_KEY"] != "sk-ant-api03-$(id)" {
		t.Fatalf("round trip: %v", parsed)
	}
}
