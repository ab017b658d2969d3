// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package credentials

import (
	"strings"

	"github.com/clawmacdo/clawmacdo/internal/model"
)

// EnvKeys is the fixed line set of the remote environment file, in order.
var EnvKeys = []string{
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"GEMINI_API_KEY",
	"WHATSAPP_PHONE_NUMBER",
	"TELEGRAM_BOT_TOKEN",
}

// RenderEnvFile produces the KEY='value' file for already-sanitized
// credentials. Every key is present; missing values are written empty.
// Values are single-quoted because the file is sourced by a shell as well
// as read by systemd; Sanitize rejects values containing a quote.
func RenderEnvFile(c model.Credentials) []byte {
	values := map[string]string{
		"ANTHROPIC_API_KEY":     c.AnthropicAPIKey.Reveal(),
		"OPENAI_API_KEY":        c.OpenAIAPIKey.Reveal(),
		"GEMINI_API_KEY":        c.GeminiAPIKey.Reveal(),
		"WHATSAPP_PHONE_NUMBER": c.WhatsAppPhoneNumber,
		"TELEGRAM_BOT_TOKEN":    c.TelegramBotToken.Reveal(),
	}
	var b strings.Builder
	for _, k := range EnvKeys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteByte('\'')
		b.WriteString(strings.TrimSpace(values[k]))
		b.WriteString("'\n")
	}
	return []byte(b.String())
}

// ParseEnvFile reads a KEY=value file back into a map. Blank lines and
// comments are skipped; one pair of surrounding quotes is removed.
func ParseEnvFile(data []byte) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[k] = unquote(v)
	}
	return out
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
