// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package credentials filters secrets before they reach any persisted
// environment file and renders that file.
package credentials

import (
	"fmt"
	"strings"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

const (
	// APIKeyPrefix marks a long-lived Anthropic API key.
	APIKeyPrefix = "sk-ant-api"
	// SessionTokenPrefix marks an Anthropic session/OAuth token. CLI tools
	// on the host would try it as an API key and fail, so it is never written.
	SessionTokenPrefix = "sk-ant-oat"
)

// Warning is a non-fatal note produced while sanitizing.
type Warning struct {
	Field   string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Field, w.Message) }

// Classify applies the prefix rule to a single value. Session tokens come
// back empty with exactly one warning; everything else, including the
// empty string, is returned unchanged without a warning.
func Classify(field string, value security.Secret) (security.Secret, []Warning) {
	if value.HasPrefix(SessionTokenPrefix) {
		return nil, []Warning{{
			Field:   field,
			Message: "session/OAuth token detected; it will not be written to the host environment, use an API key (" + APIKeyPrefix + "...) instead",
		}}
	}
	return value, nil
}

// Sanitize validates every field and classifies the primary key. The
// returned copy is the only form that may be written anywhere persistent.
func Sanitize(c model.Credentials) (model.Credentials, []Warning, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"ANTHROPIC_API_KEY", c.AnthropicAPIKey.Reveal()},
		{"OPENAI_API_KEY", c.OpenAIAPIKey.Reveal()},
		{"GEMINI_API_KEY", c.GeminiAPIKey.Reveal()},
		{"WHATSAPP_PHONE_NUMBER", c.WhatsAppPhoneNumber},
		{"TELEGRAM_BOT_TOKEN", c.TelegramBotToken.Reveal()},
	}
	for _, f := range fields {
		if err := validate(f.name, f.value); err != nil {
			return model.Credentials{}, nil, err
		}
	}

	out := c
	var warnings []Warning
	out.AnthropicAPIKey, warnings = Classify("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	return out, warnings, nil
}

func validate(field, value string) error {
	if strings.ContainsAny(value, "\r\n\x00") {
		return &apperr.CredentialError{Field: field, Reason: "contains a line break or NUL byte"}
	}
	if strings.ContainsRune(value, '\'') {
		return &apperr.CredentialError{Field: field, Reason: "contains a single quote"}
	}
	return nil
}
