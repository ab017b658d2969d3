// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package security provides the Secret type used for API keys and tokens.
package security

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const redacted = "[SECRET]"

// Secret holds a credential value. Formatting, JSON and text encoding all
// print a placeholder; the only way to get the value back is Reveal.
type Secret []byte

// FromString wraps in as a Secret.
func FromString(in string) Secret {
	if in == "" {
		return nil
	}
	return Secret([]byte(in))
}

// String redacts the secret for fmt.Print* convenience.
func (s Secret) String() string { return redacted }

// Format implements fmt.Formatter so every verb is redacted, including %#v and %q.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = io.WriteString(f, redacted)
}

// MarshalJSON redacts secrets in JSON output.
func (s Secret) MarshalJSON() ([]byte, error) { return json.Marshal(redacted) }

// MarshalText redacts secrets for text encoders (yaml, toml, ...).
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Reveal returns the plain value. Call it only where the value is written
// to its final destination.
func (s Secret) Reveal() string { return string(s) }

// IsEmpty reports whether the secret holds nothing but whitespace.
func (s Secret) IsEmpty() bool { return len(bytes.TrimSpace(s)) == 0 }

// HasPrefix reports whether the value starts with prefix.
func (s Secret) HasPrefix(prefix string) bool {
	return strings.HasPrefix(string(s), prefix)
}

// Zero overwrites the underlying bytes.
func (s *Secret) Zero() {
	if s == nil || *s == nil {
		return
	}
	for i := range *s {
		(*s)[i] = 0
	}
}
