// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package security

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestSecretRedaction(t *testing.T) {
	s := FromString("sk-ant-api03-abcdef")
	for _, verb := range []string{"%v", "%s", "%q", "%#v", "%+v"} {
		if got := fmt.Sprintf(verb, s); got != "[SECRET]" {
			t.Fatalf("%s leaked value: %q", verb, got)
		}
	}
	b, err := json.Marshal(struct{ Key Secret }{s})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if string(b) != `{"Key":"[SECRET]"}` {
		t.Fatalf("unexpected json: %s", b)
	}
	if s.Reveal() != "sk-ant-api03-abcdef" {
		t.Fatalf("Reveal returned %q", s.Reveal())
	}
}

func TestSecretHelpers(t *testing.T) {
	if !FromString("").IsEmpty() || !FromString("  ").IsEmpty() {
		t.Fatalf("blank secrets should be empty")
	}
	s := FromString("sk-ant-oat01-x")
	if !s.HasPrefix("sk-ant-oat") || s.HasPrefix("sk-ant-api") {
		t.Fatalf("prefix checks wrong")
	}
	(&s).Zero()
	for i, b := range s {
		if b != 0 {
			t.Fatalf("expected zeroed byte at %d, got %d", i, b)
		}
	}
}
