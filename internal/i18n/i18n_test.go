// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package i18n

import (
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitAndAvailableLocales(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}
	av := GetAvailableLocales()
	if av["de"] != "Deutsch" {
		t.Fatalf("unexpected display name for de: %q", av["de"])
	}
	if _, ok := av["en"]; !ok {
		t.Fatalf("en missing from %v", av)
	}
}

func TestTBasicAndFormatting(t *testing.T) {
	Init("en")
	if got := T("cancelled"); got != "Cancelled." {
		t.Fatalf("expected 'Cancelled.', got %q", got)
	}
	if got := T("restore.done", 3, "/tmp/x"); got != "Restored 3 files into /tmp/x" {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	SetLang("de")
	defer SetLang("en")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("cancelled"); got != "Abgebrochen." {
		t.Fatalf("expected German 'Abgebrochen.', got %q", got)
	}
}

func TestUnknownIDAndLanguageFallBack(t *testing.T) {
	Init("fr")
	defer Init("en")
	if got := T("history.none"); got != "No history yet." {
		t.Fatalf("expected English fallback, got %q", got)
	}
	if got := T("no.such.id"); got != "no.such.id" {
		t.Fatalf("unknown id = %q", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	load := func(name string) map[string]string {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			t.Fatal(err)
		}
		m := map[string]string{}
		if err := yaml.Unmarshal(data, &m); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return m
	}
	en, de := load("en.yaml"), load("de.yaml")
	for k := range en {
		if _, ok := de[k]; !ok {
			t.Errorf("de.yaml is missing %q", k)
		}
	}
	for k := range de {
		if _, ok := en[k]; !ok {
			t.Errorf("de.yaml has extra key %q", k)
		}
	}
}
