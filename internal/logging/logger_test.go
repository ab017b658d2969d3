// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package logging

import (
	"bytes"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
)

// The helpers must write through L; the test swaps L for a buffer-backed
// logger and restores it afterwards.
func TestLoggingHelpers_WriteToBuffer(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	L = clog.New(&buf)
	L.SetLevel(clog.DebugLevel)
	defer func() { L = prev }()

	Debugf("poll %s", "dbg")
	Infof("droplet %d", 1)
	Warnf("key missing")
	Errorf("stage %v", "E")

	out := buf.String()
	for _, want := range []string{"poll dbg", "droplet 1", "key missing", "stage E"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output: %s", want, out)
		}
	}
}

func TestSetVerboseTogglesDebug(t *testing.T) {
	var buf bytes.Buffer
	prev := L
	defer func() { L = prev }()
	L = newLogger(&buf)

	Debugf("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug output leaked at info level: %s", buf.String())
	}
	SetVerbose(true)
	Debugf("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug output after SetVerbose(true): %s", buf.String())
	}
}
