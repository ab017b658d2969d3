// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
)

func TestGenerateWritesPairWithPermissions(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "keys"))

	kp, err := m.Generate("openclaw-abcd1234")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if filepath.Base(kp.PrivateKeyPath) != "clawmacdo_abcd1234" {
		t.Fatalf("unexpected private key name %s", kp.PrivateKeyPath)
	}
	if kp.PublicKeyPath != kp.PrivateKeyPath+".pub" {
		t.Fatalf("public key path %s", kp.PublicKeyPath)
	}
	if !strings.HasPrefix(kp.PublicKey, "ssh-ed25519 ") {
		t.Fatalf("unexpected public key %q", kp.PublicKey)
	}
	if strings.Count(kp.Fingerprint, ":") != 15 {
		t.Fatalf("fingerprint %q is not md5 colon-hex", kp.Fingerprint)
	}
	if runtime.GOOS != "windows" {
		st, err := os.Stat(kp.PrivateKeyPath)
		if err != nil {
			t.Fatalf("stat private key: %v", err)
		}
		if st.Mode().Perm() != 0o600 {
			t.Fatalf("private key mode %v", st.Mode().Perm())
		}
	}

	signer, err := LoadSigner(kp.PrivateKeyPath, nil)
	if err != nil {
		t.Fatalf("LoadSigner: %v", err)
	}
	if Fingerprint(signer.PublicKey()) != kp.Fingerprint {
		t.Fatalf("fingerprint mismatch between files")
	}
}

func TestGenerateNeverReusesExistingFiles(t *testing.T) {
	m := NewManager(t.TempDir())
	if _, err := m.Generate("openclaw-aaaa0000"); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if _, err := m.Generate("openclaw-aaaa0000"); err == nil {
		t.Fatalf("expected second Generate for the same host to fail")
	}
}

func TestRemoveReportsMissingFiles(t *testing.T) {
	m := NewManager(t.TempDir())
	kp, err := m.Generate("openclaw-bbbb1111")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := os.Remove(kp.PublicKeyPath); err != nil {
		t.Fatalf("setup: %v", err)
	}

	err = m.Remove("openclaw-bbbb1111")
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) || nf.Name != kp.PublicKeyPath {
		t.Fatalf("expected NotFoundError for the public key, got %v", err)
	}
	if _, statErr := os.Stat(kp.PrivateKeyPath); !os.IsNotExist(statErr) {
		t.Fatalf("private key should be gone even though the public key was missing")
	}
}

func TestLoadSignerPassphrase(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	block, err := ssh.MarshalPrivateKeyWithPassphrase(priv, "", []byte("hunter2"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "src")
	if err := os.WriteFile(path, pem.EncodeToMemory(block), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadSigner(path, nil); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired, got %v", err)
	}
	if _, err := LoadSigner(path, []byte("hunter2")); err != nil {
		t.Fatalf("LoadSigner with passphrase: %v", err)
	}
}
