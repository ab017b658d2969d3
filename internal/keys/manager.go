// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package keys generates and removes the per-deploy SSH key pairs.
package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

// ErrPassphraseRequired is returned by LoadSigner when the key is
// encrypted and no passphrase was given.
var ErrPassphraseRequired = errors.New("private key is passphrase protected")

// Manager owns the key files under a single directory.
type Manager struct {
	dir string
}

// NewManager returns a Manager writing into dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// Paths returns the private and public key paths for a droplet hostname.
func (m *Manager) Paths(hostname string) (private, public string) {
	private = filepath.Join(m.dir, model.KeyFileName(hostname))
	return private, private + ".pub"
}

// Generate creates a fresh ed25519 pair for hostname. Existing files are
// never overwritten: a pair belongs to exactly one deploy.
func (m *Manager) Generate(hostname string) (model.KeyPair, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return model.KeyPair{}, fmt.Errorf("create key directory: %w", err)
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("generate ed25519 key: %w", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("convert public key: %w", err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "clawmacdo@"+hostname)
	if err != nil {
		return model.KeyPair{}, fmt.Errorf("marshal private key: %w", err)
	}
	authorized := strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " clawmacdo@" + hostname

	privPath, pubPath := m.Paths(hostname)
	if err := writeNew(privPath, pem.EncodeToMemory(block), 0o600); err != nil {
		return model.KeyPair{}, err
	}
	if err := writeNew(pubPath, []byte(authorized+"\n"), 0o644); err != nil {
		_ = os.Remove(privPath)
		return model.KeyPair{}, err
	}

	return model.KeyPair{
		PrivateKeyPath: privPath,
		PublicKeyPath:  pubPath,
		PublicKey:      authorized,
		Fingerprint:    Fingerprint(sshPub),
	}, nil
}

// Remove deletes both key files for hostname. Every file is attempted;
// a missing file yields a NotFoundError in the joined result.
func (m *Manager) Remove(hostname string) error {
	privPath, pubPath := m.Paths(hostname)
	var errs []error
	for _, p := range []string{privPath, pubPath} {
		err := os.Remove(p)
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
			errs = append(errs, &apperr.NotFoundError{What: "key file", Name: p})
		default:
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Fingerprint returns the MD5 colon-hex form the provider reports for keys.
func Fingerprint(pub ssh.PublicKey) string {
	return ssh.FingerprintLegacyMD5(pub)
}

// LoadSigner reads a PEM private key from disk.
func LoadSigner(path string, passphrase []byte) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	if len(passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(data, passphrase)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, ErrPassphraseRequired
		}
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return signer, nil
}

func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
