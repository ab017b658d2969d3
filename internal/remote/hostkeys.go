// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package remote

import (
	"bytes"
	"fmt"
	"net"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/clawmacdo/clawmacdo/internal/logging"
)

// hostKeyPins trusts the first key a host presents and requires the same
// key for every later connection made by this process. Freshly created
// droplets have no prior key to compare against.
type hostKeyPins struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func newHostKeyPins() *hostKeyPins {
	return &hostKeyPins{keys: map[string][]byte{}}
}

func (p *hostKeyPins) callback(hostname string, _ net.Addr, key ssh.PublicKey) error {
	host, _, err := net.SplitHostPort(hostname)
	if err != nil {
		host = hostname
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	presented := key.Marshal()
	known, ok := p.keys[host]
	if !ok {
		p.keys[host] = presented
		logging.Debugf("pinned host key %s for %s", ssh.FingerprintSHA256(key), host)
		return nil
	}
	if !bytes.Equal(known, presented) {
		return fmt.Errorf("%w for %s: presented %s", errHostKeyMismatch, host, ssh.FingerprintSHA256(key))
	}
	return nil
}
