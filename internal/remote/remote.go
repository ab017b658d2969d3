// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package remote runs commands on and copies files to or from hosts over SSH.
package remote

import (
	"context"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
)

// Target identifies a host and the credentials to reach it.
type Target struct {
	Host   string
	Port   int // 22 when zero
	User   string
	Signer ssh.Signer
	// AllowAgent lets the connection fall back to a running SSH agent when
	// Signer is nil or rejected.
	AllowAgent bool
}

// Result is the outcome of a remote command. A nonzero ExitCode is not an
// error by itself; call sites decide what it means.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// OK reports a zero exit status.
func (r Result) OK() bool { return r.ExitCode == 0 }

// Session is an open connection to one host.
type Session interface {
	// Exec runs cmd. The error is reserved for transport failures.
	Exec(ctx context.Context, cmd string) (Result, error)
	CopyTo(ctx context.Context, localPath, remotePath string) error
	CopyFrom(ctx context.Context, remotePath, localPath string) error
	// WriteFile places data at remotePath with mode, replacing any file there.
	WriteFile(ctx context.Context, remotePath string, data []byte, mode os.FileMode) error
	Close() error
}

// Executor opens sessions. Connect retries transient failures until ctx's
// deadline; without a deadline it makes a single attempt. Failures are
// *apperr.RemoteConnectError.
type Executor interface {
	Connect(ctx context.Context, t Target) (Session, error)
}

// Run executes cmd and turns a nonzero exit into a *apperr.RemoteExecError.
func Run(ctx context.Context, s Session, cmd string) (Result, error) {
	res, err := s.Exec(ctx, cmd)
	if err != nil {
		return res, err
	}
	if !res.OK() {
		return res, &apperr.RemoteExecError{Command: firstLine(cmd), ExitCode: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
	}
	return res, nil
}

func firstLine(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if i := strings.IndexByte(cmd, '\n'); i >= 0 {
		return cmd[:i] + " ..."
	}
	if len(cmd) > 120 {
		return cmd[:120] + " ..."
	}
	return cmd
}
