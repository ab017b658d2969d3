// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/poll"
)

// sshConn is the part of an SSH client the sessions need.
type sshConn interface {
	Run(ctx context.Context, cmd string, stdout, stderr io.Writer) error
	Close() error
}

// fileStore is the part of an SFTP client the sessions need.
type fileStore interface {
	Create(p string) (io.WriteCloser, error)
	Open(p string) (io.ReadCloser, error)
	Chmod(p string, mode os.FileMode) error
	Rename(oldPath, newPath string) error
	Remove(p string) error
	Close() error
}

// Hooks replaced in tests.
var (
	sshDial        = dialSSH
	newSftpClient  = openSftp
	sshAgentGetter = getSSHAgent
)

// SSHExecutor is the Executor used against real hosts.
type SSHExecutor struct {
	// DialTimeout bounds a single TCP connect plus handshake.
	DialTimeout time.Duration
	// RetryInterval is the pause between connection attempts.
	RetryInterval time.Duration
	Clock         clock.Clock

	pins *hostKeyPins
}

// NewSSHExecutor returns an SSHExecutor with a 10s dial timeout.
func NewSSHExecutor() *SSHExecutor {
	return &SSHExecutor{
		DialTimeout:   10 * time.Second,
		RetryInterval: 3 * time.Second,
		Clock:         clock.WallClock,
		pins:          newHostKeyPins(),
	}
}

// Connect dials t. When ctx has a deadline, refused, timed out and other
// transport failures are retried until it; authentication failures never are.
// Reaching the deadline gives a ConnectTimeout error wrapping the last
// failure; cancellation gives ctx.Err().
func (e *SSHExecutor) Connect(ctx context.Context, t Target) (Session, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return e.dialOnce(ctx, t)
	}

	var sess Session
	var last error
	err := poll.Until(ctx, poll.Options{
		Label:    "ssh " + t.Host,
		Timeout:  time.Until(deadline),
		Interval: e.RetryInterval,
		Clock:    e.Clock,
	}, func(ctx context.Context) (bool, error) {
		s, err := e.dialOnce(ctx, t)
		if err == nil {
			sess = s
			return true, nil
		}
		last = err
		var ce *apperr.RemoteConnectError
		if errors.As(err, &ce) && ce.Kind == apperr.ConnectAuthFailed {
			return false, poll.Fatal(err)
		}
		return false, err
	})
	if err == nil {
		return sess, nil
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil, ctx.Err()
	}
	var te *apperr.TimeoutError
	if errors.As(err, &te) || errors.Is(err, context.DeadlineExceeded) {
		if last == nil {
			last = err
		}
		return nil, &apperr.RemoteConnectError{Host: t.Host, Kind: apperr.ConnectTimeout, Err: last}
	}
	return nil, err
}

func (e *SSHExecutor) clientConfig(user string, auth ssh.AuthMethod) *ssh.ClientConfig {
	if e.pins == nil {
		e.pins = newHostKeyPins()
	}
	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: e.pins.callback,
		Timeout:         e.DialTimeout,
	}
}

func (e *SSHExecutor) dialOnce(ctx context.Context, t Target) (Session, error) {
	port := t.Port
	if port == 0 {
		port = 22
	}
	addr := net.JoinHostPort(t.Host, strconv.Itoa(port))

	var keyErr error
	if t.Signer != nil {
		conn, err := sshDial(ctx, addr, e.clientConfig(t.User, ssh.PublicKeys(t.Signer)))
		if err == nil {
			return newSSHSession(t.Host, conn), nil
		}
		if !t.AllowAgent || !isAuthError(err) {
			return nil, classify(t.Host, err)
		}
		keyErr = err
	}

	var ag agent.Agent
	if t.AllowAgent {
		ag = sshAgentGetter()
	}
	if ag == nil {
		if keyErr != nil {
			return nil, classify(t.Host, fmt.Errorf("key rejected and no ssh agent available: %w", keyErr))
		}
		return nil, &apperr.RemoteConnectError{Host: t.Host, Kind: apperr.ConnectAuthFailed,
			Err: errors.New("no private key given and no ssh agent available")}
	}
	conn, err := sshDial(ctx, addr, e.clientConfig(t.User, ssh.PublicKeysCallback(ag.Signers)))
	if err != nil {
		return nil, classify(t.Host, err)
	}
	return newSSHSession(t.Host, conn), nil
}

func dialSSH(ctx context.Context, addr string, cfg *ssh.ClientConfig) (sshConn, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		_ = nc.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(nc, addr, cfg)
	if err != nil {
		_ = nc.Close()
		return nil, err
	}
	_ = nc.SetDeadline(time.Time{})
	return &liveConn{client: ssh.NewClient(c, chans, reqs)}, nil
}

type liveConn struct {
	client *ssh.Client
}

func (c *liveConn) Run(ctx context.Context, cmd string, stdout, stderr io.Writer) error {
	s, err := c.client.NewSession()
	if err != nil {
		return err
	}
	defer s.Close()
	s.Stdout = stdout
	s.Stderr = stderr
	if err := s.Start(cmd); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- s.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = s.Signal(ssh.SIGKILL)
		_ = s.Close()
		return ctx.Err()
	}
}

func (c *liveConn) Close() error { return c.client.Close() }

func openSftp(c sshConn) (fileStore, error) {
	live, ok := c.(*liveConn)
	if !ok {
		return nil, errors.New("sftp needs a live ssh connection")
	}
	sc, err := sftp.NewClient(live.client)
	if err != nil {
		return nil, err
	}
	return sftpStore{sc}, nil
}

type sftpStore struct{ c *sftp.Client }

func (s sftpStore) Create(p string) (io.WriteCloser, error) {
	f, err := s.c.Create(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s sftpStore) Open(p string) (io.ReadCloser, error) {
	f, err := s.c.Open(p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s sftpStore) Chmod(p string, mode os.FileMode) error { return s.c.Chmod(p, mode) }
func (s sftpStore) Rename(o, n string) error               { return s.c.PosixRename(o, n) }
func (s sftpStore) Remove(p string) error                  { return s.c.Remove(p) }
func (s sftpStore) Close() error                           { return s.c.Close() }

type sshSession struct {
	host string
	conn sshConn

	mu    sync.Mutex
	files fileStore
}

func newSSHSession(host string, conn sshConn) *sshSession {
	return &sshSession{host: host, conn: conn}
}

func (s *sshSession) Exec(ctx context.Context, cmd string) (Result, error) {
	var stdout, stderr bytes.Buffer
	err := s.conn.Run(ctx, cmd, &stdout, &stderr)
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitStatus()
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, fmt.Errorf("exec on %s: %w", s.host, err)
}

func (s *sshSession) sftp() (fileStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files != nil {
		return s.files, nil
	}
	fs, err := newSftpClient(s.conn)
	if err != nil {
		return nil, fmt.Errorf("open sftp on %s: %w", s.host, err)
	}
	s.files = fs
	return fs, nil
}

func (s *sshSession) CopyTo(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	return s.put(ctx, remotePath, f, info.Mode().Perm())
}

func (s *sshSession) WriteFile(ctx context.Context, remotePath string, data []byte, mode os.FileMode) error {
	return s.put(ctx, remotePath, bytes.NewReader(data), mode)
}

// put uploads to a temporary name next to remotePath, sets the mode, then
// renames into place so readers never see a partial file.
func (s *sshSession) put(ctx context.Context, remotePath string, r io.Reader, mode os.FileMode) error {
	fs, err := s.sftp()
	if err != nil {
		return err
	}
	tmp := path.Join(path.Dir(remotePath), fmt.Sprintf(".%s.clawmacdo.%d", path.Base(remotePath), time.Now().UnixNano()))
	w, err := fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s on %s: %w", tmp, s.host, err)
	}
	if _, err := io.Copy(w, ctxReader{ctx, r}); err != nil {
		_ = w.Close()
		_ = fs.Remove(tmp)
		return fmt.Errorf("upload %s to %s: %w", remotePath, s.host, err)
	}
	if err := w.Close(); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	if err := fs.Chmod(tmp, mode); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("chmod %s on %s: %w", tmp, s.host, err)
	}
	if err := fs.Rename(tmp, remotePath); err != nil {
		_ = fs.Remove(tmp)
		return fmt.Errorf("rename into %s on %s: %w", remotePath, s.host, err)
	}
	return nil
}

// CopyFrom downloads remotePath. localPath must not exist yet.
func (s *sshSession) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	fs, err := s.sftp()
	if err != nil {
		return err
	}
	r, err := fs.Open(remotePath)
	if err != nil {
		return fmt.Errorf("open %s on %s: %w", remotePath, s.host, err)
	}
	defer r.Close()

	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, ctxReader{ctx, r}); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return fmt.Errorf("download %s from %s: %w", remotePath, s.host, err)
	}
	return f.Close()
}

func (s *sshSession) Close() error {
	s.mu.Lock()
	files := s.files
	s.files = nil
	s.mu.Unlock()
	if files != nil {
		_ = files.Close()
	}
	return s.conn.Close()
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
