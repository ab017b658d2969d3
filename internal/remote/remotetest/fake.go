// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package remotetest provides a scripted remote.Executor for tests.
package remotetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/clawmacdo/clawmacdo/internal/remote"
)

// Handler answers a command.
type Handler func(cmd string) (remote.Result, error)

type rule struct {
	match string
	h     Handler
}

// File is something written to a fake host.
type File struct {
	Data []byte
	Mode os.FileMode
}

// Executor records every connection, command and file transfer. Commands
// without a matching handler succeed with empty output.
type Executor struct {
	mu          sync.Mutex
	connectErr  map[string]error
	onConnect   func(remote.Target) error
	connects    map[string]int
	targets     []remote.Target
	rules       []rule
	commands    map[string][]string
	files       map[string]map[string]File
	served      map[string][]byte
	openSession int
}

// New returns an Executor where every host accepts connections.
func New() *Executor {
	return &Executor{
		connectErr: map[string]error{},
		connects:   map[string]int{},
		commands:   map[string][]string{},
		files:      map[string]map[string]File{},
		served:     map[string][]byte{},
	}
}

// FailConnect makes every Connect to host return err.
func (e *Executor) FailConnect(host string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectErr[host] = err
}

// OnConnect installs h ahead of every Connect; a non-nil result is returned
// as the connect error. It runs without the lock held.
func (e *Executor) OnConnect(h func(remote.Target) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConnect = h
}

// On registers h for commands containing match. Later registrations win.
func (e *Executor) On(match string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule{match, h})
}

// Respond is On with a fixed result.
func (e *Executor) Respond(match string, res remote.Result) {
	e.On(match, func(string) (remote.Result, error) { return res, nil })
}

// Serve makes CopyFrom of remotePath return data on any host.
func (e *Executor) Serve(remotePath string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.served[remotePath] = data
}

// Connects counts Connect calls for host, failed ones included.
func (e *Executor) Connects(host string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connects[host]
}

// Targets lists every Target passed to Connect.
func (e *Executor) Targets() []remote.Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]remote.Target(nil), e.targets...)
}

// Commands lists the commands run on host in order.
func (e *Executor) Commands(host string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.commands[host]...)
}

// Ran reports whether any command on host contained fragment.
func (e *Executor) Ran(host, fragment string) bool {
	for _, c := range e.Commands(host) {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

// File returns what was written to remotePath on host.
func (e *Executor) File(host, remotePath string) (File, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.files[host][remotePath]
	return f, ok
}

// OpenSessions counts sessions not yet closed.
func (e *Executor) OpenSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openSession
}

func (e *Executor) Connect(ctx context.Context, t remote.Target) (remote.Session, error) {
	e.mu.Lock()
	e.connects[t.Host]++
	e.targets = append(e.targets, t)
	h := e.onConnect
	e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h != nil {
		if err := h(t); err != nil {
			return nil, err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.connectErr[t.Host]; err != nil {
		return nil, err
	}
	e.openSession++
	return &session{e: e, host: t.Host}, nil
}

type session struct {
	e      *Executor
	host   string
	closed bool
}

func (s *session) Exec(ctx context.Context, cmd string) (remote.Result, error) {
	if err := ctx.Err(); err != nil {
		return remote.Result{}, err
	}
	s.e.mu.Lock()
	s.e.commands[s.host] = append(s.e.commands[s.host], cmd)
	var h Handler
	for i := len(s.e.rules) - 1; i >= 0; i-- {
		if strings.Contains(cmd, s.e.rules[i].match) {
			h = s.e.rules[i].h
			break
		}
	}
	s.e.mu.Unlock()
	if h == nil {
		return remote.Result{}, nil
	}
	return h(cmd)
}

func (s *session) put(remotePath string, data []byte, mode os.FileMode) {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if s.e.files[s.host] == nil {
		s.e.files[s.host] = map[string]File{}
	}
	s.e.files[s.host][remotePath] = File{Data: append([]byte(nil), data...), Mode: mode}
}

func (s *session) CopyTo(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	s.put(remotePath, data, 0o644)
	return nil
}

func (s *session) WriteFile(ctx context.Context, remotePath string, data []byte, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.put(remotePath, data, mode)
	return nil
}

func (s *session) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.e.mu.Lock()
	data, ok := s.e.served[remotePath]
	s.e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: no such file on %s", remotePath, s.host)
	}
	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (s *session) Close() error {
	s.e.mu.Lock()
	defer s.e.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.e.openSession--
	}
	return nil
}
