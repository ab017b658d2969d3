// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package apperr is the closed set of error kinds the workflows surface.
// Every fatal workflow error reaches the caller wrapped in a StageError.
package apperr

import (
	"errors"
	"fmt"
	"time"

	"github.com/clawmacdo/clawmacdo/internal/model"
)

// ErrConfirmationDeclined is returned when the user answers no to a
// confirmation gate. It is never retried.
var ErrConfirmationDeclined = errors.New("confirmation declined")

// ErrNotInteractive is returned by a prompter that cannot ask, e.g. when
// stdin is not a terminal or --non-interactive is set.
var ErrNotInteractive = errors.New("value required but prompting is disabled")

// StageError attributes a fatal error to the pipeline stage it happened in.
type StageError struct {
	Stage model.Stage
	Err   error
	// DropletID is non-zero once a droplet was created, so callers can
	// offer to clean it up.
	DropletID int
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage a workflow error is attributed to.
func StageOf(err error) (model.Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return model.StageInit, false
}

// TimeoutError means a bounded poll ran past its deadline.
type TimeoutError struct {
	Stage model.Stage
	After time.Duration
	Last  error
}

func (e *TimeoutError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("timed out after %s waiting for %s (last error: %v)", e.After, e.Stage, e.Last)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.After, e.Stage)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// ProviderKind classifies provider API failures.
type ProviderKind int

const (
	ProviderOther ProviderKind = iota
	ProviderRateLimited
	ProviderUnauthorized
	ProviderNotFound
)

func (k ProviderKind) String() string {
	switch k {
	case ProviderRateLimited:
		return "rate-limited"
	case ProviderUnauthorized:
		return "unauthorized"
	case ProviderNotFound:
		return "not-found"
	default:
		return "other"
	}
}

// ProviderAPIError wraps a failed call to the compute provider.
type ProviderAPIError struct {
	Op      string
	Kind    ProviderKind
	Status  int // HTTP status, 0 for transport failures
	Message string
	Err     error
}

func (e *ProviderAPIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("provider %s failed (%s, HTTP %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("provider %s failed (%s): %s", e.Op, e.Kind, msg)
}

func (e *ProviderAPIError) Unwrap() error { return e.Err }

// Temporary reports whether the call may succeed when repeated.
func (e *ProviderAPIError) Temporary() bool {
	switch {
	case e.Kind == ProviderRateLimited:
		return true
	case e.Kind != ProviderOther:
		return false
	case e.Status == 0 || e.Status >= 500:
		return true
	}
	return false
}

// ConnectKind classifies remote shell connection failures.
type ConnectKind int

const (
	ConnectTransport ConnectKind = iota
	ConnectRefused
	ConnectTimeout
	ConnectAuthFailed
)

func (k ConnectKind) String() string {
	switch k {
	case ConnectRefused:
		return "refused"
	case ConnectTimeout:
		return "timeout"
	case ConnectAuthFailed:
		return "auth-failed"
	default:
		return "transport"
	}
}

// RemoteConnectError wraps a failed SSH connection attempt.
type RemoteConnectError struct {
	Host string
	Kind ConnectKind
	Err  error
}

func (e *RemoteConnectError) Error() string {
	return fmt.Sprintf("connect to %s failed (%s): %v", e.Host, e.Kind, e.Err)
}

func (e *RemoteConnectError) Unwrap() error { return e.Err }

// NotYet reports whether the host is probably still booting.
func (e *RemoteConnectError) NotYet() bool {
	return e.Kind == ConnectRefused || e.Kind == ConnectTimeout
}

// RemoteExecError reports a remote command whose exit status the caller
// treats as a failure.
type RemoteExecError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *RemoteExecError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("remote command %q exited %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("remote command %q exited %d", e.Command, e.ExitCode)
}

// ArchiveKind classifies archive failures.
type ArchiveKind int

const (
	ArchiveCorrupt ArchiveKind = iota
	ArchiveMissing
	ArchiveEmpty
)

func (k ArchiveKind) String() string {
	switch k {
	case ArchiveMissing:
		return "missing"
	case ArchiveEmpty:
		return "empty"
	default:
		return "corrupt"
	}
}

// ArchiveError is a backup archive that cannot be used.
type ArchiveError struct {
	Path string
	Kind ArchiveKind
	Err  error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive %s is %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("archive %s is %s", e.Path, e.Kind)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// CredentialError is malformed credential input. Classification of a
// well-formed value never produces one.
type CredentialError struct {
	Field  string
	Reason string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError is a lookup miss for a droplet, key or backup.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.What, e.Name)
}

// IsNotFound reports whether err is a NotFoundError or a provider not-found.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return true
	}
	var pe *ProviderAPIError
	return errors.As(err, &pe) && pe.Kind == ProviderNotFound
}
