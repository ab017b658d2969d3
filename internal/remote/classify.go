// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package remote

import (
	"errors"
	"net"
	"strings"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
)

var errHostKeyMismatch = errors.New("host key mismatch")

// classify maps a dial or handshake failure onto a connect error kind.
func classify(host string, err error) *apperr.RemoteConnectError {
	var already *apperr.RemoteConnectError
	if errors.As(err, &already) {
		return already
	}
	ce := &apperr.RemoteConnectError{Host: host, Kind: apperr.ConnectTransport, Err: err}
	msg := strings.ToLower(err.Error())

	var nerr net.Error
	switch {
	case errors.Is(err, errHostKeyMismatch), strings.Contains(msg, errHostKeyMismatch.Error()):
		ce.Kind = apperr.ConnectAuthFailed
	case isAuthError(err):
		ce.Kind = apperr.ConnectAuthFailed
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "actively refused"):
		ce.Kind = apperr.ConnectRefused
	case errors.As(err, &nerr) && nerr.Timeout(),
		strings.Contains(msg, "i/o timeout"), strings.Contains(msg, "timed out"):
		ce.Kind = apperr.ConnectTimeout
	}
	return ce
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "no supported methods remain")
}
