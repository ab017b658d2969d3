// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package model

import (
	"strings"

	"github.com/google/uuid"
)

const (
	hostnamePrefix = "openclaw-"
	keyNamePrefix  = "clawmacdo-"
	keyFilePrefix  = "clawmacdo_"
)

// NewDeployID returns a fresh random deploy identity.
func NewDeployID() string { return uuid.NewString() }

// ShortID is the first eight characters of a deploy id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DefaultHostname is used when the user does not choose a droplet name.
func DefaultHostname(deployID string) string {
	return hostnamePrefix + ShortID(deployID)
}

// HostnameSuffix strips the managed prefix from a droplet name. Names that
// do not carry the prefix are their own suffix.
func HostnameSuffix(hostname string) string {
	return strings.TrimPrefix(hostname, hostnamePrefix)
}

// ProviderKeyName is the provider-side key name for a droplet.
func ProviderKeyName(hostname string) string {
	return keyNamePrefix + HostnameSuffix(hostname)
}

// KeyFileName is the local private key file name for a droplet; the public
// key sits next to it with a .pub extension.
func KeyFileName(hostname string) string {
	return keyFilePrefix + HostnameSuffix(hostname)
}
