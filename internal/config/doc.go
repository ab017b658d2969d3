// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads clawmacdo's configuration with viper (defaults,
// clawmacdo.yaml, CLAWMACDO_* environment variables and flags) and
// resolves the local directories every component works in.
package config
