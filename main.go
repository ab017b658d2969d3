// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for clawmacdo.
//
// Usage:
//
//	clawmacdo deploy --anthropic-key ... [flags]
//	clawmacdo migrate --source-ip 203.0.113.10 [flags]
//	clawmacdo destroy openclaw-1a2b3c4d
//
// See --help for all commands.
package main

import (
	"os"

	"github.com/clawmacdo/clawmacdo/ui/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
