// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.
//
// Package cli implements the clawmacdo command-line interface using Cobra.
// It loads configuration, builds the orchestrator with its provider, remote
// executor and prompter, and renders results. Workflow logic lives in
// internal/orchestrator; commands stay thin.
package cli
