// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/audit"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/orchestrator"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

// services bundles what one command invocation needs.
type services struct {
	orch     *orchestrator.Orchestrator
	prompter orchestrator.Prompter
	reporter *termReporter
}

// buildServices wires an orchestrator. withProvider asks for the API
// token when it is not configured.
func buildServices(cmd *cobra.Command, withProvider bool) (*services, error) {
	pr := newPrompter(nonInteractive)
	rep := newTermReporter(cmd.OutOrStdout())
	deps := orchestrator.Deps{
		Executor: newExecutor(),
		Reporter: rep,
		Prompter: pr,
	}
	if withProvider {
		token, err := requireSecret(cmd.Context(), pr, appConfig.Secrets.DOToken, "DO_TOKEN", i18n.T("prompt.do_token"))
		if err != nil {
			return nil, err
		}
		deps.Provider = newProvider(token.Reveal())
	}
	return &services{
		orch:     orchestrator.New(appPaths, appConfig.Timeouts, deps),
		prompter: pr,
		reporter: rep,
	}, nil
}

// requireSecret returns value, or asks for it. A prompter that cannot ask
// turns into a CredentialError naming field.
func requireSecret(ctx context.Context, pr orchestrator.Prompter, value, field, label string) (security.Secret, error) {
	if strings.TrimSpace(value) != "" {
		return security.FromString(strings.TrimSpace(value)), nil
	}
	s, err := pr.Secret(ctx, label)
	if errors.Is(err, apperr.ErrNotInteractive) || (err == nil && s.IsEmpty()) {
		return nil, &apperr.CredentialError{Field: field, Reason: "required"}
	}
	return s, err
}

// recordAudit appends a history entry. Failures are only logged.
func recordAudit(ctx context.Context, action, details string, outcome error) {
	dbType, dsn := historyDB()
	store, err := audit.Open(context.WithoutCancel(ctx), dbType, dsn)
	if err != nil {
		logging.Warnf("audit: %v", err)
		return
	}
	defer store.Close()

	status := "ok"
	switch {
	case errors.Is(outcome, apperr.ErrConfirmationDeclined):
		status = "cancelled"
	case outcome != nil:
		status = "failed: " + outcome.Error()
	}
	if err := store.Log(context.WithoutCancel(ctx), action, fmt.Sprintf("%s [%s]", details, status)); err != nil {
		logging.Warnf("audit: %v", err)
	}
}

// historyDB resolves the audit database, defaulting to sqlite in the
// clawmacdo home.
func historyDB() (dbType, dsn string) {
	dbType, dsn = appConfig.Database.Type, appConfig.Database.Dsn
	if dbType == "" {
		dbType = "sqlite"
	}
	if dsn == "" && dbType == "sqlite" {
		dsn = appPaths.HistoryDSN()
	}
	return dbType, dsn
}
