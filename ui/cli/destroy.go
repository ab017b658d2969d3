// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/audit"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
)

func newDestroyCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "destroy <hostname>",
		Short: "Delete a clawmacdo droplet with its SSH keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd, true)
			if err != nil {
				return err
			}
			name := args[0]
			report, err := svc.orch.Destroy(cmd.Context(), name, yes)
			recordAudit(cmd.Context(), audit.ActionDestroy, name, err)
			switch {
			case errors.Is(err, apperr.ErrConfirmationDeclined):
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("cancelled"))
				return nil
			case errors.Is(err, apperr.ErrNotInteractive):
				return fmt.Errorf("%w: pass --yes to destroy without confirmation", err)
			case err != nil && len(report.Steps) > 0:
				fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("destroy.partial"))
				for _, s := range report.Steps {
					if s.Err != nil && !s.Missing {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", s.Name, s.Err)
					}
				}
				return err
			case err != nil:
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(i18n.T("destroy.done", report.Droplet.Name)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt")
	return cmd
}
