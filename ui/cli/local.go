// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/clawmacdo/clawmacdo/internal/audit"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
)

func newBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Archive the local OpenClaw configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd, false)
			if err != nil {
				return err
			}
			b, err := svc.orch.Backup()
			recordAudit(cmd.Context(), audit.ActionBackup, appPaths.SourceDir, err)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backup.saved", b.Path, humanize.Bytes(uint64(b.Size)), b.Files))
			return nil
		},
	}
}

func newListBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-backups",
		Short: "List local backup archives, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd, false)
			if err != nil {
				return err
			}
			backups, err := svc.orch.ListBackups()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("backups.none", appPaths.Backups))
				return nil
			}
			table := uitable.New()
			table.AddRow(i18n.T("backups.file"), i18n.T("backups.size"), i18n.T("backups.created"))
			for _, b := range backups {
				table.AddRow(filepath.Base(b.Path), humanize.Bytes(uint64(b.Size)), humanize.Time(b.CreatedAt))
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newRestoreCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore a backup archive into the local OpenClaw configuration directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildServices(cmd, false)
			if err != nil {
				return err
			}
			b, err := svc.orch.Restore(args[0], force)
			recordAudit(cmd.Context(), audit.ActionRestore, args[0], err)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("restore.done", b.Files, appPaths.SourceDir))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite a non-empty configuration directory")
	return cmd
}
