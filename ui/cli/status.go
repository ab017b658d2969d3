// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/clawmacdo/clawmacdo/internal/audit"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
	"github.com/clawmacdo/clawmacdo/internal/model"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List clawmacdo droplets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd, true)
			if err != nil {
				return err
			}
			hosts, err := svc.orch.Status(cmd.Context())
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("status.none", model.DropletTag))
				return nil
			}
			table := uitable.New()
			table.AddRow(i18n.T("status.id"), i18n.T("status.name"), i18n.T("status.ip"),
				i18n.T("status.region"), i18n.T("status.status"), i18n.T("status.deployed"))
			for _, h := range hosts {
				deployed := "-"
				if h.Record != nil {
					deployed = humanize.Time(h.Record.CreatedAt)
				}
				ip := h.Droplet.PublicIP
				if ip == "" {
					ip = "-"
				}
				table.AddRow(h.Droplet.ID, h.Droplet.Name, ip, h.Droplet.Region,
					statusStyle(h.Droplet.Status).Render(h.Droplet.Status), deployed)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the commands recorded on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbType, dsn := historyDB()
			store, err := audit.Open(cmd.Context(), dbType, dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.List(context.WithoutCancel(cmd.Context()), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), i18n.T("history.none"))
				return nil
			}
			table := uitable.New()
			table.MaxColWidth = 80
			table.Wrap = true
			table.AddRow(i18n.T("history.time"), i18n.T("history.user"), i18n.T("history.action"), i18n.T("history.details"))
			for _, e := range entries {
				table.AddRow(e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Username, e.Action, e.Details)
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	return cmd
}
