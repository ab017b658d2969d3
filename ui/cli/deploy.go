// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/audit"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
	"github.com/clawmacdo/clawmacdo/internal/keys"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/model"
	"github.com/clawmacdo/clawmacdo/internal/orchestrator"
	"github.com/clawmacdo/clawmacdo/internal/security"
)

type deployFlags struct {
	hostname      string
	backup        string
	enableBackups bool
	tailscale     bool
	copySSH       bool
}

// addTargetFlags registers the flags shared by deploy and migrate. The
// value-carrying ones are read back through viper so env vars apply too.
func addTargetFlags(cmd *cobra.Command, f *deployFlags) {
	cmd.Flags().String("region", "", "Droplet region (default sgp1)")
	cmd.Flags().String("size", "", "Droplet size slug (default s-2vcpu-4gb)")
	cmd.Flags().StringVar(&f.hostname, "hostname", "", "Droplet hostname (default openclaw-<id>)")
	cmd.Flags().String("anthropic-key", "", "Anthropic API key (env ANTHROPIC_API_KEY)")
	cmd.Flags().String("openai-key", "", "OpenAI API key for model failover (env OPENAI_API_KEY)")
	cmd.Flags().String("gemini-key", "", "Gemini API key for model failover (env GEMINI_API_KEY)")
	cmd.Flags().String("whatsapp-phone", "", "WhatsApp phone number (env WHATSAPP_PHONE_NUMBER)")
	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token (env TELEGRAM_BOT_TOKEN)")
	cmd.Flags().String("tailscale-auth-key", "", "Tailscale auth key (env TAILSCALE_AUTH_KEY)")
	cmd.Flags().BoolVar(&f.enableBackups, "enable-backups", false, "Enable provider-side droplet backups")
	cmd.Flags().BoolVar(&f.tailscale, "tailscale", false, "Install Tailscale on the new host")
	cmd.Flags().BoolVar(&f.copySSH, "copy-ssh", false, "Copy the SSH command of the new host to the clipboard")
	cmd.Flags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt; fail when a value is missing")
}

func newDeployCmd() *cobra.Command {
	var f deployFlags
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create a droplet and install the OpenClaw gateway on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd, true)
			if err != nil {
				return err
			}
			p, err := targetParams(cmd.Context(), svc, f)
			if err != nil {
				return err
			}
			if p.BackupPath == "" && !cmd.Flags().Changed("backup") {
				if p.BackupPath, err = selectBackup(cmd.Context(), svc); err != nil {
					return err
				}
			}
			rec, err := svc.orch.Deploy(cmd.Context(), p)
			recordAudit(cmd.Context(), audit.ActionDeploy, describeTarget(p, rec), err)
			if err != nil {
				offerCleanup(cmd, svc, err)
				return err
			}
			printSummary(cmd.OutOrStdout(), rec, f.copySSH)
			return nil
		},
	}
	addTargetFlags(cmd, &f)
	cmd.Flags().StringVar(&f.backup, "backup", "", "Local backup archive to restore onto the new host")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var (
		f   deployFlags
		src orchestrator.SourceHost
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy the gateway configuration of an existing host onto a new droplet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := buildServices(cmd, true)
			if err != nil {
				return err
			}
			if src.Host == "" {
				if src.Host, err = svc.prompter.Text(cmd.Context(), i18n.T("prompt.source_ip"), ""); err != nil {
					if errors.Is(err, apperr.ErrNotInteractive) {
						return errors.New("--source-ip is required")
					}
					return err
				}
			}
			if src.KeyPath != "" {
				if src.Passphrase, err = sourcePassphrase(cmd.Context(), svc, src.KeyPath); err != nil {
					return err
				}
			}
			p, err := targetParams(cmd.Context(), svc, f)
			if err != nil {
				return err
			}
			rec, err := svc.orch.Migrate(cmd.Context(), orchestrator.MigrateParams{Source: src, Target: p})
			recordAudit(cmd.Context(), audit.ActionMigrate, fmt.Sprintf("from %s; %s", src.Host, describeTarget(p, rec)), err)
			if err != nil {
				offerCleanup(cmd, svc, err)
				return err
			}
			printSummary(cmd.OutOrStdout(), rec, f.copySSH)
			return nil
		},
	}
	addTargetFlags(cmd, &f)
	cmd.Flags().StringVar(&src.Host, "source-ip", "", "Address of the host to migrate from")
	cmd.Flags().StringVar(&src.KeyPath, "source-key", "", "Private key for the source host (default: SSH agent)")
	cmd.Flags().StringVar(&src.User, "source-user", "root", "SSH user on the source host")
	cmd.Flags().IntVar(&src.Port, "source-port", 22, "SSH port on the source host")
	return cmd
}

// targetParams assembles DeployParams from flags, env and config, asking
// for the Anthropic key when it is missing.
func targetParams(ctx context.Context, svc *services, f deployFlags) (orchestrator.DeployParams, error) {
	s := appConfig.Secrets
	p := orchestrator.DeployParams{
		Hostname:      f.hostname,
		Region:        appConfig.Region,
		Size:          appConfig.Size,
		BackupPath:    f.backup,
		EnableBackups: f.enableBackups,
		Tailscale:     f.tailscale,
		Credentials: model.Credentials{
			AnthropicAPIKey:     security.FromString(s.AnthropicKey),
			OpenAIAPIKey:        security.FromString(s.OpenAIKey),
			GeminiAPIKey:        security.FromString(s.GeminiKey),
			WhatsAppPhoneNumber: s.WhatsAppPhone,
			TelegramBotToken:    security.FromString(s.TelegramBotToken),
		},
		TailscaleAuthKey: security.FromString(s.TailscaleAuthKey),
	}
	if p.Credentials.AnthropicAPIKey.IsEmpty() {
		key, err := requireSecret(ctx, svc.prompter, "", "ANTHROPIC_API_KEY", i18n.T("prompt.anthropic_key"))
		var ce *apperr.CredentialError
		if err != nil && !errors.As(err, &ce) {
			return p, err
		}
		// A missing key is reported by the Init stage.
		p.Credentials.AnthropicAPIKey = key
	}
	return p, nil
}

// selectBackup offers the local backups when there are any.
func selectBackup(ctx context.Context, svc *services) (string, error) {
	if nonInteractive {
		return "", nil
	}
	backups, err := svc.orch.ListBackups()
	if err != nil || len(backups) == 0 {
		return "", err
	}
	options := []string{i18n.T("prompt.no_backup")}
	for _, b := range backups {
		options = append(options, filepath.Base(b.Path))
	}
	idx, err := svc.prompter.Select(ctx, i18n.T("prompt.select_backup"), options)
	switch {
	case errors.Is(err, apperr.ErrNotInteractive):
		return "", nil
	case err != nil:
		return "", err
	case idx == 0:
		return "", nil
	}
	return backups[idx-1].Path, nil
}

func sourcePassphrase(ctx context.Context, svc *services, keyPath string) (security.Secret, error) {
	if _, err := keys.LoadSigner(keyPath, nil); !errors.Is(err, keys.ErrPassphraseRequired) {
		return nil, nil
	}
	return svc.prompter.Secret(ctx, i18n.T("prompt.passphrase", keyPath))
}

// offerCleanup asks whether to destroy a droplet left behind by a
// cancelled run. It uses a fresh context because the command's is done.
func offerCleanup(cmd *cobra.Command, svc *services, err error) {
	var se *apperr.StageError
	if !errors.As(err, &se) || se.DropletID == 0 || !errors.Is(err, context.Canceled) {
		return
	}
	ctx := context.Background()
	ok, perr := svc.prompter.Confirm(ctx, i18n.T("deploy.offer_destroy", se.DropletID))
	if perr != nil || !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("deploy.left_running", se.DropletID))
		return
	}
	report, derr := svc.orch.DestroyByID(ctx, se.DropletID)
	recordAudit(ctx, audit.ActionDestroy, fmt.Sprintf("droplet %d after interrupted run", se.DropletID), derr)
	if derr != nil {
		logging.Errorf("cleanup of droplet %d: %v", se.DropletID, derr)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("destroy.done", report.Droplet.Name))
}

func describeTarget(p orchestrator.DeployParams, rec model.DeployRecord) string {
	host := rec.Hostname
	if host == "" {
		host = p.Hostname
	}
	if host == "" {
		host = "(unnamed)"
	}
	return fmt.Sprintf("%s %s/%s", host, p.Region, p.Size)
}

func printSummary(w io.Writer, rec model.DeployRecord, copySSH bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(i18n.T("deploy.summary_title")))
	table := uitable.New()
	table.AddRow(i18n.T("deploy.id")+":", rec.ID)
	table.AddRow(i18n.T("deploy.hostname")+":", rec.Hostname)
	table.AddRow(i18n.T("deploy.ip")+":", rec.IPAddress)
	table.AddRow(i18n.T("deploy.ssh")+":", rec.SSHCommand())
	table.AddRow(i18n.T("deploy.tunnel")+":", rec.TunnelCommand())
	fmt.Fprintln(w, table)

	if copySSH {
		if err := clipboardWrite(rec.SSHCommand()); err != nil {
			fmt.Fprintln(w, warnStyle.Render(i18n.T("deploy.copy_failed", err)))
		} else {
			fmt.Fprintln(w, i18n.T("deploy.copied"))
		}
	}
}
