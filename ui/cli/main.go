// Copyright (c) 2026 Clawmacdo Team
// Clawmacdo - OpenClaw deploy and migration tool
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clawmacdo/clawmacdo/buildvars"
	"github.com/clawmacdo/clawmacdo/internal/apperr"
	"github.com/clawmacdo/clawmacdo/internal/config"
	"github.com/clawmacdo/clawmacdo/internal/i18n"
	"github.com/clawmacdo/clawmacdo/internal/logging"
	"github.com/clawmacdo/clawmacdo/internal/orchestrator"
	"github.com/clawmacdo/clawmacdo/internal/provider"
	"github.com/clawmacdo/clawmacdo/internal/provider/digitalocean"
	"github.com/clawmacdo/clawmacdo/internal/remote"
	"github.com/clawmacdo/clawmacdo/ui/tui/prompt"
)

var (
	cfgFile        string
	verbose        bool
	nonInteractive bool

	appConfig config.Config
	appPaths  config.Paths
)

// Hooks replaced in tests.
var (
	newProvider = func(token string) provider.Client { return digitalocean.New(token) }
	newExecutor = func() remote.Executor { return remote.NewSSHExecutor() }
	newPrompter = func(nonInteractive bool) orchestrator.Prompter {
		if nonInteractive {
			return prompt.NonInteractive()
		}
		return prompt.New()
	}
	clipboardWrite = clipboard.WriteAll
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

func setupDefaultServices(cmd *cobra.Command, _ []string) error {
	configPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	var created string
	appConfig, err = config.LoadConfig[config.Config](cmd, config.Defaults(), configPath)
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		// First run: persist the defaults so the user has a file to edit.
		if created, err = config.WriteConfigFile(&appConfig, false); err != nil {
			logging.Warnf("could not write default config file: %v", err)
			created = ""
		}
	} else if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logging.SetVerbose(appConfig.Verbose || verbose)
	i18n.Init(appConfig.Language)
	if created != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("config_created", created))
	}

	appPaths, err = config.ResolvePaths(appConfig)
	if err != nil {
		return err
	}
	return appPaths.Ensure()
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	msg := err.Error()
	var se *apperr.StageError
	if errors.As(err, &se) {
		msg = i18n.T("stage_failed", se.Stage, se.Err)
	}
	fmt.Fprintf(w, "%s: %s\n", errorStyle.Render(i18n.T("error")), msg)
}

// NewRootCmd creates a fresh command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clawmacdo",
		Short: "Deploy, migrate and destroy OpenClaw gateway hosts on DigitalOcean.",
		Long: `clawmacdo provisions a DigitalOcean droplet running the OpenClaw gateway,
optionally restoring a local or migrated configuration backup onto it, and
removes such droplets again together with their SSH keys.

Credentials are read from flags or from DO_TOKEN, ANTHROPIC_API_KEY,
OPENAI_API_KEY, GEMINI_API_KEY, WHATSAPP_PHONE_NUMBER and TELEGRAM_BOT_TOKEN.`,
		Version:           buildvars.Describe("dev"),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupDefaultServices,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	cmd.PersistentFlags().String("language", "", `Output language ("en", "de")`)
	cmd.PersistentFlags().String("do-token", "", "DigitalOcean API token (env DO_TOKEN)")

	cmd.AddCommand(
		newBackupCmd(),
		newListBackupsCmd(),
		newRestoreCmd(),
		newDeployCmd(),
		newMigrateCmd(),
		newDestroyCmd(),
		newStatusCmd(),
		newHistoryCmd(),
	)
	return cmd
}
