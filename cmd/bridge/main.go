package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/adapters/primary/validation"
	"github.com/lorrc/helpdesk-bridge/internal/auth"
	"github.com/lorrc/helpdesk-bridge/internal/config"
	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	"github.com/lorrc/helpdesk-bridge/internal/infrastructure/logging"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var envFileFlag string

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Mirror Movidesk tickets into Notion and alert Telegram",
	Long: `Helpdesk bridge

Reads open tickets from Movidesk, mirrors them into a Notion ticket database,
keeps the Notion equipment database in step with the assets held by tickets
and posts a Telegram alert for tickets that need attention.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bridge %s\n", rootCmd.Version)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync cycles once and exit",
	Long: `Run executes every configured cycle once, tickets first, and prints the
cycle reports as JSON. The exit status is non-zero when a cycle aborts.`,
	RunE: runOnce,
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the cycles on their schedules and serve the admin API",
	RunE:  runDaemon,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the admin API",
	RunE:  runToken,
}

var (
	onlyFlag    string
	runNowFlag  bool
	subjectFlag string
	ttlFlag     time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Path to an env file loaded before the environment")

	runCmd.Flags().StringVar(&onlyFlag, "only", "", "Run a single cycle (tickets or equipment)")
	daemonCmd.Flags().BoolVar(&runNowFlag, "run-now", false, "Run every cycle once at startup")
	tokenCmd.Flags().StringVar(&subjectFlag, "subject", "", "Operator name recorded in the token (required)")
	tokenCmd.Flags().DurationVar(&ttlFlag, "ttl", 0, "Token lifetime, defaults to ADMIN_TOKEN_TTL")
	_ = tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and builds the logger. Logs go to stderr so
// run can print reports on stdout.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stderr,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	var kind domain.CycleKind
	if onlyFlag != "" {
		kind, err = validation.ParseCycle("only", onlyFlag)
		if err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	app, err := newApplication(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	var reports []*domain.CycleReport
	var runErr error
	if kind != "" {
		var report *domain.CycleReport
		report, runErr = app.pipeline.RunCycle(ctx, kind)
		if report != nil {
			reports = append(reports, report)
		}
	} else {
		reports, runErr = app.pipeline.RunAll(ctx)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithoutValidation(envFileFlag)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Admin.JWTSecret == "" {
		return errors.New("ADMIN_JWT_SECRET is not set")
	}
	if err := validation.ValidateSubject(subjectFlag); err != nil {
		return err
	}

	ttl := cfg.Admin.TokenTTL
	if ttlFlag > 0 {
		ttl = ttlFlag
	}

	token, err := auth.NewTokenManager(cfg.Admin.JWTSecret, ttl).GenerateToken(subjectFlag)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
