// Package cli provides the command-line interface of the log analyzer.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"log-analyzer/internal/app"
	"log-analyzer/internal/shared/configs"
	"log-analyzer/internal/shared/loggers"

	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
)

// Version is set via ldflags at build time.
var Version = "dev"

// Options holds the flags shared by all commands.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// Execute runs the root command and returns the exit code.
func Execute() int {
	return execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if p := recover(); p != nil {
			logger, _ := loggers.New("error", stderr)
			logger.Error().
				Bytes(loggers.FieldErrorStack, debug.Stack()).
				Msgf("panic recovered: %v", p)
			code = exitError
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}

// NewRootCommand creates the root cobra command. Without a subcommand it runs the analysis once.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "log-analyzer",
		Short: "Build a report of the slowest URLs from the latest nginx access log",
		Long: `log-analyzer finds the most recent nginx-access-ui.log-YYYYMMDD[.gz] in LOG_DIR,
aggregates request times per URL and writes REPORT_DIR/report-YYYY.MM.DD.html
with the REPORT_SIZE URLs of the largest total request time.

A run is a no-op when there is no logfile or its report already exists.
The run fails when more than 20% of the lines cannot be parsed.

Exit codes:
  0 - Report generated or nothing to do
  1 - Runtime error`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a configuration file (JSON, YAML or TOML; JSON when no extension)")
	rootCmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "Path to a .env file with LOG_ANALYZER_* overrides")

	rootCmd.AddCommand(NewServeCommand(opts))
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

func runAnalyze(cmd *cobra.Command, opts *Options) error {
	cfg, logger, closeLog, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer closeLog()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return err
	}

	if _, err := application.Run(cmd.Context()); err != nil {
		logger.Error().Err(err).Msg("log analysis failed")
		return err
	}
	return nil
}

// setup loads the configuration and builds the logger. Configuration failures are logged
// and the built-in defaults are used instead.
func setup(cmd *cobra.Command, opts *Options) (*configs.Config, loggers.Logger, func(), error) {
	envErr := configs.LoadDotEnv(opts.EnvFile)
	cfg, cfgErr := configs.LoadConfig(opts.ConfigPath)

	var w io.Writer = cmd.OutOrStdout()
	closeLog := func() {}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, loggers.Nop(), closeLog, fmt.Errorf("failed to open log file %q: %w", cfg.LogFile, err)
		}
		w = file
		closeLog = func() { _ = file.Close() }
	}

	logger, err := loggers.New(cfg.LogLevel, w)
	if err != nil {
		closeLog()
		return nil, loggers.Nop(), func() {}, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if envErr != nil {
		logger.Warn().Err(envErr).Str("env_file", opts.EnvFile).Msg("failed to load env file")
	}
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("failed to load configuration, using defaults")
	}

	return cfg, logger, closeLog, nil
}
