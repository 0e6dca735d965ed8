package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/entrhq/stepwise/pkg/config"
	"github.com/entrhq/stepwise/pkg/logging"
	"github.com/entrhq/stepwise/pkg/report"
	"github.com/entrhq/stepwise/pkg/script"
	"github.com/entrhq/stepwise/pkg/state"
	"github.com/entrhq/stepwise/pkg/step"
)

// runFlags override the configuration file for one run.
type runFlags struct {
	Driver    string
	Headless  bool
	RemoteURL string
	Artifacts string
	Timeout   time.Duration
	Watch     bool
}

func newRunCmd(shared *cliFlags) *cobra.Command {
	flags := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Run a browser script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, shared, flags)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if flags.Timeout > 0 {
				var stop context.CancelFunc
				ctx, stop = context.WithTimeout(ctx, flags.Timeout)
				defer stop()
			}
			if !flags.Watch {
				return runScript(ctx, cfg, args[0])
			}
			return watchScript(ctx, cmd, cfg, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.Driver, "driver", "", "Browser driver: playwright or chromedp")
	cmd.Flags().BoolVar(&flags.Headless, "headless", true, "Run the browser without a window")
	cmd.Flags().StringVar(&flags.RemoteURL, "remote-url", "", "Attach to a running browser instead of launching one")
	cmd.Flags().StringVar(&flags.Artifacts, "artifacts", "", "Write run.json and log.md under this directory")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Abort the run after this long")
	cmd.Flags().BoolVarP(&flags.Watch, "watch", "w", false, "Run again each time the script file changes")
	return cmd
}

// loadConfig reads the configuration file and applies flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command, shared *cliFlags, flags *runFlags) (config.File, error) {
	cfg, err := config.Load(shared.ConfigFile)
	if err != nil {
		return config.File{}, err
	}
	if shared.Verbosity != "" {
		cfg.Logging.Verbosity = shared.Verbosity
	}
	if flags.Driver != "" {
		cfg.Driver.Name = flags.Driver
	}
	if cmd.Flags().Changed("headless") {
		cfg.Driver.Headless = flags.Headless
	}
	if flags.RemoteURL != "" {
		cfg.Driver.RemoteURL = flags.RemoteURL
	}
	if flags.Artifacts != "" {
		cfg.Artifacts.Enabled = true
		cfg.Artifacts.OutputDir = flags.Artifacts
	}
	if err := cfg.Validate(); err != nil {
		return config.File{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchScript runs the script now and again after every change until ctx is
// cancelled. Run failures are reported and do not stop watching.
func watchScript(ctx context.Context, cmd *cobra.Command, cfg config.File, path string) error {
	runOnce := func(ctx context.Context) {
		if err := runScript(ctx, cfg, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes (Ctrl+C to stop)\n", path)
	}
	runOnce(ctx)
	return script.Watch(ctx, path, script.DefaultWatchDelay, runOnce)
}

func runScript(ctx context.Context, cfg config.File, path string) error {
	sc, err := script.Load(path)
	if err != nil {
		return err
	}
	prog, err := sc.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile script: %w", err)
	}

	log := logging.Nop()
	if cfg.Logging.File {
		// NewLogger falls back to stderr on error.
		log, _ = logging.NewLogger("cli")
		defer log.Close()
		log.SetLevel(logging.ParseLevel(cfg.Logging.Verbosity))
	}

	console := report.NewConsole(report.ParseVerbosity(cfg.Logging.Verbosity))
	settings := cfg.Settings
	settings.QuitOnFinish = true
	settings.LoggingAction = console.LoggingAction()
	settings.FailureAction = console.FailureAction()
	settings.LogStream = log.Stream()

	session, shutdown, err := openSession(ctx, cfg.Driver, log)
	if err != nil {
		return err
	}
	defer shutdown()

	console.Header("stepwise: " + sc.Name)
	start := time.Now()
	s, _, runErr := step.RunOrError(ctx, prog, session, settings)
	console.Summary(s)

	if cfg.Artifacts.Enabled {
		if dir, err := writeArtifacts(cfg.Artifacts.OutputDir, path, start, s); err != nil {
			log.Errorf("failed to write artifacts: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: failed to write artifacts: %v\n", err)
		} else {
			log.Infof("artifacts written to %s", dir)
		}
	}
	if runErr != nil {
		return fmt.Errorf("script %s failed", sc.Name)
	}
	return nil
}

// writeArtifacts stores one run's summary under a fresh run id, so watch
// reruns never overwrite each other. It returns the run's directory.
func writeArtifacts(outputDir, path string, start time.Time, s state.State) (string, error) {
	summary := report.NewSummary("", path, start, s)
	writer := report.NewArtifactWriter(outputDir)
	if err := writer.WriteAll(summary); err != nil {
		return "", err
	}
	return writer.Dir(summary), nil
}
