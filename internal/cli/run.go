package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harun/pairmerge/internal/config"
	"github.com/harun/pairmerge/internal/logger"
	"github.com/harun/pairmerge/internal/metrics"
	"github.com/harun/pairmerge/pkg/merger"
	"github.com/harun/pairmerge/pkg/session"
)

var (
	runInput       string
	runTransport   string
	runTurnTimeout time.Duration
	runMetricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge every pair in the input file",
	Long: `Start the mergeusers CLI and feed it every pair from the input file.
Invalid, self-referencing and repeated pairs are skipped. Each result is written
to the log file. Ctrl-C stops after the current pair and shuts the tool down.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "pairs file (overrides input.path)")
	runCmd.Flags().StringVar(&runTransport, "transport", "", "session transport: pipe or pty (overrides tool.transport)")
	runCmd.Flags().DurationVar(&runTurnTimeout, "turn-timeout", 0, "upper bound for one pair, 0 disables (overrides protocol.turn_timeout)")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus metrics to this file at the end of the run")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.LoggerConfig()
	logCfg.Out = cmd.OutOrStdout()
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	runLog := log.With().
		Str("run_id", uuid.NewString()).
		Str("transport", cfg.Tool.Transport).
		Logger()

	src, err := openSource(cfg)
	if err != nil {
		runLog.Error().Err(err).Str("input", cfg.Input.Path).Msg("Failed to open input file")
		return err
	}
	defer src.Close()

	spec := cfg.SessionSpec()
	m := metrics.NewMetrics()
	driver, err := merger.New(merger.Config{
		FromPrompt:   cfg.Protocol.FromPrompt,
		ToPrompt:     cfg.Protocol.ToPrompt,
		ErrorMarkers: cfg.Protocol.ErrorMarkers,
		InputDelay:   cfg.Protocol.InputDelay,
		TurnTimeout:  cfg.Protocol.TurnTimeout,
		ExitTimeout:  cfg.Protocol.ExitTimeout,
	}, session.NewLauncher(spec), merger.WithLogger(runLog), merger.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runLog.Info().
		Str("input", cfg.Input.Path).
		Strs("command", spec.Argv()).
		Msg("Starting merge run")

	summary, runErr := driver.Run(ctx, src)

	printSummary(cmd.OutOrStdout(), summary)

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			runLog.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics")
		}
	}

	if runErr != nil {
		return &ExitError{Code: 1, Err: runErr}
	}
	if summary.Interrupted {
		return &ExitError{Code: 130, Err: ErrInterrupted}
	}
	return nil
}

// applyRunFlags lets explicit flags override the loaded config
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input.Path = runInput
	}
	if flags.Changed("transport") {
		cfg.Tool.Transport = runTransport
	}
	if flags.Changed("turn-timeout") {
		cfg.Protocol.TurnTimeout = runTurnTimeout
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = runMetricsFile
	}
}

func printSummary(w io.Writer, s merger.Summary) {
	if s.Interrupted {
		fmt.Fprintln(w, "Operation interrupted")
	}
	fmt.Fprintf(w, "Finished in %s\n", formatDuration(s.Duration))
	fmt.Fprintf(w, "Accepted: %d\n", s.Accepted)
	fmt.Fprintf(w, "Merged: %d\n", s.Merged)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
