package merger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/harun/pairmerge/internal/metrics"
	"github.com/harun/pairmerge/pkg/pairsource"
	"github.com/harun/pairmerge/pkg/session"
)

// Config holds the protocol settings of a driver
type Config struct {
	// FromPrompt and ToPrompt are the tool's input-ready cues
	FromPrompt string
	ToPrompt   string

	// ErrorMarkers mark a failed merge in the tool output
	ErrorMarkers []string

	// InputDelay is the pause between fromid and toid when ToPrompt is empty
	InputDelay time.Duration

	// TurnTimeout bounds one turn; 0 disables the bound
	TurnTimeout time.Duration

	// ExitTimeout bounds the wait for the tool to exit
	ExitTimeout time.Duration
}

// Option configures a Driver
type Option func(*Driver)

// WithLogger sets the logger used for outcomes and lifecycle events
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithMetrics records outcomes in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Driver) {
		d.metrics = m
	}
}

// Driver runs one target tool session through a sequence of pairs. All of
// its state belongs to a single run.
type Driver struct {
	cfg      Config
	launcher session.Launcher
	markers  *Markers
	screener *Screener
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	sess    session.Session
	stream  *outputStream
	ended   bool
	summary Summary
}

// New creates a driver. Nothing is launched until Start.
func New(cfg Config, launcher session.Launcher, opts ...Option) (*Driver, error) {
	if launcher == nil {
		return nil, errors.New("launcher is required")
	}
	if cfg.ExitTimeout <= 0 {
		return nil, errors.New("exit timeout must be positive")
	}

	markers, err := NewMarkers(cfg.FromPrompt, cfg.ToPrompt, cfg.ErrorMarkers)
	if err != nil {
		return nil, fmt.Errorf("invalid markers: %w", err)
	}

	d := &Driver{
		cfg:      cfg,
		launcher: launcher,
		markers:  markers,
		screener: NewScreener(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.metrics == nil {
		d.metrics = metrics.NewMetrics()
	}

	return d, nil
}

// Start launches the target tool
func (d *Driver) Start(ctx context.Context) error {
	if d.sess != nil {
		return ErrAlreadyStarted
	}

	sess, err := d.launcher.Launch(ctx)
	if err != nil {
		d.logger.Error().Err(err).Msg("Failed to start CLI process")
		return err
	}

	d.sess = sess
	d.stream = newOutputStream(sess)
	d.metrics.SessionActive.Set(1)

	d.logger.Info().Int("pid", sess.Pid()).Msg("CLI process started")
	return nil
}

// ProcessPair screens c and, if accepted, plays one protocol turn for it
func (d *Driver) ProcessPair(ctx context.Context, c pairsource.Candidate) Outcome {
	start := time.Now()

	pair, reason := d.screener.Screen(c)

	var out Outcome
	switch {
	case reason != "":
		out = skipped(c, pair, reason)
	case d.sess == nil || d.ended:
		out = failed(c, pair, ReasonSessionClosed, ErrNotStarted.Error())
	case d.stream.eof:
		out = failed(c, pair, ReasonSessionClosed, "CLI process output already closed")
	default:
		t := &turn{
			ctx:       ctx,
			sess:      d.sess,
			stream:    d.stream,
			markers:   d.markers,
			logger:    d.logger,
			candidate: c,
			pair:      pair,
		}
		if d.cfg.TurnTimeout > 0 {
			timer := time.NewTimer(d.cfg.TurnTimeout)
			defer timer.Stop()
			t.deadline = timer.C
		}
		out = t.play(d.cfg.InputDelay)
	}

	out.Duration = time.Since(start)
	d.record(out)
	return out
}

// End sends the termination signal, closes the tool's input and waits for it
// to exit. Termination is attempted once; later calls are no-ops.
func (d *Driver) End() error {
	if d.sess == nil {
		return ErrNotStarted
	}
	if d.ended {
		return nil
	}
	d.ended = true

	defer func() {
		d.stream.close()
		_ = d.sess.Close()
		d.metrics.SessionActive.Set(0)
	}()

	if err := d.sess.SignalTermination(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to send termination signal")
	} else {
		d.logger.Info().Msg("Sent termination signal")
	}
	if err := d.sess.CloseInput(); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to close CLI input")
	}

	err := d.sess.WaitExit(d.cfg.ExitTimeout)
	switch {
	case errors.Is(err, session.ErrExitTimeout):
		d.metrics.SessionExitsTotal.WithLabelValues("timeout").Inc()
		d.logger.Warn().
			Err(err).
			Dur("timeout", d.cfg.ExitTimeout).
			Msg("CLI process did not exit in time")
		return err
	case err != nil:
		d.metrics.SessionExitsTotal.WithLabelValues("exited").Inc()
		d.logger.Warn().Err(err).Msg("CLI process exited with error status")
		return nil
	default:
		d.metrics.SessionExitsTotal.WithLabelValues("exited").Inc()
		d.logger.Info().Msg("CLI process finished")
		return nil
	}
}

// Run starts the session, processes every candidate from src in order and
// ends the session. Cancelling ctx stops after the current turn and still
// ends the session; the summary is then marked interrupted.
func (d *Driver) Run(ctx context.Context, src pairsource.Source) (Summary, error) {
	start := time.Now()

	if err := d.Start(ctx); err != nil {
		return d.summary, err
	}

	var runErr error
	interrupted := false
	for !interrupted {
		if ctx.Err() != nil {
			interrupted = true
			break
		}

		c, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			runErr = fmt.Errorf("read pairs: %w", err)
			d.logger.Error().Err(err).Msg("Failed to read pairs")
			break
		}

		out := d.ProcessPair(ctx, c)
		interrupted = out.Reason == ReasonInterrupted
	}

	endErr := d.End()

	if interrupted {
		d.summary.Interrupted = true
		d.logger.Warn().Msg("Operation was interrupted by user")
	}
	d.summary.Duration = time.Since(start)

	d.logger.Info().
		Int("accepted", d.summary.Accepted).
		Int("merged", d.summary.Merged).
		Int("failed", d.summary.Failed).
		Int("skipped", d.summary.Skipped).
		Dur("duration", d.summary.Duration).
		Msg("Run finished")

	return d.summary, errors.Join(runErr, endErr)
}

// Summary returns the counts so far
func (d *Driver) Summary() Summary {
	return d.summary
}

// record logs the outcome and updates counters
func (d *Driver) record(out Outcome) {
	d.summary.record(out)
	d.metrics.PairsTotal.WithLabelValues(string(out.Status), string(out.Reason)).Inc()

	switch out.Status {
	case StatusSkipped:
		d.logger.Warn().
			Int("record", out.Candidate.Record).
			Str("fromid", out.Candidate.FromID).
			Str("toid", out.Candidate.ToID).
			Str("reason", string(out.Reason)).
			Msg(skipMessage(out.Reason))
	case StatusMerged:
		d.metrics.TurnDuration.Observe(out.Duration.Seconds())
		d.logger.Info().
			Uint64("fromid", out.Pair.From).
			Uint64("toid", out.Pair.To).
			Uint64("log_id", out.LogID).
			Str("result", out.Detail).
			Dur("duration", out.Duration).
			Msg("Merge result: " + out.Detail)
	case StatusFailed:
		d.metrics.TurnDuration.Observe(out.Duration.Seconds())
		d.logger.Info().
			Uint64("fromid", out.Pair.From).
			Uint64("toid", out.Pair.To).
			Str("reason", string(out.Reason)).
			Str("output", out.Detail).
			Dur("duration", out.Duration).
			Msg("Merge failed")
	}
}

func skipMessage(reason Reason) string {
	switch reason {
	case ReasonMalformed:
		return "Skipped row with malformed data"
	case ReasonSelfMerge:
		return "Skipped pair with identical IDs"
	case ReasonDuplicate:
		return "Skipped already processed pair"
	default:
		return "Skipped pair"
	}
}
