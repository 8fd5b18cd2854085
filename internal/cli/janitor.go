package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete quest data of expired periods once",
		Long: `Delete quest sets, quest progress and reroll counters of every period
before the current daily and weekly period. Achievement progress is never
touched.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(rootOpts, cmd)
		},
	}

	return cmd
}

func runSweep(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return withSession(opts, f, func(s *session) error {
		j := engine.NewJanitor(s.engine, s.cfg.JanitorInterval)
		report, err := j.Sweep(cmd.Context())
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(report, func(w io.Writer, p *message.Printer) {
			renderSweep(w, p, report)
		})
	})
}

func renderSweep(w io.Writer, p *message.Printer, r engine.SweepReport) {
	for _, pt := range model.PeriodTypes {
		res := r.Removed[pt]
		fmt.Fprintf(w, "%s before %s: %s sets, %s progress rows, %s reroll counters\n",
			pt, r.Periods[pt],
			p.Sprintf("%d", res.QuestSets),
			p.Sprintf("%d", res.QuestProgress),
			p.Sprintf("%d", res.RerollCounters),
		)
	}
	fmt.Fprintf(w, "Removed %s rows\n", p.Sprintf("%d", r.Total()))
}

// JanitorOptions holds flags for the janitor command.
type JanitorOptions struct {
	*RootOptions
	Interval time.Duration // overrides PROGRESSION_JANITOR_INTERVAL
}

// NewJanitorCommand creates the janitor command.
func NewJanitorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JanitorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Sweep expired periods on a schedule",
		Long: `Run the period janitor until interrupted.

Sweeps once at startup and then every interval. SIGINT or SIGTERM stops it
gracefully.

Example:
  progression janitor --db ./progression.db --interval 30m`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJanitor(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "sweep interval (default $PROGRESSION_JANITOR_INTERVAL)")

	return cmd
}

func runJanitor(opts *JanitorOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return withSession(opts.RootOptions, f, func(s *session) error {
		interval := s.cfg.JanitorInterval
		if opts.Interval > 0 {
			interval = opts.Interval
		}
		j := engine.NewJanitor(s.engine, interval)

		// Use command's context if available (for testing), otherwise create one
		parentCtx := cmd.Context()
		if parentCtx == nil {
			parentCtx = context.Background()
		}
		ctx, cancel := context.WithCancel(parentCtx)
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan) // Prevent signal handler leak

		go func() {
			select {
			case sig := <-sigChan:
				slog.Info("received signal, shutting down", "signal", sig)
				cancel()
			case <-ctx.Done():
				// Parent context cancelled (e.g., from test)
			}
		}()

		slog.Info("janitor starting", "db", s.cfg.DBPath, "interval", j.Interval())
		f.VerboseLog("Janitor running every %s. Press Ctrl-C to stop.", j.Interval())

		err := j.Run(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return f.Fail(err)
		}

		slog.Info("janitor stopped gracefully")
		return f.Success(map[string]string{"status": "stopped"}, func(w io.Writer, _ *message.Printer) {
			fmt.Fprintln(w, "Janitor stopped.")
		})
	})
}
