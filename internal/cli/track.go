package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
)

// NewTrackCommand creates the track command.
func NewTrackCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track <user> <tracking-key> <amount>",
		Short: "Record a gameplay event",
		Long: `Record amount occurrences of a gameplay event for a user.

The amount is added to every current quest and achievement with the
tracking key. Quest progress stops at the goal.

Examples:
  progression track alice rolls 250
  progression track alice coins_earned 10000 --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTrack(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	amount, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return usageError(f, fmt.Errorf("amount must be an integer: %q", args[2]))
	}

	return withSession(opts, f, func(s *session) error {
		report, err := s.engine.Track(cmd.Context(), args[0], args[1], amount)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(report, func(w io.Writer, p *message.Printer) {
			renderTrack(w, p, report)
		})
	})
}

func renderTrack(w io.Writer, p *message.Printer, r engine.TrackReport) {
	if len(r.Quests) == 0 && len(r.Achievements) == 0 {
		fmt.Fprintf(w, "Nothing tracks %q.\n", r.TrackingKey)
		return
	}
	for _, q := range r.Quests {
		mark := ""
		if q.JustCompleted {
			mark = "  completed!"
		}
		fmt.Fprintf(w, "  %s %s: %s%s\n", q.QuestType, q.TemplateID, p.Sprintf("%d/%d", q.Progress, q.Goal), mark)
	}
	for _, a := range r.Achievements {
		fmt.Fprintf(w, "  achievement %s: %s\n", a.AchievementID, p.Sprintf("%d", a.Progress))
	}
}
