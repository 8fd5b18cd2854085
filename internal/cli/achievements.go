package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
)

// NewAchievementsCommand creates the achievements command.
func NewAchievementsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "achievements <user>",
		Short:         "Show achievement progress and the next milestone",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAchievements(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runAchievements(opts *RootOptions, userID string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return withSession(opts, f, func(s *session) error {
		statuses, err := s.engine.Achievements(cmd.Context(), userID)
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(statuses, func(w io.Writer, p *message.Printer) {
			renderAchievements(w, p, statuses)
		})
	})
}

func renderAchievements(w io.Writer, p *message.Printer, statuses []engine.AchievementStatus) {
	for _, a := range statuses {
		fmt.Fprintf(w, "%s (%s): %s", a.Name, a.ID, p.Sprintf("%d", a.Progress))
		if a.HasNext {
			fmt.Fprintf(w, " / %s  next: %s", p.Sprintf("%d", a.Next.Count), formatReward(p, a.Next.Reward))
		} else {
			fmt.Fprint(w, "  complete")
		}
		if a.Claimable > 0 {
			fmt.Fprintf(w, "  (%d claimable)", a.Claimable)
		}
		fmt.Fprintln(w)
	}
}
