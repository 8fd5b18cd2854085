package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/model"
)

// ClaimOptions holds flags for the claim command.
type ClaimOptions struct {
	*RootOptions
	Quest string // instance id; empty claims everything
}

// NewClaimCommand creates the claim command.
func NewClaimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClaimOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "claim <user>",
		Short: "Settle completed quests and reached milestones",
		Long: `Pay every completed, unclaimed quest and every reached achievement
milestone in one settlement, or a single quest with --quest.

The printed bundle is what the ledger must credit. Its settlement id is
unique, so a retried grant can be dropped.

Exit codes:
  0 - Rewards settled
  1 - Nothing to claim, or the quest cannot be claimed
  2 - Command error

Examples:
  progression claim alice
  progression claim alice --quest 2024-01-01:daily_rolls`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClaim(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Quest, "quest", "", "claim only this quest instance id")

	return cmd
}

func runClaim(opts *ClaimOptions, userID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	return withSession(opts.RootOptions, f, func(s *session) error {
		var (
			bundle model.RewardBundle
			err    error
		)
		if opts.Quest != "" {
			bundle, err = s.engine.ClaimQuest(cmd.Context(), userID, opts.Quest)
		} else {
			bundle, err = s.engine.ClaimAll(cmd.Context(), userID)
		}
		if err != nil {
			return f.Fail(err)
		}
		return f.Success(bundle, func(w io.Writer, p *message.Printer) {
			renderBundle(w, p, bundle)
		})
	})
}

func renderBundle(w io.Writer, p *message.Printer, b model.RewardBundle) {
	fmt.Fprintf(w, "Settlement %s for %s\n", b.SettlementID, b.UserID)
	fmt.Fprintf(w, "  Reward: %s\n", formatReward(p, b.Reward))
	for _, q := range b.Quests {
		fmt.Fprintf(w, "  quest %s\n", q)
	}
	for _, m := range b.Milestones {
		fmt.Fprintf(w, "  milestone %s #%d (%s)\n", m.AchievementID, m.Index+1, p.Sprintf("%d", m.Count))
	}
}
