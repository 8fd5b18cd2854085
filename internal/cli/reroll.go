package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
)

// RerollOptions holds flags for the reroll command.
type RerollOptions struct {
	*RootOptions
	Type string
	// Balance is the user's gem balance; negative skips the cost check.
	Balance int64
}

// RerollResult is the payload of the reroll command.
type RerollResult struct {
	UserID   string              `json:"user_id"`
	Slot     int                 `json:"slot"`
	Instance model.QuestInstance `json:"instance"`
	Rerolls  engine.RerollState  `json:"rerolls"`
}

// NewRerollCommand creates the reroll command.
func NewRerollCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RerollOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reroll <user> <slot>",
		Short: "Replace an untouched quest",
		Long: `Replace the quest in a 1-based slot with one not already in the set.

Only quests without progress can be rerolled, up to the per-period limit.
The CLI does not debit anything; pass --balance to check the cost against
a known gem balance.

Examples:
  progression reroll alice 2
  progression reroll alice 1 --type weekly --balance 120`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReroll(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", string(model.PeriodDaily), "quest type (daily|weekly)")
	cmd.Flags().Int64Var(&opts.Balance, "balance", -1, "gem balance to check the reroll cost against")

	return cmd
}

func runReroll(opts *RerollOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	questType, err := model.ParsePeriodType(opts.Type)
	if err != nil {
		return usageError(f, err)
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return usageError(f, fmt.Errorf("slot must be an integer: %q", args[1]))
	}

	return withSession(opts.RootOptions, f, func(s *session) error {
		ctx := cmd.Context()
		inst, err := s.engine.RerollSlot(ctx, args[0], questType, slot, balanceCheck(opts.Balance))
		if err != nil {
			return f.Fail(err)
		}
		rerolls, err := s.engine.RerollStatus(ctx, args[0], questType)
		if err != nil {
			return f.Fail(err)
		}

		result := RerollResult{UserID: args[0], Slot: slot, Instance: inst, Rerolls: rerolls}
		return f.Success(result, func(w io.Writer, p *message.Printer) {
			fmt.Fprintf(w, "Slot %d is now: %s  [%s]  reward: %s\n",
				slot, inst.Description, inst.Difficulty, formatReward(p, inst.Reward))
			fmt.Fprintf(w, "Rerolls: %d of %d left\n", rerolls.Remaining(), rerolls.Max)
		})
	})
}

// balanceCheck refuses costs above balance. A negative balance disables the
// check.
func balanceCheck(balance int64) engine.AffordFunc {
	if balance < 0 {
		return nil
	}
	return func(_ context.Context, cost model.Reward) error {
		if cost.Gems > balance {
			return fmt.Errorf("need %d gems, have %d", cost.Gems, balance)
		}
		return nil
	}
}
