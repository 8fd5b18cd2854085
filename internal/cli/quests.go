package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/roach88/progression/internal/engine"
	"github.com/roach88/progression/internal/model"
)

// QuestsOptions holds flags for the quests command.
type QuestsOptions struct {
	*RootOptions
	Type string
}

// QuestsResult is the payload of the quests command.
type QuestsResult struct {
	UserID    string               `json:"user_id"`
	QuestType model.PeriodType     `json:"quest_type"`
	PeriodID  string               `json:"period_id"`
	Quests    []engine.QuestStatus `json:"quests"`
	Rerolls   engine.RerollState   `json:"rerolls"`
}

// NewQuestsCommand creates the quests command.
func NewQuestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuestsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quests <user>",
		Short: "Show the user's current quest set",
		Long: `Show the user's quest set for the current period with progress.

The set is generated on first access and stays fixed for the period.

Examples:
  progression quests alice
  progression quests alice --type weekly --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", string(model.PeriodDaily), "quest type (daily|weekly)")

	return cmd
}

func runQuests(opts *QuestsOptions, userID string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	questType, err := model.ParsePeriodType(opts.Type)
	if err != nil {
		return usageError(f, err)
	}

	return withSession(opts.RootOptions, f, func(s *session) error {
		ctx := cmd.Context()
		quests, err := s.engine.Quests(ctx, userID, questType)
		if err != nil {
			return f.Fail(err)
		}
		rerolls, err := s.engine.RerollStatus(ctx, userID, questType)
		if err != nil {
			return f.Fail(err)
		}

		result := QuestsResult{
			UserID:    userID,
			QuestType: questType,
			PeriodID:  rerolls.PeriodID,
			Quests:    quests,
			Rerolls:   rerolls,
		}
		return f.Success(result, func(w io.Writer, p *message.Printer) {
			renderQuests(w, p, result)
		})
	})
}

func renderQuests(w io.Writer, p *message.Printer, r QuestsResult) {
	fmt.Fprintf(w, "%s quests for %s (%s)\n", titleCase(string(r.QuestType)), r.UserID, r.PeriodID)
	for _, q := range r.Quests {
		status := "  "
		switch {
		case q.Claimed:
			status = "✓✓"
		case q.Completed:
			status = "✓ "
		}
		fmt.Fprintf(w, "  %d. %s %-40s %s  [%s]  reward: %s\n",
			q.Slot,
			status,
			q.Instance.Description,
			p.Sprintf("%d/%d", q.Progress, q.Instance.Goal),
			q.Instance.Difficulty,
			formatReward(p, q.Instance.Reward),
		)
	}
	fmt.Fprintf(w, "Rerolls: %d of %d left (cost %s)\n", r.Rerolls.Remaining(), r.Rerolls.Max, formatReward(p, r.Rerolls.Cost))
}

// usageError reports a bad argument as a command error.
func usageError(f *OutputFormatter, err error) error {
	if outErr := f.Error(string(engine.CodeValidation), err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "invalid arguments", err)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
