package store

import (
	"context"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// SweepResult counts the rows removed by Sweep.
type SweepResult struct {
	QuestSets      int64 `json:"quest_sets"`
	QuestProgress  int64 `json:"quest_progress"`
	RerollCounters int64 `json:"reroll_counters"`
}

// Total returns the number of rows removed across all tables.
func (r SweepResult) Total() int64 {
	return r.QuestSets + r.QuestProgress + r.RerollCounters
}

// Sweep deletes quest sets, quest progress and reroll counters of questType
// whose period sorts strictly before currentPeriodID. Current-period rows and
// achievement rows are never touched.
func (s *Store) Sweep(ctx context.Context, questType model.PeriodType, currentPeriodID string) (SweepResult, error) {
	var out SweepResult
	err := s.InTx(ctx, func(tx *Tx) error {
		targets := []struct {
			table string
			dst   *int64
		}{
			{"quest_sets", &out.QuestSets},
			{"quest_progress", &out.QuestProgress},
			{"reroll_counters", &out.RerollCounters},
		}
		for _, tg := range targets {
			res, err := tx.tx.ExecContext(ctx,
				fmt.Sprintf(`DELETE FROM %s WHERE quest_type = ? AND period_id < ?`, tg.table),
				string(questType), currentPeriodID)
			if err != nil {
				return fmt.Errorf("sweep %s: %w", tg.table, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("sweep %s: rows affected: %w", tg.table, err)
			}
			*tg.dst = n
		}
		return nil
	})
	if err != nil {
		return SweepResult{}, err
	}
	return out, nil
}
