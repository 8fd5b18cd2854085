package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// RerollCount returns how many rerolls the user has spent on a quest type in
// a period.
func (s *Store) RerollCount(ctx context.Context, userID string, questType model.PeriodType, periodID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM reroll_counters
		WHERE user_id = ? AND quest_type = ? AND period_id = ?
	`, userID, string(questType), periodID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reroll count: %w", err)
	}
	return n, nil
}

// RerollChange describes one slot replacement and the state it was planned
// against.
type RerollChange struct {
	Set         model.QuestSet // as read; Version is the expected version
	Slot        int
	Replacement model.QuestInstance
	// ExpectedCount is the counter value the preconditions were checked at.
	ExpectedCount int
	MaxRerolls    int
}

// ApplyReroll swaps the instance at change.Slot and increments the reroll
// counter in one transaction. It returns ErrConflict, writing nothing, if the
// counter or set changed since they were read, the counter is at its cap, or
// the replaced instance gained progress in the meantime.
func (s *Store) ApplyReroll(ctx context.Context, change RerollChange) (model.QuestSet, error) {
	set := change.Set
	if change.Slot < 0 || change.Slot >= len(set.Instances) {
		return model.QuestSet{}, fmt.Errorf("apply reroll: slot %d out of range", change.Slot)
	}
	old := set.Instances[change.Slot]

	instances := make([]model.QuestInstance, len(set.Instances))
	copy(instances, set.Instances)
	instances[change.Slot] = change.Replacement
	data, err := marshalInstances(instances)
	if err != nil {
		return model.QuestSet{}, fmt.Errorf("apply reroll: %w", err)
	}

	err = s.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.ExecContext(ctx, `
			INSERT INTO reroll_counters (user_id, quest_type, period_id, count)
			VALUES (?, ?, ?, 0)
			ON CONFLICT(user_id, quest_type, period_id) DO NOTHING
		`, set.UserID, string(set.QuestType), set.PeriodID); err != nil {
			return fmt.Errorf("apply reroll: ensure counter: %w", err)
		}

		res, err := tx.tx.ExecContext(ctx, `
			UPDATE reroll_counters
			SET count = count + 1
			WHERE user_id = ? AND quest_type = ? AND period_id = ?
			  AND count = ? AND count < ?
		`, set.UserID, string(set.QuestType), set.PeriodID, change.ExpectedCount, change.MaxRerolls)
		if err != nil {
			return fmt.Errorf("apply reroll: bump counter: %w", err)
		}
		if err := expectOneRow(res, "apply reroll: counter"); err != nil {
			return err
		}

		p, _, err := tx.ReadQuestProgress(ctx, set.UserID, set.PeriodID, old.InstanceID)
		if err != nil {
			return fmt.Errorf("apply reroll: %w", err)
		}
		if p.Progress > 0 {
			return fmt.Errorf("apply reroll: instance started: %w", ErrConflict)
		}

		res, err = tx.tx.ExecContext(ctx, `
			UPDATE quest_sets
			SET instances = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
			WHERE user_id = ? AND quest_type = ? AND period_id = ? AND version = ?
		`, data, set.UserID, string(set.QuestType), set.PeriodID, set.Version)
		if err != nil {
			return fmt.Errorf("apply reroll: replace set: %w", err)
		}
		return expectOneRow(res, "apply reroll: set")
	})
	if err != nil {
		return model.QuestSet{}, err
	}

	set.Instances = instances
	set.Version++
	return set, nil
}
