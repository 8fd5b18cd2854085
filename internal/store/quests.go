package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// ReadQuestSet returns the stored set for (user, quest type, period).
// found is false when no set has been generated yet.
func (s *Store) ReadQuestSet(ctx context.Context, userID string, questType model.PeriodType, periodID string) (set model.QuestSet, found bool, err error) {
	return readQuestSet(ctx, s.db, userID, questType, periodID)
}

// ReadQuestSet is ReadQuestSet inside the transaction.
func (t *Tx) ReadQuestSet(ctx context.Context, userID string, questType model.PeriodType, periodID string) (model.QuestSet, bool, error) {
	return readQuestSet(ctx, t.tx, userID, questType, periodID)
}

func readQuestSet(ctx context.Context, q querier, userID string, questType model.PeriodType, periodID string) (model.QuestSet, bool, error) {
	var data string
	set := model.QuestSet{UserID: userID, QuestType: questType, PeriodID: periodID}
	err := q.QueryRowContext(ctx, `
		SELECT instances, version
		FROM quest_sets
		WHERE user_id = ? AND quest_type = ? AND period_id = ?
	`, userID, string(questType), periodID).Scan(&data, &set.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return model.QuestSet{}, false, nil
	}
	if err != nil {
		return model.QuestSet{}, false, fmt.Errorf("read quest set: %w", err)
	}
	set.Instances, err = unmarshalInstances(data)
	if err != nil {
		return model.QuestSet{}, false, fmt.Errorf("read quest set: %w", err)
	}
	return set, true, nil
}

// CreateQuestSet inserts set unless one already exists for its key, then
// returns whichever set is stored. Two generators racing on a new period
// both get the first writer's row.
func (s *Store) CreateQuestSet(ctx context.Context, set model.QuestSet) (model.QuestSet, error) {
	data, err := marshalInstances(set.Instances)
	if err != nil {
		return model.QuestSet{}, fmt.Errorf("create quest set: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quest_sets (user_id, quest_type, period_id, instances, version)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(user_id, quest_type, period_id) DO NOTHING
	`, set.UserID, string(set.QuestType), set.PeriodID, data)
	if err != nil {
		return model.QuestSet{}, fmt.Errorf("create quest set: %w", err)
	}

	stored, found, err := s.ReadQuestSet(ctx, set.UserID, set.QuestType, set.PeriodID)
	if err != nil {
		return model.QuestSet{}, err
	}
	if !found {
		return model.QuestSet{}, fmt.Errorf("create quest set: row missing after insert")
	}
	return stored, nil
}

// ReplaceQuestSet overwrites the stored instances if the stored version still
// equals set.Version. It returns ErrConflict when another writer got there
// first.
func (s *Store) ReplaceQuestSet(ctx context.Context, set model.QuestSet) (model.QuestSet, error) {
	data, err := marshalInstances(set.Instances)
	if err != nil {
		return model.QuestSet{}, fmt.Errorf("replace quest set: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE quest_sets
		SET instances = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND quest_type = ? AND period_id = ? AND version = ?
	`, data, set.UserID, string(set.QuestType), set.PeriodID, set.Version)
	if err != nil {
		return model.QuestSet{}, fmt.Errorf("replace quest set: %w", err)
	}
	if err := expectOneRow(res, "replace quest set"); err != nil {
		return model.QuestSet{}, err
	}
	set.Version++
	return set, nil
}

// ErrConflict reports that a conditional write found the row changed since it
// was read. Nothing was written; the operation can be retried.
var ErrConflict = errors.New("concurrent modification")

func expectOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n != 1 {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return nil
}
