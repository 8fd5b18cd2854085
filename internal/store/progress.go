package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// IncrementQuest adds amount to an instance's progress, clamped at goal, in a
// single statement. The row is created on first increment. completed is set
// the first time progress reaches goal and never cleared.
//
// advanced is false when the row was already at its goal and nothing was
// written. Because an update only happens below the goal, a returned row
// with Completed set was completed by this call.
//
// amount must be non-negative; the caller validates it.
func (s *Store) IncrementQuest(ctx context.Context, userID string, questType model.PeriodType, periodID, instanceID string, goal, amount int64) (p model.QuestProgress, advanced bool, err error) {
	p = model.QuestProgress{UserID: userID, InstanceID: instanceID, PeriodID: periodID}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quest_progress
		(user_id, instance_id, period_id, quest_type, goal, progress, completed, claimed)
		VALUES (?, ?, ?, ?, ?, min(?, ?), ? >= ?, 0)
		ON CONFLICT(user_id, instance_id, period_id) DO UPDATE SET
			progress  = min(quest_progress.progress + ?, quest_progress.goal),
			completed = (quest_progress.progress + ? >= quest_progress.goal)
		WHERE quest_progress.progress < quest_progress.goal
		RETURNING goal, progress, completed, claimed
	`,
		userID, instanceID, periodID, string(questType), goal,
		amount, goal, amount, goal,
		amount,
		amount,
	).Scan(&p.Goal, &p.Progress, &p.Completed, &p.Claimed)
	if errors.Is(err, sql.ErrNoRows) {
		// Already at goal: the conditional update skipped the row.
		p, _, err = readQuestProgress(ctx, s.db, userID, periodID, instanceID)
		if err != nil {
			return model.QuestProgress{}, false, fmt.Errorf("increment quest: %w", err)
		}
		return p, false, nil
	}
	if err != nil {
		return model.QuestProgress{}, false, fmt.Errorf("increment quest: %w", err)
	}
	return p, true, nil
}

// ReadQuestProgress returns the progress row of one instance. A missing row
// is reported as zero progress with found=false.
func (s *Store) ReadQuestProgress(ctx context.Context, userID, periodID, instanceID string) (p model.QuestProgress, found bool, err error) {
	return readQuestProgress(ctx, s.db, userID, periodID, instanceID)
}

// ReadQuestProgress is ReadQuestProgress inside the transaction.
func (t *Tx) ReadQuestProgress(ctx context.Context, userID, periodID, instanceID string) (model.QuestProgress, bool, error) {
	return readQuestProgress(ctx, t.tx, userID, periodID, instanceID)
}

func readQuestProgress(ctx context.Context, q querier, userID, periodID, instanceID string) (model.QuestProgress, bool, error) {
	p := model.QuestProgress{UserID: userID, InstanceID: instanceID, PeriodID: periodID}
	err := q.QueryRowContext(ctx, `
		SELECT goal, progress, completed, claimed
		FROM quest_progress
		WHERE user_id = ? AND instance_id = ? AND period_id = ?
	`, userID, instanceID, periodID).Scan(&p.Goal, &p.Progress, &p.Completed, &p.Claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return p, false, nil
	}
	if err != nil {
		return model.QuestProgress{}, false, fmt.Errorf("read quest progress: %w", err)
	}
	return p, true, nil
}

// ListQuestProgress returns every progress row of the user in a period keyed
// by instance id.
func (s *Store) ListQuestProgress(ctx context.Context, userID, periodID string) (map[string]model.QuestProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instance_id, goal, progress, completed, claimed
		FROM quest_progress
		WHERE user_id = ? AND period_id = ?
		ORDER BY instance_id COLLATE BINARY ASC
	`, userID, periodID)
	if err != nil {
		return nil, fmt.Errorf("list quest progress: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.QuestProgress)
	for rows.Next() {
		p := model.QuestProgress{UserID: userID, PeriodID: periodID}
		if err := rows.Scan(&p.InstanceID, &p.Goal, &p.Progress, &p.Completed, &p.Claimed); err != nil {
			return nil, fmt.Errorf("scan quest progress: %w", err)
		}
		out[p.InstanceID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quest progress: %w", err)
	}
	return out, nil
}

// ClaimQuest flips claimed on a completed, unclaimed instance. claimed is
// false when the row is missing, incomplete, or already claimed; exactly one
// of any number of concurrent callers sees true.
func (t *Tx) ClaimQuest(ctx context.Context, userID, periodID, instanceID string) (claimed bool, err error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE quest_progress
		SET claimed = 1, claimed_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND instance_id = ? AND period_id = ?
		  AND completed = 1 AND claimed = 0
	`, userID, instanceID, periodID)
	if err != nil {
		return false, fmt.Errorf("claim quest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim quest: rows affected: %w", err)
	}
	return n == 1, nil
}
