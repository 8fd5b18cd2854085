package store

import (
	"context"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// IncrementAchievement adds amount to the user's achievement counter in a
// single statement and returns the new total.
func (s *Store) IncrementAchievement(ctx context.Context, userID, achievementID string, amount int64) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO achievement_progress (user_id, achievement_id, progress)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			progress = achievement_progress.progress + excluded.progress
		RETURNING progress
	`, userID, achievementID, amount).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment achievement: %w", err)
	}
	return total, nil
}

// ReadAchievements returns every achievement counter of the user with its
// claimed tier indices, keyed by achievement id. Achievements never
// incremented are absent.
func (s *Store) ReadAchievements(ctx context.Context, userID string) (map[string]model.AchievementProgress, error) {
	return readAchievements(ctx, s.db, userID)
}

// ReadAchievements is ReadAchievements inside the transaction.
func (t *Tx) ReadAchievements(ctx context.Context, userID string) (map[string]model.AchievementProgress, error) {
	return readAchievements(ctx, t.tx, userID)
}

func readAchievements(ctx context.Context, q querier, userID string) (map[string]model.AchievementProgress, error) {
	out := make(map[string]model.AchievementProgress)

	rows, err := q.QueryContext(ctx, `
		SELECT achievement_id, progress
		FROM achievement_progress
		WHERE user_id = ?
		ORDER BY achievement_id COLLATE BINARY ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("read achievements: %w", err)
	}
	for rows.Next() {
		p := model.AchievementProgress{UserID: userID, Claimed: map[int]bool{}}
		if err := rows.Scan(&p.AchievementID, &p.Progress); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out[p.AchievementID] = p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	rows.Close()

	claims, err := q.QueryContext(ctx, `
		SELECT achievement_id, milestone_index
		FROM achievement_claims
		WHERE user_id = ?
		ORDER BY achievement_id COLLATE BINARY ASC, milestone_index ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("read achievement claims: %w", err)
	}
	defer claims.Close()
	for claims.Next() {
		var id string
		var idx int
		if err := claims.Scan(&id, &idx); err != nil {
			return nil, fmt.Errorf("scan achievement claim: %w", err)
		}
		p, ok := out[id]
		if !ok {
			p = model.AchievementProgress{UserID: userID, AchievementID: id, Claimed: map[int]bool{}}
		}
		p.Claimed[idx] = true
		out[id] = p
	}
	if err := claims.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievement claims: %w", err)
	}
	return out, nil
}

// ClaimMilestone records tier index of an achievement as paid. inserted is
// false when the tier was already claimed.
func (t *Tx) ClaimMilestone(ctx context.Context, userID, achievementID string, index int) (inserted bool, err error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO achievement_claims (user_id, achievement_id, milestone_index)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, achievement_id, milestone_index) DO NOTHING
	`, userID, achievementID, index)
	if err != nil {
		return false, fmt.Errorf("claim milestone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim milestone: rows affected: %w", err)
	}
	return n == 1, nil
}
