package engine

import (
	"context"
	"sort"

	"github.com/roach88/progression/internal/model"
)

// AchievementStatus is one achievement as the user sees it.
type AchievementStatus struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Progress int64  `json:"progress"`
	// Claimed holds paid milestone indices in ascending order.
	Claimed []int `json:"claimed"`
	// Ladder is the milestone window for the current claimed count: the base
	// tiers plus synthesized tiers for infinite achievements.
	Ladder []model.Milestone `json:"ladder"`
	// NextIndex and Next describe the lowest unclaimed milestone; HasNext is
	// false once a finite ladder is fully claimed.
	HasNext   bool            `json:"has_next"`
	NextIndex int             `json:"next_index"`
	Next      model.Milestone `json:"next"`
	// Claimable counts milestones a ClaimAll would pay right now.
	Claimable int `json:"claimable"`
}

// Achievements returns the status of every catalog achievement for the user,
// in catalog order. Achievements the user never advanced report zero
// progress.
func (e *Engine) Achievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	if err := validateUser(userID); err != nil {
		return nil, err
	}
	progress, err := e.store.ReadAchievements(ctx, userID)
	if err != nil {
		return nil, persistenceError(userID, "read achievements", err)
	}

	defs := e.catalog.Achievements()
	out := make([]AchievementStatus, 0, len(defs))
	for _, def := range defs {
		p := progress[def.ID]
		claimed := make([]int, 0, len(p.Claimed))
		for idx := range p.Claimed {
			claimed = append(claimed, idx)
		}
		sort.Ints(claimed)

		st := AchievementStatus{
			ID:        def.ID,
			Name:      def.Name,
			Category:  def.Category,
			Progress:  p.Progress,
			Claimed:   claimed,
			Ladder:    e.scaler.Milestones(def, len(claimed)),
			Claimable: len(e.scaler.Payable(def, p.Progress, p.Claimed)),
		}
		st.NextIndex, st.Next, st.HasNext = e.scaler.Next(def, p.Claimed)
		out = append(out, st)
	}
	return out, nil
}
