// Package ladder extends achievement milestone lists into unbounded ladders.
//
// Only a counter and the set of paid tier indices are ever stored; the ladder
// itself is recomputed from the definition on every read.
package ladder

import (
	"fmt"
	"math"

	"github.com/roach88/progression/internal/model"
)

// Lookahead is how many tiers past the claimed count a scaled ladder holds.
const Lookahead = 3

// MaxSettleRounds bounds how often Payable re-extends a ladder in one call.
const MaxSettleRounds = 64

// Scaler synthesizes tiers for infinitely scaling achievements.
type Scaler struct {
	badgeTiers []model.BadgeTier
}

// NewScaler returns a Scaler whose badge rarity thresholds default to tiers.
// A nil or empty tiers uses model.DefaultBadgeTiers. Definitions that carry
// their own thresholds override the default.
func NewScaler(tiers []model.BadgeTier) *Scaler {
	if len(tiers) == 0 {
		tiers = model.DefaultBadgeTiers
	}
	return &Scaler{badgeTiers: tiers}
}

// Milestones returns the ladder of def as seen by a user who has been paid
// claimedCount tiers.
//
// While hand-authored tiers remain the base list is returned unchanged.
// After that, synthesized tiers are appended until the ladder reaches
// claimedCount+Lookahead entries.
func (s *Scaler) Milestones(def model.AchievementDefinition, claimedCount int) []model.Milestone {
	base := def.Milestones
	out := make([]model.Milestone, len(base), max(len(base), claimedCount+Lookahead))
	copy(out, base)
	if !def.InfiniteScaling || len(base) == 0 || claimedCount < len(base) {
		return out
	}

	last := base[len(base)-1]
	for i := 0; len(out) < claimedCount+Lookahead; i++ {
		out = append(out, s.synthesize(def, last, i))
	}
	return out
}

// synthesize builds the i-th (0-based) tier past the base ladder.
func (s *Scaler) synthesize(def model.AchievementDefinition, last model.Milestone, i int) model.Milestone {
	step := float64(i + 1)
	m := model.Milestone{
		Count:       floorCapped(float64(last.Count) * math.Pow(def.Scaling.BaseFactor, step)),
		Reward:      scaleCapped(last.Reward, math.Pow(def.Scaling.RewardFactor, step)),
		Synthesized: true,
	}
	if n := def.Scaling.BadgeInterval; n > 0 && (i+1)%n == 0 {
		m.Reward = m.Reward.WithItem(model.Item{
			Name:     s.badgeName(def, i+1),
			Quantity: 1,
		})
	}
	return m
}

// badgeName is unique per (achievement, distance).
func (s *Scaler) badgeName(def model.AchievementDefinition, distance int) string {
	name := def.Name
	if name == "" {
		name = def.ID
	}
	return fmt.Sprintf("%s %s Badge +%d", s.Rarity(def, distance), name, distance)
}

// Rarity grades a badge sitting distance tiers past the base ladder.
func (s *Scaler) Rarity(def model.AchievementDefinition, distance int) model.Rarity {
	tiers := def.Scaling.BadgeTiers
	if len(tiers) == 0 {
		tiers = s.badgeTiers
	}
	for _, t := range tiers {
		if distance <= t.UpTo {
			return t.Rarity
		}
	}
	return model.RarityUnknown
}

// Payout is one tier that became payable.
type Payout struct {
	Index     int
	Milestone model.Milestone
}

// Payable lists every tier of def that progress covers and claimed lacks.
//
// The ladder is re-extended after each round of payouts, so a counter far
// ahead of the claimed tiers is paid in full rather than three tiers at a
// time. claimed is not modified.
func (s *Scaler) Payable(def model.AchievementDefinition, progress int64, claimed map[int]bool) []Payout {
	paid := make(map[int]bool, len(claimed))
	for idx := range claimed {
		paid[idx] = true
	}

	var out []Payout
	for round := 0; round < MaxSettleRounds; round++ {
		found := false
		for idx, m := range s.Milestones(def, len(paid)) {
			if paid[idx] || progress < m.Count {
				continue
			}
			paid[idx] = true
			out = append(out, Payout{Index: idx, Milestone: m})
			found = true
		}
		if !found {
			break
		}
	}
	return out
}

// Next returns the lowest unclaimed tier of the user's current ladder.
// ok is false when every tier of a finite ladder has been paid.
func (s *Scaler) Next(def model.AchievementDefinition, claimed map[int]bool) (idx int, m model.Milestone, ok bool) {
	for i, ms := range s.Milestones(def, len(claimed)) {
		if !claimed[i] {
			return i, ms, true
		}
	}
	return 0, model.Milestone{}, false
}

func floorCapped(v float64) int64 {
	if v >= math.MaxInt64 || math.IsInf(v, 1) || math.IsNaN(v) {
		return math.MaxInt64
	}
	return int64(math.Floor(v))
}

func scaleCapped(r model.Reward, factor float64) model.Reward {
	items := make([]model.Item, len(r.Items))
	copy(items, r.Items)
	return model.Reward{
		Coins:   floorCapped(float64(r.Coins) * factor),
		Gems:    floorCapped(float64(r.Gems) * factor),
		Tickets: floorCapped(float64(r.Tickets) * factor),
		Items:   items,
	}
}
