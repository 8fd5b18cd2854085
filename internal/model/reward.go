package model

import "math"

// Item is a named inventory grant.
type Item struct {
	Name     string `yaml:"name" json:"name"`
	Quantity int64  `yaml:"quantity" json:"quantity"`
}

// Reward is the fixed-shape payout of a quest or milestone.
type Reward struct {
	Coins   int64  `yaml:"coins" json:"coins"`
	Gems    int64  `yaml:"gems" json:"gems"`
	Tickets int64  `yaml:"tickets" json:"tickets"`
	Items   []Item `yaml:"items,omitempty" json:"items"`
}

// IsZero reports whether the reward grants nothing.
func (r Reward) IsZero() bool {
	if r.Coins != 0 || r.Gems != 0 || r.Tickets != 0 {
		return false
	}
	for _, it := range r.Items {
		if it.Quantity != 0 {
			return false
		}
	}
	return true
}

// Scale multiplies the currency fields by factor, flooring each one.
// Items are carried through unscaled.
func (r Reward) Scale(factor float64) Reward {
	return Reward{
		Coins:   int64(math.Floor(float64(r.Coins) * factor)),
		Gems:    int64(math.Floor(float64(r.Gems) * factor)),
		Tickets: int64(math.Floor(float64(r.Tickets) * factor)),
		Items:   cloneItems(r.Items),
	}
}

// Plus returns r + o. Items with the same name are merged; first-seen order
// is kept.
func (r Reward) Plus(o Reward) Reward {
	out := Reward{
		Coins:   r.Coins + o.Coins,
		Gems:    r.Gems + o.Gems,
		Tickets: r.Tickets + o.Tickets,
		Items:   cloneItems(r.Items),
	}
	for _, it := range o.Items {
		out.Items = mergeItem(out.Items, it)
	}
	return out
}

// WithItem returns a copy of r with it merged into the item list.
func (r Reward) WithItem(it Item) Reward {
	out := r
	out.Items = mergeItem(cloneItems(r.Items), it)
	return out
}

func mergeItem(items []Item, it Item) []Item {
	for i := range items {
		if items[i].Name == it.Name {
			items[i].Quantity += it.Quantity
			return items
		}
	}
	return append(items, it)
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// MilestoneRef identifies a paid achievement tier inside a bundle.
type MilestoneRef struct {
	AchievementID string `json:"achievement_id"`
	Index         int    `json:"index"`
	Count         int64  `json:"count"`
}

// RewardBundle is the aggregated settlement handed to the external ledger.
// SettlementID is unique per settlement so the ledger can drop a retried grant.
type RewardBundle struct {
	SettlementID string         `json:"settlement_id"`
	UserID       string         `json:"user_id"`
	Reward       Reward         `json:"reward"`
	Quests       []string       `json:"quests"`
	Milestones   []MilestoneRef `json:"milestones"`
}

// IsEmpty reports whether nothing qualified for payout.
func (b RewardBundle) IsEmpty() bool {
	return len(b.Quests) == 0 && len(b.Milestones) == 0 && b.Reward.IsZero()
}
