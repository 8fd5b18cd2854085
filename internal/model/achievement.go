package model

// Milestone is one tier of an achievement ladder.
type Milestone struct {
	Count  int64  `yaml:"count" json:"count"`
	Reward Reward `yaml:"reward" json:"reward"`
	// Synthesized is set on tiers generated past the hand-authored list.
	Synthesized bool `yaml:"-" json:"synthesized,omitempty"`
}

// Rarity grades a synthesized badge.
type Rarity string

const (
	RarityEpic         Rarity = "Epic"
	RarityLegendary    Rarity = "Legendary"
	RarityMythical     Rarity = "Mythical"
	RarityTranscendent Rarity = "Transcendent"
	RarityUnknown      Rarity = "Unknown"
)

// BadgeTier grants Rarity to badges whose distance past the base ladder is at
// most UpTo.
type BadgeTier struct {
	UpTo   int    `yaml:"up_to" json:"up_to"`
	Rarity Rarity `yaml:"rarity" json:"rarity"`
}

// DefaultBadgeTiers is used when neither the definition nor the catalog
// configures thresholds. Distances past the last tier are Unknown.
var DefaultBadgeTiers = []BadgeTier{
	{UpTo: 3, Rarity: RarityEpic},
	{UpTo: 9, Rarity: RarityLegendary},
	{UpTo: 18, Rarity: RarityMythical},
	{UpTo: 30, Rarity: RarityTranscendent},
}

// ScalingConfig controls synthesized tiers for infinitely scaling ladders.
type ScalingConfig struct {
	BaseFactor    float64     `yaml:"base_factor" json:"base_factor"`
	RewardFactor  float64     `yaml:"reward_factor" json:"reward_factor"`
	BadgeInterval int         `yaml:"badge_interval" json:"badge_interval"`
	BadgeTiers    []BadgeTier `yaml:"badge_tiers,omitempty" json:"badge_tiers,omitempty"`
}

// AchievementDefinition is a catalog ladder keyed on a cumulative counter.
type AchievementDefinition struct {
	ID              string        `yaml:"id" json:"id"`
	Name            string        `yaml:"name" json:"name"`
	Category        string        `yaml:"category" json:"category"`
	TrackingKey     string        `yaml:"tracking_key" json:"tracking_key"`
	Milestones      []Milestone   `yaml:"milestones" json:"milestones"`
	InfiniteScaling bool          `yaml:"infinite_scaling" json:"infinite_scaling"`
	Scaling         ScalingConfig `yaml:"scaling" json:"scaling"`
}

// AchievementProgress is the durable counter and claimed-tier set of one
// (user, achievement).
type AchievementProgress struct {
	UserID        string       `json:"user_id"`
	AchievementID string       `json:"achievement_id"`
	Progress      int64        `json:"progress"`
	Claimed       map[int]bool `json:"claimed"`
}

// ClaimedCount returns how many tiers have been paid.
func (p AchievementProgress) ClaimedCount() int {
	return len(p.Claimed)
}
