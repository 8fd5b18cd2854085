package catalog

import (
	"errors"
	"fmt"

	"github.com/roach88/progression/internal/model"
)

// Validate checks the rules the schema cannot express. All violations are
// reported together.
func Validate(f File) error {
	var errs []error
	errs = append(errs, validateQuests(model.PeriodDaily, f.Quests.Daily)...)
	errs = append(errs, validateQuests(model.PeriodWeekly, f.Quests.Weekly)...)
	errs = append(errs, validateBadgeTiers("badge_tiers", f.BadgeTiers)...)

	seen := make(map[string]bool, len(f.Achievements))
	for _, a := range f.Achievements {
		if seen[a.ID] {
			errs = append(errs, fmt.Errorf("achievement %q: duplicate id", a.ID))
		}
		seen[a.ID] = true
		errs = append(errs, validateAchievement(a)...)
	}
	return errors.Join(errs...)
}

func validateQuests(p model.PeriodType, ts []model.QuestTemplate) []error {
	var errs []error
	seen := make(map[string]bool, len(ts))
	for _, t := range ts {
		where := fmt.Sprintf("%s quest %q", p, t.ID)
		if t.ID == "" {
			errs = append(errs, fmt.Errorf("%s quest: missing id", p))
		}
		if seen[t.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		seen[t.ID] = true
		if t.TrackingKey == "" {
			errs = append(errs, fmt.Errorf("%s: missing tracking_key", where))
		}
		if t.MinGoal < 1 {
			errs = append(errs, fmt.Errorf("%s: min_goal must be positive", where))
		}
		if t.MaxGoal < t.MinGoal {
			errs = append(errs, fmt.Errorf("%s: max_goal %d below min_goal %d", where, t.MaxGoal, t.MinGoal))
		}
		if t.BaseGoal < 1 {
			errs = append(errs, fmt.Errorf("%s: base_goal must be positive", where))
		}
	}
	return errs
}

func validateAchievement(a model.AchievementDefinition) []error {
	var errs []error
	where := fmt.Sprintf("achievement %q", a.ID)
	if a.ID == "" {
		errs = append(errs, errors.New("achievement: missing id"))
	}
	if a.TrackingKey == "" {
		errs = append(errs, fmt.Errorf("%s: missing tracking_key", where))
	}
	if len(a.Milestones) == 0 {
		errs = append(errs, fmt.Errorf("%s: no milestones", where))
	}
	for i, m := range a.Milestones {
		if m.Count < 1 {
			errs = append(errs, fmt.Errorf("%s: milestone %d count must be positive", where, i))
		}
		if i > 0 && m.Count <= a.Milestones[i-1].Count {
			errs = append(errs, fmt.Errorf("%s: milestone %d count %d not above previous %d", where, i, m.Count, a.Milestones[i-1].Count))
		}
	}
	if a.InfiniteScaling {
		if a.Scaling.BaseFactor <= 1 {
			errs = append(errs, fmt.Errorf("%s: scaling.base_factor must exceed 1", where))
		}
		if a.Scaling.RewardFactor < 1 {
			errs = append(errs, fmt.Errorf("%s: scaling.reward_factor must be at least 1", where))
		}
		if a.Scaling.BadgeInterval < 0 {
			errs = append(errs, fmt.Errorf("%s: scaling.badge_interval must not be negative", where))
		}
	}
	errs = append(errs, validateBadgeTiers(where+" scaling.badge_tiers", a.Scaling.BadgeTiers)...)
	return errs
}

func validateBadgeTiers(where string, tiers []model.BadgeTier) []error {
	var errs []error
	for i, t := range tiers {
		if i > 0 && t.UpTo <= tiers[i-1].UpTo {
			errs = append(errs, fmt.Errorf("%s: up_to %d not above previous %d", where, t.UpTo, tiers[i-1].UpTo))
		}
	}
	return errs
}
