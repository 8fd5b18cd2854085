package generator

import (
	"math"

	"github.com/roach88/progression/internal/model"
)

// NiceRound rounds x to a granularity that reads well at its magnitude:
// hundreds from 1000, tens from 100, fives from 10, otherwise units.
func NiceRound(x float64) int64 {
	switch {
	case x >= 1000:
		return int64(math.Round(x/100) * 100)
	case x >= 100:
		return int64(math.Round(x/10) * 10)
	case x >= 10:
		return int64(math.Round(x/5) * 5)
	default:
		return int64(math.Round(x))
	}
}

// ResolveGoal interpolates between the template bounds at v in [0, 1),
// rounds to a nice value, and clamps back into [MinGoal, MaxGoal].
func ResolveGoal(t model.QuestTemplate, v float64) int64 {
	raw := float64(t.MinGoal) + v*float64(t.MaxGoal-t.MinGoal)
	goal := NiceRound(raw)
	if goal < t.MinGoal {
		goal = t.MinGoal
	}
	if goal > t.MaxGoal {
		goal = t.MaxGoal
	}
	return goal
}

// ScaleReward scales the template's base reward by goal/BaseGoal.
func ScaleReward(t model.QuestTemplate, goal int64) model.Reward {
	factor := 1.0
	if t.BaseGoal > 0 {
		factor = float64(goal) / float64(t.BaseGoal)
	}
	return t.BaseReward.Scale(factor)
}

// Instantiate resolves t into a concrete instance for periodID using the
// random value v.
func Instantiate(t model.QuestTemplate, periodID string, v float64) model.QuestInstance {
	goal := ResolveGoal(t, v)
	return model.QuestInstance{
		InstanceID:  model.InstanceID(periodID, t.ID),
		TemplateID:  t.ID,
		Category:    t.Category,
		Description: t.RenderDescription(goal),
		TrackingKey: t.TrackingKey,
		Goal:        goal,
		Reward:      ScaleReward(t, goal),
		Difficulty:  model.DifficultyFor(goal, t.MinGoal, t.MaxGoal),
	}
}
