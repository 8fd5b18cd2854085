package model

import (
	"strconv"
	"strings"
)

// GoalPlaceholder is replaced with the resolved goal when a template's
// description is rendered for an instance.
const GoalPlaceholder = "{goal}"

// KeyDailyQuestsCompleted is tracked once for every daily quest that reaches
// its goal, so weekly quests and achievements can count completed dailies.
const KeyDailyQuestsCompleted = "daily_quests_completed"

// QuestTemplate is a catalog entry describing the shape of an objective.
type QuestTemplate struct {
	ID          string `yaml:"id" json:"id"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	MinGoal     int64  `yaml:"min_goal" json:"min_goal"`
	MaxGoal     int64  `yaml:"max_goal" json:"max_goal"`
	BaseGoal    int64  `yaml:"base_goal" json:"base_goal"`
	BaseReward  Reward `yaml:"reward" json:"reward"`
	TrackingKey string `yaml:"tracking_key" json:"tracking_key"`
}

// RenderDescription substitutes goal into the description template.
func (t QuestTemplate) RenderDescription(goal int64) string {
	return strings.ReplaceAll(t.Description, GoalPlaceholder, strconv.FormatInt(goal, 10))
}

// Difficulty is derived from where a resolved goal sits inside its range.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyLegendary Difficulty = "legendary"
)

// DifficultyFor classifies goal within [minGoal, maxGoal].
// A degenerate range (min == max) is always easy.
func DifficultyFor(goal, minGoal, maxGoal int64) Difficulty {
	if maxGoal <= minGoal {
		return DifficultyEasy
	}
	pos := float64(goal-minGoal) / float64(maxGoal-minGoal)
	switch {
	case pos <= 0.33:
		return DifficultyEasy
	case pos <= 0.66:
		return DifficultyMedium
	case pos <= 0.90:
		return DifficultyHard
	default:
		return DifficultyLegendary
	}
}

// QuestInstance is a goal-resolved objective for one user in one period.
type QuestInstance struct {
	InstanceID  string     `json:"instance_id"`
	TemplateID  string     `json:"template_id"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	TrackingKey string     `json:"tracking_key"`
	Goal        int64      `json:"goal"`
	Reward      Reward     `json:"reward"`
	Difficulty  Difficulty `json:"difficulty"`
}

// InstanceID builds the stable identifier of a template's instance within a
// period. Progress rows are keyed on it, so it must not depend on slot order.
func InstanceID(periodID, templateID string) string {
	return periodID + ":" + templateID
}

// QuestSet is the stored instance list for (user, quest type, period).
// Version increases on every replacement and guards concurrent rerolls.
type QuestSet struct {
	UserID    string          `json:"user_id"`
	QuestType PeriodType      `json:"quest_type"`
	PeriodID  string          `json:"period_id"`
	Instances []QuestInstance `json:"instances"`
	Version   int64           `json:"version"`
}

// Find returns the slot index of instanceID, or -1.
func (s QuestSet) Find(instanceID string) int {
	for i, inst := range s.Instances {
		if inst.InstanceID == instanceID {
			return i
		}
	}
	return -1
}

// HasTemplate reports whether any instance was derived from templateID.
func (s QuestSet) HasTemplate(templateID string) bool {
	for _, inst := range s.Instances {
		if inst.TemplateID == templateID {
			return true
		}
	}
	return false
}

// QuestProgress is the durable progress row of one instance.
type QuestProgress struct {
	UserID     string `json:"user_id"`
	InstanceID string `json:"instance_id"`
	PeriodID   string `json:"period_id"`
	Goal       int64  `json:"goal"`
	Progress   int64  `json:"progress"`
	Completed  bool   `json:"completed"`
	Claimed    bool   `json:"claimed"`
}
