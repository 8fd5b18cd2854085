package engine

import (
	"context"
	"strings"

	"github.com/roach88/progression/internal/model"
)

// QuestUpdate is the state of one quest instance after an increment.
type QuestUpdate struct {
	QuestType  model.PeriodType `json:"quest_type"`
	InstanceID string           `json:"instance_id"`
	TemplateID string           `json:"template_id"`
	Goal       int64            `json:"goal"`
	Progress   int64            `json:"progress"`
	Completed  bool             `json:"completed"`
	// JustCompleted is true only on the increment that reached the goal.
	JustCompleted bool `json:"just_completed"`
}

// AchievementUpdate is an achievement counter after an increment.
type AchievementUpdate struct {
	AchievementID string `json:"achievement_id"`
	Progress      int64  `json:"progress"`
}

// TrackReport lists everything a single gameplay event advanced.
type TrackReport struct {
	UserID       string              `json:"user_id"`
	TrackingKey  string              `json:"tracking_key"`
	Amount       int64               `json:"amount"`
	Quests       []QuestUpdate       `json:"quests"`
	Achievements []AchievementUpdate `json:"achievements"`
}

// Completed returns the quests this event completed.
func (r TrackReport) Completed() []QuestUpdate {
	var out []QuestUpdate
	for _, q := range r.Quests {
		if q.JustCompleted {
			out = append(out, q)
		}
	}
	return out
}

// Track records amount occurrences of the gameplay event trackingKey for the
// user. The increment is fanned out to every instance of the current daily and
// weekly sets and every achievement with that tracking key; the sets are
// generated first if needed.
//
// Each increment is one atomic store statement, so concurrent producers never
// lose updates. Quest progress is clamped at the goal. Every daily quest this
// call completes is in turn tracked once as KeyDailyQuestsCompleted.
//
// An amount of 0 records nothing. A negative amount is a validation error.
func (e *Engine) Track(ctx context.Context, userID, trackingKey string, amount int64) (TrackReport, error) {
	if err := validateUser(userID); err != nil {
		return TrackReport{}, err
	}
	if strings.TrimSpace(trackingKey) == "" {
		return TrackReport{}, newError(CodeValidation, userID, "tracking key is required")
	}
	if err := validateAmount(userID, amount); err != nil {
		return TrackReport{}, err
	}

	report := TrackReport{UserID: userID, TrackingKey: trackingKey, Amount: amount}
	if amount == 0 {
		return report, nil
	}

	dailies := 0
	for _, pt := range model.PeriodTypes {
		set, err := e.getOrGenerate(ctx, userID, pt, e.CurrentPeriod(pt))
		if err != nil {
			return report, err
		}
		for _, inst := range set.Instances {
			if inst.TrackingKey != trackingKey {
				continue
			}
			u, err := e.incrementQuest(ctx, userID, set, inst, amount)
			if err != nil {
				return report, err
			}
			report.Quests = append(report.Quests, u)
			if u.JustCompleted && pt == model.PeriodDaily {
				dailies++
			}
		}
	}

	for _, def := range e.catalog.AchievementsTracking(trackingKey) {
		u, err := e.incrementAchievement(ctx, userID, def.ID, amount)
		if err != nil {
			return report, err
		}
		report.Achievements = append(report.Achievements, u)
	}

	if dailies > 0 && trackingKey != model.KeyDailyQuestsCompleted {
		derived, err := e.Track(ctx, userID, model.KeyDailyQuestsCompleted, int64(dailies))
		if err != nil {
			return report, err
		}
		report.Quests = append(report.Quests, derived.Quests...)
		report.Achievements = append(report.Achievements, derived.Achievements...)
	}

	e.log.Debug("tracked",
		"user", userID,
		"key", trackingKey,
		"amount", amount,
		"quests", len(report.Quests),
		"achievements", len(report.Achievements))
	return report, nil
}

// IncrementQuest adds amount to one instance of the user's current set of
// questType, regardless of its tracking key.
func (e *Engine) IncrementQuest(ctx context.Context, userID string, questType model.PeriodType, instanceID string, amount int64) (QuestUpdate, error) {
	if err := validateAmount(userID, amount); err != nil {
		return QuestUpdate{}, err
	}
	set, err := e.GetOrGenerate(ctx, userID, questType)
	if err != nil {
		return QuestUpdate{}, err
	}
	idx := set.Find(instanceID)
	if idx < 0 {
		return QuestUpdate{}, newError(CodeNotFound, userID, "no quest %q in the current %s set", instanceID, questType)
	}
	inst := set.Instances[idx]
	if amount == 0 {
		p, _, err := e.store.ReadQuestProgress(ctx, userID, set.PeriodID, instanceID)
		if err != nil {
			return QuestUpdate{}, persistenceError(userID, "read quest progress", err)
		}
		return questUpdate(questType, inst, p, false), nil
	}

	u, err := e.incrementQuest(ctx, userID, set, inst, amount)
	if err != nil {
		return QuestUpdate{}, err
	}
	if u.JustCompleted && questType == model.PeriodDaily {
		if _, err := e.Track(ctx, userID, model.KeyDailyQuestsCompleted, 1); err != nil {
			return u, err
		}
	}
	return u, nil
}

// IncrementAchievement adds amount to one achievement counter directly.
func (e *Engine) IncrementAchievement(ctx context.Context, userID, achievementID string, amount int64) (AchievementUpdate, error) {
	if err := validateUser(userID); err != nil {
		return AchievementUpdate{}, err
	}
	if err := validateAmount(userID, amount); err != nil {
		return AchievementUpdate{}, err
	}
	if _, ok := e.catalog.Achievement(achievementID); !ok {
		return AchievementUpdate{}, newError(CodeNotFound, userID, "unknown achievement %q", achievementID)
	}
	if amount == 0 {
		progress, err := e.store.ReadAchievements(ctx, userID)
		if err != nil {
			return AchievementUpdate{}, persistenceError(userID, "read achievements", err)
		}
		return AchievementUpdate{AchievementID: achievementID, Progress: progress[achievementID].Progress}, nil
	}
	return e.incrementAchievement(ctx, userID, achievementID, amount)
}

func (e *Engine) incrementQuest(ctx context.Context, userID string, set model.QuestSet, inst model.QuestInstance, amount int64) (QuestUpdate, error) {
	p, advanced, err := e.store.IncrementQuest(ctx, userID, set.QuestType, set.PeriodID, inst.InstanceID, inst.Goal, amount)
	if err != nil {
		e.log.Error("increment quest failed", "user", userID, "instance", inst.InstanceID, "error", err)
		return QuestUpdate{}, persistenceError(userID, "increment quest", err)
	}
	u := questUpdate(set.QuestType, inst, p, advanced && p.Completed)
	if u.JustCompleted {
		e.log.Info("quest completed", "user", userID, "instance", inst.InstanceID, "goal", inst.Goal)
	}
	return u, nil
}

func (e *Engine) incrementAchievement(ctx context.Context, userID, achievementID string, amount int64) (AchievementUpdate, error) {
	total, err := e.store.IncrementAchievement(ctx, userID, achievementID, amount)
	if err != nil {
		e.log.Error("increment achievement failed", "user", userID, "achievement", achievementID, "error", err)
		return AchievementUpdate{}, persistenceError(userID, "increment achievement", err)
	}
	return AchievementUpdate{AchievementID: achievementID, Progress: total}, nil
}

func questUpdate(questType model.PeriodType, inst model.QuestInstance, p model.QuestProgress, justCompleted bool) QuestUpdate {
	return QuestUpdate{
		QuestType:     questType,
		InstanceID:    inst.InstanceID,
		TemplateID:    inst.TemplateID,
		Goal:          inst.Goal,
		Progress:      p.Progress,
		Completed:     p.Completed,
		JustCompleted: justCompleted,
	}
}

func validateAmount(userID string, amount int64) error {
	if amount < 0 {
		return newError(CodeValidation, userID, "amount must not be negative, got %d", amount)
	}
	return nil
}
