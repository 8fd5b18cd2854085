package engine

import (
	"context"
	"errors"
	"slices"

	"github.com/roach88/progression/internal/generator"
	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

// GetOrGenerate returns the user's quest set for the current period of
// questType, generating and storing it on first access.
//
// A stored set is never regenerated, so goals never drift mid-period. A set
// below the configured slot count is topped up; one above it keeps its size
// until the period ends. Concurrent first accesses both generate the same set
// and converge on one stored row.
func (e *Engine) GetOrGenerate(ctx context.Context, userID string, questType model.PeriodType) (model.QuestSet, error) {
	if err := validateUser(userID); err != nil {
		return model.QuestSet{}, err
	}
	if err := validateQuestType(userID, questType); err != nil {
		return model.QuestSet{}, err
	}
	return e.getOrGenerate(ctx, userID, questType, e.CurrentPeriod(questType))
}

func (e *Engine) getOrGenerate(ctx context.Context, userID string, questType model.PeriodType, periodID string) (model.QuestSet, error) {
	rules := e.rules[questType]

	stored, found, err := e.store.ReadQuestSet(ctx, userID, questType, periodID)
	if err != nil {
		e.log.Error("read quest set failed", "user", userID, "type", questType, "error", err)
		return model.QuestSet{}, persistenceError(userID, "read quest set", err)
	}
	if found {
		if len(stored.Instances) >= rules.Slots {
			// A lower slot count takes effect from the next period.
			return stored, nil
		}
		return e.growSet(ctx, stored, rules.Slots)
	}

	generated := e.generate(userID, questType, periodID, rules.Slots)
	set, err := e.store.CreateQuestSet(ctx, model.QuestSet{
		UserID:    userID,
		QuestType: questType,
		PeriodID:  periodID,
		Instances: generated,
	})
	if err != nil {
		e.log.Error("create quest set failed", "user", userID, "type", questType, "error", err)
		return model.QuestSet{}, persistenceError(userID, "create quest set", err)
	}
	e.log.Debug("quest set generated", "user", userID, "type", questType, "period", periodID, "instances", len(set.Instances))
	return set, nil
}

// growSet fills a stored set up to slots after the slot count was raised or
// the catalog grew. Stored instances are kept as they are, so no goal moves
// under existing progress or a paid reroll. New instances are taken in
// generation order, skipping templates already in the set and any instance
// that already has a progress row this period.
func (e *Engine) growSet(ctx context.Context, set model.QuestSet, slots int) (model.QuestSet, error) {
	userID, questType, periodID := set.UserID, set.QuestType, set.PeriodID

	progress, err := e.store.ListQuestProgress(ctx, userID, periodID)
	if err != nil {
		e.log.Error("list quest progress failed", "user", userID, "type", questType, "error", err)
		return model.QuestSet{}, persistenceError(userID, "list quest progress", err)
	}

	present := make(map[string]bool, slots)
	for _, inst := range set.Instances {
		present[inst.TemplateID] = true
	}
	candidates := append(e.generate(userID, questType, periodID, slots),
		e.generate(userID, questType, periodID, len(e.catalog.Templates(questType)))...)

	instances := slices.Clone(set.Instances)
	for _, inst := range candidates {
		if len(instances) == slots {
			break
		}
		if present[inst.TemplateID] {
			continue
		}
		if _, touched := progress[inst.InstanceID]; touched {
			continue
		}
		present[inst.TemplateID] = true
		instances = append(instances, inst)
	}
	if len(instances) == len(set.Instances) {
		// The catalog cannot fill the set any further.
		return set, nil
	}

	set.Instances = instances
	grown, err := e.store.ReplaceQuestSet(ctx, set)
	if errors.Is(err, store.ErrConflict) {
		return e.readSet(ctx, userID, questType, periodID)
	}
	if err != nil {
		e.log.Error("replace quest set failed", "user", userID, "type", questType, "error", err)
		return model.QuestSet{}, persistenceError(userID, "replace quest set", err)
	}
	e.log.Info("quest set grown", "user", userID, "type", questType, "period", periodID, "slots", len(instances))
	return grown, nil
}

// generate runs the generator through the cache.
func (e *Engine) generate(userID string, questType model.PeriodType, periodID string, slots int) []model.QuestInstance {
	key := cacheKey{userID: userID, questType: questType, periodID: periodID, slots: slots}
	if v, ok := e.cache.get(key); ok {
		return v
	}
	v := generator.Generate(userID, periodID, e.catalog.Templates(questType), slots)
	e.cache.put(key, v)
	return v
}

func (e *Engine) readSet(ctx context.Context, userID string, questType model.PeriodType, periodID string) (model.QuestSet, error) {
	set, found, err := e.store.ReadQuestSet(ctx, userID, questType, periodID)
	if err != nil {
		return model.QuestSet{}, persistenceError(userID, "read quest set", err)
	}
	if !found {
		return model.QuestSet{}, newError(CodeNotFound, userID, "no %s quests this period", questType)
	}
	return set, nil
}

// QuestStatus is one instance of a set joined with its progress row.
type QuestStatus struct {
	Slot      int                 `json:"slot"` // 1-based
	QuestType model.PeriodType    `json:"quest_type"`
	PeriodID  string              `json:"period_id"`
	Instance  model.QuestInstance `json:"instance"`
	Progress  int64               `json:"progress"`
	Completed bool                `json:"completed"`
	Claimed   bool                `json:"claimed"`
}

// Quests returns the user's current set of questType with progress, in slot
// order. The set is generated if this is the first access of the period.
func (e *Engine) Quests(ctx context.Context, userID string, questType model.PeriodType) ([]QuestStatus, error) {
	set, err := e.GetOrGenerate(ctx, userID, questType)
	if err != nil {
		return nil, err
	}
	rows, err := e.store.ListQuestProgress(ctx, userID, set.PeriodID)
	if err != nil {
		return nil, persistenceError(userID, "list quest progress", err)
	}

	out := make([]QuestStatus, len(set.Instances))
	for i, inst := range set.Instances {
		p := rows[inst.InstanceID]
		out[i] = QuestStatus{
			Slot:      i + 1,
			QuestType: questType,
			PeriodID:  set.PeriodID,
			Instance:  inst,
			Progress:  p.Progress,
			Completed: p.Completed,
			Claimed:   p.Claimed,
		}
	}
	return out, nil
}
