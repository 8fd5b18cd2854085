package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/progression/internal/generator"
	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

// AffordFunc asks the caller's ledger whether the user can pay cost. It must
// not debit anything: the engine calls it before writing, and the caller
// debits only after Reroll succeeds. A non-nil error refuses the reroll.
type AffordFunc func(ctx context.Context, cost model.Reward) error

// Reroll replaces one untouched instance of the user's current set of
// questType with a template not already in the set.
//
// Preconditions are checked in order and the first failure wins:
// LIMIT_REACHED, NOT_FOUND, IN_PROGRESS, NO_ALTERNATIVES, then
// INSUFFICIENT_RESOURCE from afford. A nil afford means the reroll is free.
// Nothing is written unless all of them pass.
//
// The swap and the counter bump commit together. If another request changed
// the set, the counter or the instance's progress in between, nothing is
// written and CONFLICT is returned.
func (e *Engine) Reroll(ctx context.Context, userID string, questType model.PeriodType, instanceID string, afford AffordFunc) (model.QuestInstance, error) {
	set, err := e.GetOrGenerate(ctx, userID, questType)
	if err != nil {
		return model.QuestInstance{}, err
	}
	return e.reroll(ctx, set, func(set model.QuestSet) (int, error) {
		slot := set.Find(instanceID)
		if slot < 0 {
			return 0, newError(CodeNotFound, userID, "no quest %q in the current %s set", instanceID, questType)
		}
		return slot, nil
	}, afford)
}

// RerollSlot is Reroll addressed by 1-based slot instead of instance id. A
// slot outside the set is VALIDATION, checked where Reroll checks NOT_FOUND.
func (e *Engine) RerollSlot(ctx context.Context, userID string, questType model.PeriodType, slot int, afford AffordFunc) (model.QuestInstance, error) {
	set, err := e.GetOrGenerate(ctx, userID, questType)
	if err != nil {
		return model.QuestInstance{}, err
	}
	return e.reroll(ctx, set, func(set model.QuestSet) (int, error) {
		if slot < 1 || slot > len(set.Instances) {
			return 0, &Error{
				Code:    CodeValidation,
				Message: fmt.Sprintf("slot must be between 1 and %d, got %d", len(set.Instances), slot),
				UserID:  userID,
				Details: map[string]string{"slot": fmt.Sprint(slot)},
			}
		}
		return slot - 1, nil
	}, afford)
}

// reroll runs the shared checks. locate resolves the target to a 0-based
// slot and runs right after the limit check, so an exhausted budget is
// reported before a bad target.
func (e *Engine) reroll(ctx context.Context, set model.QuestSet, locate func(model.QuestSet) (int, error), afford AffordFunc) (model.QuestInstance, error) {
	userID, questType := set.UserID, set.QuestType
	rules := e.rules[questType]

	count, err := e.store.RerollCount(ctx, userID, questType, set.PeriodID)
	if err != nil {
		return model.QuestInstance{}, persistenceError(userID, "read reroll count", err)
	}
	if count >= rules.MaxRerolls {
		return model.QuestInstance{}, &Error{
			Code:    CodeLimitReached,
			Message: fmt.Sprintf("no %s rerolls left this period (%d/%d used)", questType, count, rules.MaxRerolls),
			UserID:  userID,
			Details: map[string]string{"used": fmt.Sprint(count), "max": fmt.Sprint(rules.MaxRerolls)},
		}
	}

	slot, err := locate(set)
	if err != nil {
		return model.QuestInstance{}, err
	}
	instanceID := set.Instances[slot].InstanceID

	p, _, err := e.store.ReadQuestProgress(ctx, userID, set.PeriodID, instanceID)
	if err != nil {
		return model.QuestInstance{}, persistenceError(userID, "read quest progress", err)
	}
	if p.Progress > 0 {
		return model.QuestInstance{}, newError(CodeInProgress, userID, "quest %q has progress and cannot be rerolled", instanceID)
	}

	replacement, ok := generator.Replacement(userID, set, e.catalog.Templates(questType), slot, count)
	if !ok {
		return model.QuestInstance{}, newError(CodeNoAlternatives, userID, "every %s quest is already in your set", questType)
	}

	if afford != nil {
		if err := afford(ctx, rules.RerollCost); err != nil {
			return model.QuestInstance{}, &Error{
				Code:    CodeInsufficientResource,
				Message: "you cannot afford this reroll",
				UserID:  userID,
				Err:     err,
			}
		}
	}

	_, err = e.store.ApplyReroll(ctx, store.RerollChange{
		Set:           set,
		Slot:          slot,
		Replacement:   replacement,
		ExpectedCount: count,
		MaxRerolls:    rules.MaxRerolls,
	})
	if errors.Is(err, store.ErrConflict) {
		e.log.Debug("reroll lost a race", "user", userID, "type", questType, "error", err)
		return model.QuestInstance{}, &Error{
			Code:    CodeConflict,
			Message: "quest set changed, try again",
			UserID:  userID,
			Err:     err,
		}
	}
	if err != nil {
		e.log.Error("apply reroll failed", "user", userID, "type", questType, "error", err)
		return model.QuestInstance{}, persistenceError(userID, "apply reroll", err)
	}

	e.log.Info("quest rerolled",
		"user", userID,
		"type", questType,
		"period", set.PeriodID,
		"slot", slot+1,
		"from", set.Instances[slot].TemplateID,
		"to", replacement.TemplateID,
		"used", count+1)
	return replacement, nil
}

// RerollState summarizes the reroll budget of one quest type.
type RerollState struct {
	QuestType model.PeriodType `json:"quest_type"`
	PeriodID  string           `json:"period_id"`
	Used      int              `json:"used"`
	Max       int              `json:"max"`
	Cost      model.Reward     `json:"cost"`
}

// Remaining returns how many rerolls are left this period.
func (s RerollState) Remaining() int {
	return max(s.Max-s.Used, 0)
}

// RerollStatus reports the user's reroll budget for the current period.
func (e *Engine) RerollStatus(ctx context.Context, userID string, questType model.PeriodType) (RerollState, error) {
	if err := validateUser(userID); err != nil {
		return RerollState{}, err
	}
	if err := validateQuestType(userID, questType); err != nil {
		return RerollState{}, err
	}
	rules := e.rules[questType]
	periodID := e.CurrentPeriod(questType)
	used, err := e.store.RerollCount(ctx, userID, questType, periodID)
	if err != nil {
		return RerollState{}, persistenceError(userID, "read reroll count", err)
	}
	return RerollState{
		QuestType: questType,
		PeriodID:  periodID,
		Used:      used,
		Max:       rules.MaxRerolls,
		Cost:      rules.RerollCost,
	}, nil
}
