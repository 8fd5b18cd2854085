package engine

import (
	"context"
	"errors"

	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

var errNothingToClaim = errors.New("nothing to claim")

// ClaimAll settles everything the user can currently be paid for: every
// completed, unclaimed instance of the current daily and weekly sets and
// every achievement milestone the progress covers, including scaled tiers.
//
// All claim flags are flipped in one transaction through conditional
// writes, so a quest or milestone is paid by at most one of any number of
// concurrent calls. When nothing qualifies the transaction is rolled back
// and NOTHING_TO_CLAIM is returned; a no-op claim writes nothing.
//
// The returned bundle carries a fresh SettlementID. Crediting it is the
// caller's job.
func (e *Engine) ClaimAll(ctx context.Context, userID string) (model.RewardBundle, error) {
	if err := validateUser(userID); err != nil {
		return model.RewardBundle{}, err
	}

	bundle := model.RewardBundle{UserID: userID}
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		for _, pt := range model.PeriodTypes {
			if err := e.claimQuests(ctx, tx, userID, pt, &bundle); err != nil {
				return err
			}
		}
		if err := e.claimMilestones(ctx, tx, userID, &bundle); err != nil {
			return err
		}
		if len(bundle.Quests) == 0 && len(bundle.Milestones) == 0 {
			return errNothingToClaim
		}
		return nil
	})
	if errors.Is(err, errNothingToClaim) {
		e.log.Debug("nothing to claim", "user", userID)
		return model.RewardBundle{}, newError(CodeNothingToClaim, userID, "nothing to claim")
	}
	if err != nil {
		e.log.Error("settlement failed", "user", userID, "error", err)
		return model.RewardBundle{}, persistenceError(userID, "settle", err)
	}

	bundle.SettlementID = e.ids.Generate()
	e.log.Info("settled",
		"user", userID,
		"settlement", bundle.SettlementID,
		"quests", len(bundle.Quests),
		"milestones", len(bundle.Milestones),
		"coins", bundle.Reward.Coins,
		"gems", bundle.Reward.Gems,
		"tickets", bundle.Reward.Tickets,
		"items", len(bundle.Reward.Items))
	return bundle, nil
}

func (e *Engine) claimQuests(ctx context.Context, tx *store.Tx, userID string, questType model.PeriodType, bundle *model.RewardBundle) error {
	periodID := e.CurrentPeriod(questType)
	set, found, err := tx.ReadQuestSet(ctx, userID, questType, periodID)
	if err != nil || !found {
		return err
	}
	for _, inst := range set.Instances {
		claimed, err := tx.ClaimQuest(ctx, userID, periodID, inst.InstanceID)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		bundle.Reward = bundle.Reward.Plus(inst.Reward)
		bundle.Quests = append(bundle.Quests, inst.InstanceID)
	}
	return nil
}

func (e *Engine) claimMilestones(ctx context.Context, tx *store.Tx, userID string, bundle *model.RewardBundle) error {
	progress, err := tx.ReadAchievements(ctx, userID)
	if err != nil {
		return err
	}
	for _, def := range e.catalog.Achievements() {
		p, ok := progress[def.ID]
		if !ok {
			continue
		}
		for _, pay := range e.scaler.Payable(def, p.Progress, p.Claimed) {
			inserted, err := tx.ClaimMilestone(ctx, userID, def.ID, pay.Index)
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			bundle.Reward = bundle.Reward.Plus(pay.Milestone.Reward)
			bundle.Milestones = append(bundle.Milestones, model.MilestoneRef{
				AchievementID: def.ID,
				Index:         pay.Index,
				Count:         pay.Milestone.Count,
			})
		}
	}
	return nil
}

// ClaimQuest settles a single quest instance of either current set.
//
// Returns NOT_FOUND for an instance in neither set, VALIDATION when the quest
// is not completed yet, and ALREADY_CLAIMED when it was paid before.
func (e *Engine) ClaimQuest(ctx context.Context, userID, instanceID string) (model.RewardBundle, error) {
	if err := validateUser(userID); err != nil {
		return model.RewardBundle{}, err
	}

	bundle := model.RewardBundle{UserID: userID}
	var refusal *Error
	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		for _, pt := range model.PeriodTypes {
			periodID := e.CurrentPeriod(pt)
			set, found, err := tx.ReadQuestSet(ctx, userID, pt, periodID)
			if err != nil {
				return err
			}
			idx := set.Find(instanceID)
			if !found || idx < 0 {
				continue
			}

			p, _, err := tx.ReadQuestProgress(ctx, userID, periodID, instanceID)
			if err != nil {
				return err
			}
			switch {
			case p.Claimed:
				refusal = newError(CodeAlreadyClaimed, userID, "quest %q was already claimed", instanceID)
				return refusal
			case !p.Completed:
				refusal = newError(CodeValidation, userID, "quest %q is not completed (%d/%d)", instanceID, p.Progress, set.Instances[idx].Goal)
				return refusal
			}

			claimed, err := tx.ClaimQuest(ctx, userID, periodID, instanceID)
			if err != nil {
				return err
			}
			if !claimed {
				refusal = newError(CodeAlreadyClaimed, userID, "quest %q was already claimed", instanceID)
				return refusal
			}
			bundle.Reward = bundle.Reward.Plus(set.Instances[idx].Reward)
			bundle.Quests = append(bundle.Quests, instanceID)
			return nil
		}
		refusal = newError(CodeNotFound, userID, "no quest %q in your current sets", instanceID)
		return refusal
	})
	if refusal != nil && errors.Is(err, refusal) {
		return model.RewardBundle{}, refusal
	}
	if err != nil {
		e.log.Error("quest claim failed", "user", userID, "instance", instanceID, "error", err)
		return model.RewardBundle{}, persistenceError(userID, "claim quest", err)
	}

	bundle.SettlementID = e.ids.Generate()
	e.log.Info("quest claimed", "user", userID, "instance", instanceID, "settlement", bundle.SettlementID)
	return bundle, nil
}
