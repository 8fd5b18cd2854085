package generator

import (
	"github.com/roach88/progression/internal/model"
)

// CategoryCap is the most instances of one category a set of slotCount may
// hold while the diversity pass is running.
func CategoryCap(slotCount int) int {
	return (slotCount + 1) / 2
}

// Generate selects up to slotCount templates for the user's period and
// instantiates them. The result depends only on its arguments.
//
// When templates holds fewer than slotCount entries every template is used.
func Generate(userID, periodID string, templates []model.QuestTemplate, slotCount int) []model.QuestInstance {
	if slotCount <= 0 || len(templates) == 0 {
		return []model.QuestInstance{}
	}
	seed := Seed(userID, periodID)

	shuffled := make([]model.QuestTemplate, len(templates))
	copy(shuffled, templates)
	Shuffle(NewRand(seed), shuffled)

	selected := selectDiverse(shuffled, slotCount)

	out := make([]model.QuestInstance, len(selected))
	for i, t := range selected {
		v := NewRand(SubSeed(seed, i)).Float64()
		out[i] = Instantiate(t, periodID, v)
	}
	return out
}

// selectDiverse admits templates in order while their category is under the
// cap, then fills any remaining slots ignoring the cap.
func selectDiverse(shuffled []model.QuestTemplate, slotCount int) []model.QuestTemplate {
	limit := CategoryCap(slotCount)
	perCategory := make(map[string]int)
	taken := make([]bool, len(shuffled))
	selected := make([]model.QuestTemplate, 0, slotCount)

	for i, t := range shuffled {
		if len(selected) == slotCount {
			break
		}
		if perCategory[t.Category] >= limit {
			continue
		}
		perCategory[t.Category]++
		taken[i] = true
		selected = append(selected, t)
	}

	for i, t := range shuffled {
		if len(selected) == slotCount {
			break
		}
		if taken[i] {
			continue
		}
		taken[i] = true
		selected = append(selected, t)
	}
	return selected
}

// Replacement draws a template absent from current to replace the instance at
// slot. rerollCount is the number of rerolls already spent in the period, so
// consecutive rerolls use different seeds. ok is false when every template is
// already present.
func Replacement(userID string, current model.QuestSet, templates []model.QuestTemplate, slot, rerollCount int) (inst model.QuestInstance, ok bool) {
	var candidates []model.QuestTemplate
	for _, t := range templates {
		if !current.HasTemplate(t.ID) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return model.QuestInstance{}, false
	}

	r := NewRand(RerollSeed(Seed(userID, current.PeriodID), rerollCount, slot))
	Shuffle(r, candidates)

	// Prefer a template that keeps the set within the diversity cap once the
	// rerolled slot is gone.
	limit := CategoryCap(len(current.Instances))
	perCategory := make(map[string]int)
	for i, existing := range current.Instances {
		if i != slot {
			perCategory[existing.Category]++
		}
	}
	pick := candidates[0]
	for _, t := range candidates {
		if perCategory[t.Category] < limit {
			pick = t
			break
		}
	}
	return Instantiate(pick, current.PeriodID, r.Float64()), true
}
