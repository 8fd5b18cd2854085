// Package catalog holds the read-only quest templates and achievement
// definitions the engine generates from.
//
// A Catalog is built once at startup and injected into the engine; nothing
// mutates it afterwards, so it is safe to share between goroutines.
package catalog

import (
	"github.com/roach88/progression/internal/model"
)

// File is the on-disk catalog document.
type File struct {
	BadgeTiers   []model.BadgeTier             `yaml:"badge_tiers,omitempty"`
	Quests       QuestsByType                  `yaml:"quests"`
	Achievements []model.AchievementDefinition `yaml:"achievements"`
}

// QuestsByType groups templates by the period type they are drawn for.
type QuestsByType struct {
	Daily  []model.QuestTemplate `yaml:"daily"`
	Weekly []model.QuestTemplate `yaml:"weekly"`
}

// Catalog is the validated, indexed form of a File.
type Catalog struct {
	quests       map[model.PeriodType][]model.QuestTemplate
	achievements []model.AchievementDefinition
	byID         map[string]int
	byKey        map[string][]int
	badgeTiers   []model.BadgeTier
}

// New validates f and indexes it.
func New(f File) (*Catalog, error) {
	if err := Validate(f); err != nil {
		return nil, err
	}
	c := &Catalog{
		quests: map[model.PeriodType][]model.QuestTemplate{
			model.PeriodDaily:  cloneTemplates(f.Quests.Daily),
			model.PeriodWeekly: cloneTemplates(f.Quests.Weekly),
		},
		achievements: make([]model.AchievementDefinition, len(f.Achievements)),
		byID:         make(map[string]int, len(f.Achievements)),
		byKey:        make(map[string][]int),
		badgeTiers:   f.BadgeTiers,
	}
	copy(c.achievements, f.Achievements)
	for i, a := range c.achievements {
		c.byID[a.ID] = i
		c.byKey[a.TrackingKey] = append(c.byKey[a.TrackingKey], i)
	}
	return c, nil
}

// Templates returns a copy of the templates for quest type p, in catalog order.
func (c *Catalog) Templates(p model.PeriodType) []model.QuestTemplate {
	return cloneTemplates(c.quests[p])
}

// Template looks up a template by id within quest type p.
func (c *Catalog) Template(p model.PeriodType, id string) (model.QuestTemplate, bool) {
	for _, t := range c.quests[p] {
		if t.ID == id {
			return t, true
		}
	}
	return model.QuestTemplate{}, false
}

// Achievements returns every achievement definition in catalog order.
func (c *Catalog) Achievements() []model.AchievementDefinition {
	out := make([]model.AchievementDefinition, len(c.achievements))
	copy(out, c.achievements)
	return out
}

// Achievement looks up a definition by id.
func (c *Catalog) Achievement(id string) (model.AchievementDefinition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.AchievementDefinition{}, false
	}
	return c.achievements[i], true
}

// AchievementsTracking returns the definitions incremented by key.
func (c *Catalog) AchievementsTracking(key string) []model.AchievementDefinition {
	idx := c.byKey[key]
	out := make([]model.AchievementDefinition, len(idx))
	for i, j := range idx {
		out[i] = c.achievements[j]
	}
	return out
}

// BadgeTiers returns the catalog-wide badge rarity thresholds, which may be
// empty.
func (c *Catalog) BadgeTiers() []model.BadgeTier {
	return c.badgeTiers
}

func cloneTemplates(ts []model.QuestTemplate) []model.QuestTemplate {
	out := make([]model.QuestTemplate, len(ts))
	copy(out, ts)
	return out
}
