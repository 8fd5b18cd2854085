package generator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/progression/internal/catalog"
	"github.com/roach88/progression/internal/model"
)

func defaultTemplates(t *testing.T, p model.PeriodType) []model.QuestTemplate {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return c.Templates(p)
}

func categoryTemplates(counts map[string]int) []model.QuestTemplate {
	var out []model.QuestTemplate
	for _, cat := range []string{"a", "b", "c"} {
		for i := 0; i < counts[cat]; i++ {
			out = append(out, model.QuestTemplate{
				ID:          fmt.Sprintf("%s_%d", cat, i),
				Category:    cat,
				MinGoal:     10,
				MaxGoal:     100,
				BaseGoal:    10,
				TrackingKey: cat,
			})
		}
	}
	return out
}

func renderSet(insts []model.QuestInstance) string {
	var b strings.Builder
	for i, inst := range insts {
		fmt.Fprintf(&b, "%d %s %s goal=%d difficulty=%s reward=%d/%d/%d",
			i+1, inst.InstanceID, inst.Category, inst.Goal, inst.Difficulty,
			inst.Reward.Coins, inst.Reward.Gems, inst.Reward.Tickets)
		for _, it := range inst.Reward.Items {
			fmt.Fprintf(&b, " +%dx%s", it.Quantity, it.Name)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func TestGenerate_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	cases := []struct {
		name  string
		qtype model.PeriodType
		sets  [][3]string
		slots []int
	}{
		{
			name:  "daily_sets",
			qtype: model.PeriodDaily,
			sets:  [][3]string{{"alice", "2024-01-01"}, {"bob", "2024-01-01"}, {"alice", "2024-01-02"}},
			slots: []int{5, 5, 3},
		},
		{
			name:  "weekly_sets",
			qtype: model.PeriodWeekly,
			sets:  [][3]string{{"alice", "2024-W01"}},
			slots: []int{5},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			templates := defaultTemplates(t, tc.qtype)
			var b strings.Builder
			for i, s := range tc.sets {
				fmt.Fprintf(&b, "# %s %s slots=%d\n", s[0], s[1], tc.slots[i])
				b.WriteString(renderSet(Generate(s[0], s[1], templates, tc.slots[i])))
			}
			g.Assert(t, tc.name, []byte(b.String()))
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodDaily)

	first := Generate("alice", "2024-01-01", templates, 5)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Generate("alice", "2024-01-01", templates, 5))
	}
}

func TestGenerate_DoesNotMutateTemplates(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodDaily)
	before := make([]model.QuestTemplate, len(templates))
	copy(before, templates)

	Generate("alice", "2024-01-01", templates, 5)
	assert.Equal(t, before, templates)
}

func TestGenerate_DistinctTemplates(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodDaily)
	for _, user := range []string{"alice", "bob", "carol", "dave"} {
		set := Generate(user, "2024-03-15", templates, 5)
		require.Len(t, set, 5)

		seen := make(map[string]bool)
		for _, inst := range set {
			assert.False(t, seen[inst.TemplateID], "template %s drawn twice for %s", inst.TemplateID, user)
			seen[inst.TemplateID] = true
			assert.GreaterOrEqual(t, inst.Goal, int64(1))
		}
	}
}

func TestGenerate_GoalsWithinRange(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodWeekly)
	byID := make(map[string]model.QuestTemplate)
	for _, tmpl := range templates {
		byID[tmpl.ID] = tmpl
	}

	for week := 1; week <= 28; week++ {
		period := fmt.Sprintf("2024-W%02d", week)
		for _, inst := range Generate("user-"+period, period, templates, 4) {
			tmpl := byID[inst.TemplateID]
			assert.GreaterOrEqual(t, inst.Goal, tmpl.MinGoal, inst.InstanceID)
			assert.LessOrEqual(t, inst.Goal, tmpl.MaxGoal, inst.InstanceID)
		}
	}
}

func TestGenerate_CategoryCap(t *testing.T) {
	templates := categoryTemplates(map[string]int{"a": 6, "b": 2})

	for _, user := range []string{"alice", "bob", "carol", "dave", "erin"} {
		set := Generate(user, "2024-01-01", templates, 4)
		counts := make(map[string]int)
		for _, inst := range set {
			counts[inst.Category]++
		}
		assert.Equal(t, 2, counts["a"], user)
		assert.Equal(t, 2, counts["b"], user)
	}
}

func TestGenerate_CapRelaxedWhenCategoriesRunOut(t *testing.T) {
	templates := categoryTemplates(map[string]int{"a": 6, "b": 1})

	set := Generate("alice", "2024-01-01", templates, 4)
	require.Len(t, set, 4)
	counts := make(map[string]int)
	for _, inst := range set {
		counts[inst.Category]++
	}
	assert.Equal(t, 3, counts["a"])
	assert.Equal(t, 1, counts["b"])
}

func TestGenerate_FewerTemplatesThanSlots(t *testing.T) {
	templates := categoryTemplates(map[string]int{"a": 1, "b": 1})
	set := Generate("alice", "2024-01-01", templates, 5)
	assert.Len(t, set, 2)
}

func TestGenerate_Empty(t *testing.T) {
	assert.Empty(t, Generate("alice", "2024-01-01", nil, 5))
	assert.Empty(t, Generate("alice", "2024-01-01", categoryTemplates(map[string]int{"a": 3}), 0))
	assert.NotNil(t, Generate("alice", "2024-01-01", nil, 5))
}

func TestCategoryCap(t *testing.T) {
	assert.Equal(t, 1, CategoryCap(1))
	assert.Equal(t, 1, CategoryCap(2))
	assert.Equal(t, 2, CategoryCap(3))
	assert.Equal(t, 3, CategoryCap(5))
}

func TestReplacement(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodDaily)
	set := model.QuestSet{
		UserID:    "alice",
		QuestType: model.PeriodDaily,
		PeriodID:  "2024-01-01",
		Instances: Generate("alice", "2024-01-01", templates, 5),
	}

	first, ok := Replacement("alice", set, templates, 0, 0)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01:daily_crafts", first.InstanceID)
	assert.Equal(t, int64(7), first.Goal)

	second, ok := Replacement("alice", set, templates, 0, 1)
	require.True(t, ok)
	assert.Equal(t, "2024-01-01:daily_coins", second.InstanceID)
	assert.Equal(t, int64(25800), second.Goal)
	assert.Equal(t, int64(12), second.Reward.Gems)

	for _, n := range []int{0, 1, 2, 3} {
		inst, ok := Replacement("alice", set, templates, 2, n)
		require.True(t, ok)
		assert.False(t, set.HasTemplate(inst.TemplateID), "replacement %s already in set", inst.TemplateID)
	}
}

func TestReplacement_Deterministic(t *testing.T) {
	templates := defaultTemplates(t, model.PeriodDaily)
	set := model.QuestSet{PeriodID: "2024-01-01", Instances: Generate("bob", "2024-01-01", templates, 5)}

	a, okA := Replacement("bob", set, templates, 3, 2)
	b, okB := Replacement("bob", set, templates, 3, 2)
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

func TestReplacement_PrefersCategoryUnderCap(t *testing.T) {
	templates := categoryTemplates(map[string]int{"a": 6, "b": 2, "c": 1})
	set := model.QuestSet{
		PeriodID: "2024-01-01",
		Instances: []model.QuestInstance{
			{TemplateID: "a_0", Category: "a"},
			{TemplateID: "a_1", Category: "a"},
			{TemplateID: "b_0", Category: "b"},
			{TemplateID: "c_0", Category: "c"},
		},
	}

	// Category a is already at the cap, so b_1 is the only admissible pick.
	for n := 0; n < 5; n++ {
		inst, ok := Replacement("alice", set, templates, 2, n)
		require.True(t, ok)
		assert.Equal(t, "b_1", inst.TemplateID)
	}
}

func TestReplacement_Exhausted(t *testing.T) {
	templates := categoryTemplates(map[string]int{"a": 2})
	set := model.QuestSet{PeriodID: "2024-01-01", Instances: Generate("alice", "2024-01-01", templates, 2)}

	_, ok := Replacement("alice", set, templates, 0, 0)
	assert.False(t, ok)
}
