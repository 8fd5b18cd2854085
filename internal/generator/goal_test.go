package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/progression/internal/model"
)

func TestNiceRound(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{3.4, 3},
		{7.5, 8},
		{9.49, 9},
		{10, 10},
		{12.4, 10},
		{12.5, 15},
		{99.9, 100},
		{104, 100},
		{105, 110},
		{999, 1000},
		{1049, 1000},
		{1050, 1100},
		{25840, 25800},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NiceRound(tt.in), "NiceRound(%v)", tt.in)
	}
}

func TestResolveGoal(t *testing.T) {
	tmpl := model.QuestTemplate{MinGoal: 100, MaxGoal: 1000}
	assert.Equal(t, int64(100), ResolveGoal(tmpl, 0))
	assert.Equal(t, int64(550), ResolveGoal(tmpl, 0.5))
	assert.Equal(t, int64(1000), ResolveGoal(tmpl, 0.999))
}

func TestResolveGoal_ClampsRoundedValue(t *testing.T) {
	// 11 rounds to 10 at this magnitude, which is below the range.
	low := model.QuestTemplate{MinGoal: 11, MaxGoal: 12}
	assert.Equal(t, int64(11), ResolveGoal(low, 0))

	// 1254 rounds to 1300, above the range.
	high := model.QuestTemplate{MinGoal: 1200, MaxGoal: 1260}
	assert.Equal(t, int64(1260), ResolveGoal(high, 0.9))
}

func TestResolveGoal_DegenerateRange(t *testing.T) {
	tmpl := model.QuestTemplate{MinGoal: 7, MaxGoal: 7}
	for _, v := range []float64{0, 0.3, 0.99} {
		assert.Equal(t, int64(7), ResolveGoal(tmpl, v))
	}
}

func TestScaleReward(t *testing.T) {
	tmpl := model.QuestTemplate{
		BaseGoal: 100,
		BaseReward: model.Reward{
			Coins: 500,
			Gems:  3,
			Items: []model.Item{{Name: "Shard", Quantity: 2}},
		},
	}

	r := ScaleReward(tmpl, 150)
	assert.Equal(t, int64(750), r.Coins)
	assert.Equal(t, int64(4), r.Gems, "4.5 floors to 4")
	assert.Equal(t, int64(0), r.Tickets)
	assert.Equal(t, []model.Item{{Name: "Shard", Quantity: 2}}, r.Items, "items are not scaled")

	half := ScaleReward(tmpl, 50)
	assert.Equal(t, int64(250), half.Coins)
	assert.Equal(t, int64(1), half.Gems)
}

func TestScaleReward_ZeroBaseGoal(t *testing.T) {
	tmpl := model.QuestTemplate{BaseReward: model.Reward{Coins: 10}}
	assert.Equal(t, int64(10), ScaleReward(tmpl, 999).Coins)
}

func TestInstantiate(t *testing.T) {
	tmpl := model.QuestTemplate{
		ID:          "daily_rolls",
		Category:    "rolling",
		Description: "Roll {goal} times",
		MinGoal:     100,
		MaxGoal:     1000,
		BaseGoal:    100,
		BaseReward:  model.Reward{Coins: 100},
		TrackingKey: "rolls",
	}

	inst := Instantiate(tmpl, "2024-01-01", 0.5)
	assert.Equal(t, "2024-01-01:daily_rolls", inst.InstanceID)
	assert.Equal(t, "daily_rolls", inst.TemplateID)
	assert.Equal(t, "rolling", inst.Category)
	assert.Equal(t, "rolls", inst.TrackingKey)
	assert.Equal(t, int64(550), inst.Goal)
	assert.Equal(t, "Roll 550 times", inst.Description)
	assert.Equal(t, int64(550), inst.Reward.Coins)
	assert.Equal(t, model.DifficultyMedium, inst.Difficulty)
}
