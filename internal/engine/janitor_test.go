package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/progression/internal/model"
	"github.com/roach88/progression/internal/store"
)

func TestJanitor_Sweep(t *testing.T) {
	env := newTestEnv(t, 4)
	_, err := env.engine.Track(env.ctx, "alice", "rolls", 100)
	require.NoError(t, err)

	j := NewJanitor(env.engine, time.Minute)

	report, err := j.Sweep(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Total(), "the current period is never swept")
	assert.Zero(t, report.CacheEntries)

	env.clock.Advance(8 * 24 * time.Hour)
	report, err = j.Sweep(env.ctx)
	require.NoError(t, err)

	assert.Equal(t, map[model.PeriodType]string{
		model.PeriodDaily:  "2024-01-09",
		model.PeriodWeekly: "2024-W02",
	}, report.Periods)
	assert.Equal(t, store.SweepResult{QuestSets: 1, QuestProgress: 1}, report.Removed[model.PeriodDaily])
	assert.Equal(t, store.SweepResult{QuestSets: 1, QuestProgress: 2}, report.Removed[model.PeriodWeekly])
	assert.Equal(t, int64(5), report.Total())
	assert.Equal(t, 2, report.CacheEntries)
	assert.Zero(t, env.engine.cache.len())

	achievements, err := env.engine.Achievements(env.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), achievements[0].Progress, "achievements survive a sweep")
	assert.Equal(t, int64(1), achievements[1].Progress)
}

func TestJanitor_SweepKeepsOtherUsersCurrentSets(t *testing.T) {
	env := newTestEnv(t, 4)
	env.quests(t, "alice", model.PeriodDaily)

	env.clock.Advance(24 * time.Hour)
	env.quests(t, "bob", model.PeriodDaily)

	report, err := NewJanitor(env.engine, 0).Sweep(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Removed[model.PeriodDaily].QuestSets)

	_, found, err := env.store.ReadQuestSet(env.ctx, "bob", model.PeriodDaily, "2024-01-02")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestNewJanitor_DefaultInterval(t *testing.T) {
	env := newTestEnv(t, 4)

	assert.Equal(t, DefaultJanitorInterval, NewJanitor(env.engine, 0).Interval())
	assert.Equal(t, DefaultJanitorInterval, NewJanitor(env.engine, -time.Second).Interval())
	assert.Equal(t, time.Minute, NewJanitor(env.engine, time.Minute).Interval())
}

func TestJanitor_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, 4)
	env.quests(t, "alice", model.PeriodDaily)
	env.clock.Advance(24 * time.Hour)

	ctx, cancel := context.WithCancel(env.ctx)
	done := make(chan error, 1)
	go func() {
		done <- NewJanitor(env.engine, time.Hour).Run(ctx)
	}()

	// Run sweeps once before waiting on the ticker.
	require.Eventually(t, func() bool {
		_, found, err := env.store.ReadQuestSet(env.ctx, "alice", model.PeriodDaily, "2024-01-01")
		return err == nil && !found
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
