package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuests_GeneratesStableSet(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "quests", "alice")
	require.NoError(t, err)

	resp := decode(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := dataMap(t, resp)
	assert.Equal(t, "daily", data["quest_type"])
	assert.Equal(t, "2024-01-01", data["period_id"])
	quests, ok := data["quests"].([]any)
	require.True(t, ok)
	assert.Len(t, quests, 4)

	again, err := execute(t, opts, "--format", "json", "quests", "alice")
	require.NoError(t, err)
	assert.Equal(t, out, again, "second listing must return the stored set")
}

func TestQuests_Weekly(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "quests", "alice", "--type", "weekly")
	require.NoError(t, err)

	data := dataMap(t, decode(t, out))
	assert.Equal(t, "2024-W01", data["period_id"])
	rerolls, ok := data["rerolls"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), rerolls["max"])
}

func TestQuests_TextOutput(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "quests", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Daily quests for alice (2024-01-01)")
	assert.Contains(t, out, "Roll 1000 times")
	assert.Contains(t, out, "0/1,000")
	assert.Contains(t, out, "Rerolls: 3 of 3 left (cost 50 gems)")
}

func TestQuests_InvalidType(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "quests", "alice", "--type", "monthly")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [VALIDATION]")
}

func TestTrack_FansOutAndCompletes(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "track", "alice", "rolls", "1000")
	require.NoError(t, err)

	data := dataMap(t, decode(t, out))
	quests, ok := data["quests"].([]any)
	require.True(t, ok)

	byTemplate := map[string]map[string]any{}
	for _, q := range quests {
		m := q.(map[string]any)
		byTemplate[m["template_id"].(string)] = m
	}
	require.Contains(t, byTemplate, "daily_rolls")
	assert.Equal(t, true, byTemplate["daily_rolls"]["just_completed"])
	assert.Equal(t, float64(1000), byTemplate["weekly_rolls"]["progress"])
	// Completing a daily counts toward the weekly "complete dailies" quest
	assert.Equal(t, float64(1), byTemplate["weekly_dailies"]["progress"])

	achievements, ok := data["achievements"].([]any)
	require.True(t, ok)
	assert.Len(t, achievements, 2)
}

func TestTrack_Validation(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "track", "alice", "rolls", "--", "-5")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)

	_, err = execute(t, opts, "track", "alice", "rolls", "many")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrack_UnknownKey(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "track", "alice", "fishing", "3")
	require.NoError(t, err)
	assert.Contains(t, out, `Nothing tracks "fishing".`)
}

func TestClaim_SettlesOnce(t *testing.T) {
	opts, _ := testOptions(t, nil)

	_, err := execute(t, opts, "track", "alice", "rolls", "1000")
	require.NoError(t, err)

	out, err := execute(t, opts, "--format", "json", "claim", "alice")
	require.NoError(t, err)

	data := dataMap(t, decode(t, out))
	assert.Equal(t, "settlement-0001", data["settlement_id"])
	assert.Equal(t, []any{"2024-01-01:daily_rolls"}, data["quests"])
	reward := data["reward"].(map[string]any)
	assert.Equal(t, float64(40725), reward["coins"])
	assert.Equal(t, float64(5), reward["gems"])

	out, err = execute(t, opts, "--format", "json", "claim", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOTHING_TO_CLAIM", resp.Error.Code)
}

func TestClaim_TextOutput(t *testing.T) {
	opts, _ := testOptions(t, nil)

	_, err := execute(t, opts, "track", "alice", "prayers", "10")
	require.NoError(t, err)

	out, err := execute(t, opts, "claim", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Settlement settlement-0001 for alice")
	assert.Contains(t, out, "Reward: 50 coins, 6 gems")
	assert.Contains(t, out, "quest 2024-01-01:daily_prayers")
	assert.Contains(t, out, "milestone dedicated #1")
}

func TestClaim_SingleQuest(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "claim", "alice", "--quest", "2024-01-01:daily_crafts")
	require.Error(t, err)
	resp := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code, "no set exists before the first listing")

	_, err = execute(t, opts, "quests", "alice")
	require.NoError(t, err)

	out, err = execute(t, opts, "--format", "json", "claim", "alice", "--quest", "2024-01-01:daily_crafts")
	require.Error(t, err)
	resp = decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)

	_, err = execute(t, opts, "track", "alice", "crafts", "5")
	require.NoError(t, err)

	out, err = execute(t, opts, "--format", "json", "claim", "alice", "--quest", "2024-01-01:daily_crafts")
	require.NoError(t, err)
	data := dataMap(t, decode(t, out))
	reward := data["reward"].(map[string]any)
	assert.Equal(t, float64(20), reward["coins"])

	out, err = execute(t, opts, "--format", "json", "claim", "alice", "--quest", "2024-01-01:daily_crafts")
	require.Error(t, err)
	resp = decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_CLAIMED", resp.Error.Code)
}

func TestReroll_BalanceAndLimit(t *testing.T) {
	opts, _ := testOptions(t, map[string]string{
		"PROGRESSION_DAILY_SLOTS":       "3",
		"PROGRESSION_DAILY_MAX_REROLLS": "1",
	})

	out, err := execute(t, opts, "--format", "json", "reroll", "bob", "1", "--balance", "10")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	resp := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_RESOURCE", resp.Error.Code)

	out, err = execute(t, opts, "--format", "json", "reroll", "bob", "1", "--balance", "50")
	require.NoError(t, err)
	data := dataMap(t, decode(t, out))
	rerolls := data["rerolls"].(map[string]any)
	assert.Equal(t, float64(1), rerolls["used"])

	out, err = execute(t, opts, "--format", "json", "reroll", "bob", "2")
	require.Error(t, err)
	resp = decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "LIMIT_REACHED", resp.Error.Code)
}

func TestReroll_BadSlot(t *testing.T) {
	opts, _ := testOptions(t, nil)

	out, err := execute(t, opts, "--format", "json", "reroll", "bob", "9")
	require.Error(t, err)
	resp := decode(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION", resp.Error.Code)

	_, err = execute(t, opts, "reroll", "bob", "first")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAchievements_ShowsNextMilestone(t *testing.T) {
	opts, _ := testOptions(t, nil)

	_, err := execute(t, opts, "track", "alice", "rolls", "150")
	require.NoError(t, err)

	out, err := execute(t, opts, "--format", "json", "achievements", "alice")
	require.NoError(t, err)
	resp := decode(t, out)
	list, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, list, 2)

	roller := list[0].(map[string]any)
	assert.Equal(t, "roller", roller["id"])
	assert.Equal(t, float64(150), roller["progress"])
	assert.Equal(t, float64(1), roller["claimable"])

	text, err := execute(t, opts, "achievements", "alice")
	require.NoError(t, err)
	assert.Contains(t, text, "Roller (roller): 150 / 100")
	assert.Contains(t, text, "(1 claimable)")
}

func TestSweep_RemovesExpiredPeriods(t *testing.T) {
	opts, clock := testOptions(t, nil)

	_, err := execute(t, opts, "track", "carol", "rolls", "1000")
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)

	out, err := execute(t, opts, "--format", "json", "sweep")
	require.NoError(t, err)
	data := dataMap(t, decode(t, out))
	removed := data["removed"].(map[string]any)
	daily := removed["daily"].(map[string]any)
	weekly := removed["weekly"].(map[string]any)
	assert.Equal(t, float64(1), daily["quest_sets"])
	assert.Equal(t, float64(1), daily["quest_progress"])
	assert.Equal(t, float64(1), weekly["quest_sets"])
	assert.Equal(t, float64(2), weekly["quest_progress"])

	// Achievements survive the sweep
	out, err = execute(t, opts, "--format", "json", "achievements", "carol")
	require.NoError(t, err)
	list := decode(t, out).Data.([]any)
	assert.Equal(t, float64(1000), list[0].(map[string]any)["progress"])

	text, err := execute(t, opts, "sweep")
	require.NoError(t, err)
	assert.Contains(t, text, "Removed 0 rows")
}

func TestJanitor_StopsOnCancel(t *testing.T) {
	opts, _ := testOptions(t, nil)

	cmd := NewRootCommandWithOptions(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"janitor", "--interval", "1h"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Janitor stopped.")
}

func TestSession_ConfigErrors(t *testing.T) {
	opts, _ := testOptions(t, map[string]string{"PROGRESSION_DAILY_SLOTS": "0"})

	out, err := execute(t, opts, "quests", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CONFIG]")
}

func TestSession_FlagsOverrideEnv(t *testing.T) {
	opts, _ := testOptions(t, nil)
	dbPath := filepath.Join(t.TempDir(), "flag.db")

	_, err := execute(t, opts, "--db", dbPath, "quests", "alice")
	require.NoError(t, err)
	assert.FileExists(t, dbPath)

	out, err := execute(t, opts, "--catalog", filepath.Join("testdata", "missing.yaml"), "quests", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_CATALOG]")
}
