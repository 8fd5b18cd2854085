package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/progression/internal/testutil"
)

// testOptions returns options pointing at a fresh database and the fixed
// test catalog, with a manual clock at 2024-01-01.
func testOptions(t *testing.T, env map[string]string) (*RootOptions, *testutil.ManualClock) {
	t.Helper()
	clock := testutil.NewManualClock(testutil.Date(2024, 1, 1))
	vars := map[string]string{
		"PROGRESSION_DB_PATH":      filepath.Join(t.TempDir(), "test.db"),
		"PROGRESSION_CATALOG_PATH": filepath.Join("testdata", "catalog.yaml"),
		"PROGRESSION_DAILY_SLOTS":  "4",
		"PROGRESSION_WEEKLY_SLOTS": "2",
	}
	for k, v := range env {
		vars[k] = v
	}
	return &RootOptions{
		Env:   vars,
		Clock: clock,
		IDs:   testutil.NewSequentialIDGenerator("settlement"),
	}, clock
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommandWithOptions(opts)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decode parses a JSON CLI response.
func decode(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// dataMap returns the response payload as a generic map.
func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}
