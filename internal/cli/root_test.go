package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "progression", cmd.Use)
	assert.Contains(t, cmd.Long, "PROGRESSION_")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"quests"},
		{"track"},
		{"reroll"},
		{"claim"},
		{"achievements"},
		{"sweep"},
		{"janitor"},
		{"catalog", "validate"},
		{"catalog", "show"},
		{"test"},
	}

	for _, path := range commands {
		t.Run(path[len(path)-1], func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)

	catalogFlag := cmd.PersistentFlags().Lookup("catalog")
	require.NotNil(t, catalogFlag)
	assert.Equal(t, "", catalogFlag.DefValue)
}

func TestTypeFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"quests", "reroll"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			typeFlag := sub.Flags().Lookup("type")
			require.NotNil(t, typeFlag)
			assert.Equal(t, "t", typeFlag.Shorthand)
			assert.Equal(t, "daily", typeFlag.DefValue)
		})
	}
}

func TestRerollBalanceDefault(t *testing.T) {
	cmd := NewRootCommand()
	sub, _, err := cmd.Find([]string{"reroll"})
	require.NoError(t, err)

	balance := sub.Flags().Lookup("balance")
	require.NotNil(t, balance)
	assert.Equal(t, "-1", balance.DefValue)
}

func TestInvalidFormat(t *testing.T) {
	opts, _ := testOptions(t, nil)
	_, err := execute(t, opts, "--format", "xml", "quests", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
