package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "prices", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "list", "add", "update", "remove", "import-comics", "check"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
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

	for _, name := range []string{"config", "driver", "db", "metrics-addr"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestEditCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	updateCmd, _, err := cmd.Find([]string{"update"})
	require.NoError(t, err)
	assert.Equal(t, "-1", updateCmd.Flags().Lookup("version").DefValue)
	assert.Equal(t, "{}", updateCmd.Flags().Lookup("set").DefValue)

	addCmd, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)
	assert.NotNil(t, addCmd.Flags().Lookup("prune"))
	assert.Nil(t, addCmd.Flags().Lookup("version"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "init", "--format", "xml", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: sqlite\ndsn: ignored.db\nlog:\n  level: warn\n"), 0o644))

	db := tempDB(t)
	out, err := execute(t, "init", "--config", path, "--db", db, "--format", "json")
	require.NoError(t, err)

	data := decodeData(t, out)
	assert.Equal(t, "sqlite", data["driver"])
	assert.Equal(t, "prices", data["database"])
	assert.FileExists(t, db)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: oracle\n"), 0o644))

	_, err := execute(t, "init", "--config", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestInvalidDriverFlag(t *testing.T) {
	_, err := execute(t, "init", "--driver", "oracle", "--db", tempDB(t))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid flags")
}
