package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const examplesDir = "../../testdata/examples"

func examplePath(name string) string {
	return filepath.Join(examplesDir, name)
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "vecsynth", cmd.Use)
	assert.Contains(t, cmd.Long, "vector search")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"synth", "enumerate", "validate", "test"}

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

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestSynthCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	synthCmd, _, err := cmd.Find([]string{"synth"})
	require.NoError(t, err)

	for _, name := range []string{"max-depth", "limits", "max-candidates", "timeout", "cumulative",
		"distance-sort-keys", "matching", "driver", "dsn", "tree"} {
		assert.NotNil(t, synthCmd.Flags().Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "5", synthCmd.Flags().Lookup("max-depth").DefValue)
	assert.Equal(t, ":memory:", synthCmd.Flags().Lookup("dsn").DefValue)
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"validate", examplePath("items.yaml"), "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootCommand_DispatchesToSubcommand(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", examplePath("items.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "(nearest-item)")
}
