package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCapture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiffStateMatch(t *testing.T) {
	// Incidental fields and key order differ; semantic content does not.
	a := writeCapture(t, "a.json", `{"game_state":{"turn":3,"choice_id":10,"players":[{"life":20}]}}`)
	b := writeCapture(t, "b.json", `{"game_state":{"players":[{"life":20}],"turn":3,"choice_id":99}}`)

	out, err := runCommand(t, "diffstate", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ States match")
}

func TestDiffStateDiffer(t *testing.T) {
	a := writeCapture(t, "a.json", `{"game_state":{"players":[{"life":20}]}}`)
	b := writeCapture(t, "b.json", `{"game_state":{"players":[{"life":19}]}}`)

	out, err := runCommand(t, "diffstate", a, b)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ States differ (1 difference(s)):")
	assert.Contains(t, out, "$.players[0].life: 20 (continuous) != 19 (segmented)")
}

func TestDiffStateDifferJSON(t *testing.T) {
	a := writeCapture(t, "a.json", `{"game_state":{"turn":1}}`)
	b := writeCapture(t, "b.json", `{"game_state":{"turn":2}}`)

	out, err := runCommand(t, "--format", "json", "diffstate", a, b)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_STATE_DIFF", resp.Error.Code)
}

func TestDiffStateMalformedCapture(t *testing.T) {
	a := writeCapture(t, "a.json", `{"game_state":{"turn":1}}`)
	b := writeCapture(t, "b.json", `{"no_game_state_here":{}}`)

	_, err := runCommand(t, "diffstate", a, b)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDiffStateMissingFile(t *testing.T) {
	a := writeCapture(t, "a.json", `{"game_state":{}}`)

	_, err := runCommand(t, "diffstate", a, filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
