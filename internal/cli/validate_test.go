package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Clean(t *testing.T) {
	env := newTestEnv(t)
	env.writeOverride(t, "actions", [][]string{{"grab", "setSelection"}})

	out, _, err := env.run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 4 domain(s) valid")
}

func TestValidate_DoesNotCreateFiles(t *testing.T) {
	env := newTestEnv(t)
	cfg := "customization_dir: custom\nsettings_path: settings.json\ncreate_missing: true\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))

	_, _, err := env.run(t, "validate")
	require.NoError(t, err)

	entries, err := os.ReadDir(env.custom)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestValidate_RejectedRows(t *testing.T) {
	env := newTestEnv(t)
	env.writeOverride(t, "actions", [][]string{
		{"grab", "setSelection"},
		{"yoink", "setSelecton"},
	})

	out, stderr, err := env.run(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, filepath.Join(env.custom, "actions.csv")+":3:")
	assert.Contains(t, out, `did you mean "setSelection"?`)
	assert.Contains(t, stderr, "override row rejected")
}

func TestValidate_RejectedRowsJSON(t *testing.T) {
	env := newTestEnv(t)
	env.writeOverride(t, "special_marks", [][]string{{"here", "curentSelection"}})

	out, _, err := env.run(t, "--format", "json", "validate")
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeRejectedRows, resp.Error.Code)
	assert.False(t, resp.Data.Valid)

	var found bool
	for _, d := range resp.Data.Domains {
		if d.Domain != "special_marks" {
			assert.Empty(t, d.Rejected)
			continue
		}
		found = true
		require.Len(t, d.Rejected, 1)
		assert.Equal(t, "curentSelection", d.Rejected[0].Identifier)
		assert.Equal(t, "currentSelection", d.Rejected[0].Suggestion)
	}
	assert.True(t, found)
}

func TestValidate_BadHeader(t *testing.T) {
	env := newTestEnv(t)
	env.writeRaw(t, "compound_targets", "spoken,id\npast,rangeIncludingBothEnds\n")

	out, _, err := env.run(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "compound_targets: file ignored")
}

func TestValidate_BrokenDefaults(t *testing.T) {
	env := newTestEnv(t)
	defaultsDir := filepath.Join(env.dir, "defaults")
	require.NoError(t, os.MkdirAll(defaultsDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(defaultsDir, "d.cue"), []byte(`package defaults
domain: special_marks: list: special_mark: this: "currentSelection"
hats: {
	colors: blue: "blue"
	shapes: {}
	enablement: colors: blue: true
}
lines: direction: row: "row"
`), 0o644))
	cfg := "customization_dir: custom\ndefaults_dir: defaults\n"
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))

	out, _, err := env.run(t, "validate")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E100 domain.actions")
}
