package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallDefaults = `package defaults

domain: actions: list: simple_action: {
	take:  "setSelection"
	chuck: "delete"
}
domain: compound_targets: list: {
	range_specifier: past: "rangeIncludingBothEnds"
	list_specifier: "and": "listSpecifier"
}
domain: special_marks: list: special_mark: this: "currentSelection"
hats: {
	colors: blue: "blue"
	shapes: fox: "fox"
	enablement: {
		colors: blue: true
		shapes: fox:  false
	}
}
lines: direction: row: "row"
`

func writeDefaultsDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "defaults.cue"), []byte(content), 0o644))
	return dir
}

func TestCompile_Builtin(t *testing.T) {
	env := newTestEnv(t)

	out, _, err := env.run(t, "compile")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 3 domain(s)")
	assert.Contains(t, out, "hats: 5 color(s), 10 shape(s)")
	assert.Contains(t, out, "lines: 3 direction(s)")
}

func TestCompile_Dir(t *testing.T) {
	env := newTestEnv(t)
	dir := writeDefaultsDir(t, smallDefaults)

	out, _, err := env.run(t, "--format", "json", "compile", dir)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Stats CompilationStats `json:"stats"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, CompilationStats{
		Domains: 3, Lists: 4, Terms: 5,
		Colors: 1, Shapes: 1, Directions: 1,
	}, resp.Data.Stats)
}

func TestCompile_WritesOutput(t *testing.T) {
	env := newTestEnv(t)
	dir := writeDefaultsDir(t, smallDefaults)
	outPath := filepath.Join(env.dir, "compiled.json")

	out, _, err := env.run(t, "compile", dir, "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote compiled tables to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var compiled CompiledDefaults
	require.NoError(t, json.Unmarshal(data, &compiled))
	assert.Equal(t, "delete", compiled.Domains["actions"]["simple_action"]["chuck"])
	assert.Equal(t, map[string]bool{"fox": false}, compiled.Hats.ShapeEnablement)
	assert.Equal(t, map[string]string{"row": "row"}, compiled.LineDirections)
}

func TestCompile_MissingDir(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "compile", filepath.Join(env.dir, "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "defaults directory not found")
}

func TestCompile_SyntaxError(t *testing.T) {
	env := newTestEnv(t)
	dir := writeDefaultsDir(t, "package defaults\n\ndomain: {\n")

	_, _, err := env.run(t, "compile", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompile_InvalidDefaults(t *testing.T) {
	env := newTestEnv(t)
	dir := writeDefaultsDir(t, smallDefaults+"lines: direction: sideways: \"left\"\n")

	out, _, err := env.run(t, "compile", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E106 lines.direction.sideways")
}
