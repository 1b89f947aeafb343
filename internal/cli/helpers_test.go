package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/hatgram/internal/terms"
)

// testEnv is a config file plus the customization dir, settings file and
// history database it points at, all under one temp dir.
type testEnv struct {
	dir        string
	custom     string
	settings   string
	db         string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	e := &testEnv{
		dir:        dir,
		custom:     filepath.Join(dir, "custom"),
		settings:   filepath.Join(dir, "settings.json"),
		db:         filepath.Join(dir, "history.db"),
		configPath: filepath.Join(dir, "hatgram.yaml"),
	}
	require.NoError(t, os.MkdirAll(e.custom, 0o755))

	cfg := `customization_dir: custom
settings_path: settings.json
create_missing: false
history:
  db: history.db
`
	require.NoError(t, os.WriteFile(e.configPath, []byte(cfg), 0o644))
	return e
}

func (e *testEnv) writeOverride(t *testing.T, domain string, rows [][]string) {
	t.Helper()
	require.NoError(t, terms.WriteOverrides(filepath.Join(e.custom, domain+".csv"), rows))
}

func (e *testEnv) writeRaw(t *testing.T, domain, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.custom, domain+".csv"), []byte(content), 0o644))
}

func (e *testEnv) writeSettings(t *testing.T, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(e.settings, []byte(content), 0o644))
}

// run executes the root command with --config pointing at the env.
func (e *testEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
