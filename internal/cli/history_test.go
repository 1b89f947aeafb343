package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResponse struct {
	Status string         `json:"status"`
	Data   []HistoryEntry `json:"data"`
}

func seedResolves(t *testing.T, env *testEnv, phrases ...string) {
	t.Helper()
	for _, p := range phrases {
		_, _, err := env.run(t, "resolve", p)
		require.NoError(t, err, "resolve %q", p)
	}
}

func TestHistory_ClockResumesAcrossRuns(t *testing.T) {
	env := newTestEnv(t)
	seedResolves(t, env, "blue air", "take this", "blue air")

	out, _, err := env.run(t, "--format", "json", "history")
	require.NoError(t, err)

	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)
	for i, e := range resp.Data {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, "take this", resp.Data[1].Phrase)
	assert.Equal(t, "setSelection", resp.Data[1].Action)
	assert.Equal(t, resp.Data[0].TargetHash, resp.Data[2].TargetHash)
}

func TestHistory_LimitAndTarget(t *testing.T) {
	env := newTestEnv(t)
	seedResolves(t, env, "blue air", "take this", "blue air", "green bat")

	out, _, err := env.run(t, "--format", "json", "history", "--limit", "2")
	require.NoError(t, err)
	var recent historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &recent))
	require.Len(t, recent.Data, 2)
	assert.Equal(t, "blue air", recent.Data[0].Phrase)
	assert.Equal(t, "green bat", recent.Data[1].Phrase)

	out, _, err = env.run(t, "--format", "json", "history", "--target", recent.Data[0].TargetHash)
	require.NoError(t, err)
	var same historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &same))
	require.Len(t, same.Data, 2)
	assert.Equal(t, int64(1), same.Data[0].Seq)
	assert.Equal(t, int64(3), same.Data[1].Seq)
}

func TestHistory_Text(t *testing.T) {
	env := newTestEnv(t)
	seedResolves(t, env, "take this")

	out, _, err := env.run(t, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "setSelection")
	assert.Contains(t, lines[0], "take this")
}

func TestHistory_MissingDatabase(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.run(t, "history", "--db", filepath.Join(env.dir, "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "history database not found")
}

func TestHistory_FailedResolveNotLogged(t *testing.T) {
	env := newTestEnv(t)
	seedResolves(t, env, "air")
	_, _, err := env.run(t, "resolve", "zebra")
	require.Error(t, err)

	out, _, err := env.run(t, "--format", "json", "history")
	require.NoError(t, err)
	var resp historyResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Data, 1)
}
