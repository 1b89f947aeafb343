package terms

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeWatch records subscriptions so tests can fire changes by hand.
type fakeWatch struct {
	subs      map[string][]*fakeSub
	cancelled int
}

type fakeSub struct {
	onChange func()
	active   bool
}

func newFakeWatch() *fakeWatch {
	return &fakeWatch{subs: make(map[string][]*fakeSub)}
}

func (f *fakeWatch) Watch(path string, onChange func()) (func(), error) {
	s := &fakeSub{onChange: onChange, active: true}
	f.subs[path] = append(f.subs[path], s)
	return func() {
		if s.active {
			s.active = false
			f.cancelled++
		}
	}, nil
}

func (f *fakeWatch) fire(path string) {
	for _, s := range f.subs[path] {
		if s.active {
			s.onChange()
		}
	}
}

func (f *fakeWatch) active(path string) int {
	n := 0
	for _, s := range f.subs[path] {
		if s.active {
			n++
		}
	}
	return n
}

var compoundDefaults = Tables{
	"range_specifier": {"between": "rangeExcludingBothEnds", "past": "rangeIncludingBothEnds"},
	"list_specifier":  {"and": "listSpecifier"},
}

func TestManager_NoDirServesDefaults(t *testing.T) {
	m := NewManager("", WithLogger(testLogger()))

	reg, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)

	assert.Equal(t, "", reg.Path())
	assert.False(t, report.Created)
	id, ok := m.Lookup("range_specifier", "past")
	assert.True(t, ok)
	assert.Equal(t, "rangeIncludingBothEnds", id)
}

func TestManager_CreateMissing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, WithLogger(testLogger()), WithCreateMissing(true))

	_, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	assert.True(t, report.Created)

	data, err := os.ReadFile(filepath.Join(dir, "compound_targets.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Spoken form,Cursorless identifier\n")
	assert.Contains(t, string(data), "between,rangeExcludingBothEnds\n")
}

func TestManager_MissingWithoutCreate(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, WithLogger(testLogger()))

	_, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	assert.False(t, report.Created)

	_, err = os.Stat(filepath.Join(dir, "compound_targets.csv"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, compoundDefaults["list_specifier"], m.List("list_specifier"))
}

func TestManager_OverrideAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compound_targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Spoken form,Cursorless identifier\nthrough,rangeIncludingBothEnds\n"), 0o644))

	fw := newFakeWatch()
	m := NewManager(dir, WithLogger(testLogger()), WithWatch(fw.Watch))

	reg, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)

	_, ok := m.Lookup("range_specifier", "past")
	assert.False(t, ok, "default spoken form replaced")
	id, ok := m.Lookup("range_specifier", "through")
	assert.True(t, ok)
	assert.Equal(t, "rangeIncludingBothEnds", id)

	before := reg.Vocabulary()

	require.NoError(t, os.WriteFile(path, []byte("Spoken form,Cursorless identifier\nplus,listSpecifier\n"), 0o644))
	fw.fire(path)

	after := reg.Vocabulary()
	assert.NotSame(t, before, after)

	// no stale entries from the previous file
	_, ok = m.Lookup("range_specifier", "through")
	assert.False(t, ok)
	id, ok = m.Lookup("range_specifier", "past")
	assert.True(t, ok)
	assert.Equal(t, "rangeIncludingBothEnds", id)
	id, ok = m.Lookup("list_specifier", "plus")
	assert.True(t, ok)
	assert.Equal(t, "listSpecifier", id)

	// the old snapshot is untouched
	_, ok = before.Lookup("range_specifier", "through")
	assert.True(t, ok)
}

func TestManager_UnknownIdentifierDoesNotFail(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compound_targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("Spoken form,Cursorless identifier\nwith,listSpecifer\nthrough,rangeIncludingBothEnds\n"), 0o644))

	m := NewManager(dir, WithLogger(testLogger()))

	_, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "listSpecifer", report.Rejected[0].Identifier)
	assert.Equal(t, "listSpecifier", report.Rejected[0].Suggestion)
	assert.Equal(t, 1, report.Applied)

	_, ok := m.Lookup("range_specifier", "through")
	assert.True(t, ok)
}

func TestManager_BadHeaderKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compound_targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("spoken,id\nthrough,rangeIncludingBothEnds\n"), 0o644))

	m := NewManager(dir, WithLogger(testLogger()))

	_, report, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, report.HeaderError, ErrBadHeader)
	assert.Equal(t, compoundDefaults["range_specifier"], m.List("range_specifier"))
}

func TestManager_ReloadSameDomainReleasesPreviousWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compound_targets.csv")
	fw := newFakeWatch()
	m := NewManager(dir, WithLogger(testLogger()), WithWatch(fw.Watch))

	first, _, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)
	assert.True(t, first.subscribed())

	second, _, err := m.Load("compound_targets", Tables{"list_specifier": {"plus": "listSpecifier"}}, nil)
	require.NoError(t, err)

	assert.False(t, first.subscribed())
	assert.True(t, second.subscribed())
	assert.Equal(t, 1, fw.active(path))
	assert.Equal(t, 1, fw.cancelled)

	reg, err := m.Registry("compound_targets")
	require.NoError(t, err)
	assert.Same(t, second, reg)
	assert.Nil(t, m.List("range_specifier"))
}

func TestRegistry_UnsubscribeIdempotent(t *testing.T) {
	dir := t.TempDir()
	fw := newFakeWatch()
	m := NewManager(dir, WithLogger(testLogger()), WithWatch(fw.Watch))

	reg, _, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)

	reg.Unsubscribe()
	reg.Unsubscribe()
	assert.Equal(t, 1, fw.cancelled)
	assert.False(t, reg.subscribed())

	// vocabulary survives the release
	_, ok := reg.Vocabulary().Lookup("list_specifier", "and")
	assert.True(t, ok)
}

func TestManager_Dispatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "compound_targets.csv")
	fw := newFakeWatch()
	m := NewManager(dir, WithLogger(testLogger()), WithWatch(fw.Watch))

	_, _, err := m.Load("compound_targets", compoundDefaults, nil)
	require.NoError(t, err)

	var queued []func()
	m.SetDispatcher(func(task func()) { queued = append(queued, task) })

	require.NoError(t, os.WriteFile(path, []byte("Spoken form,Cursorless identifier\nplus,listSpecifier\n"), 0o644))
	fw.fire(path)

	require.Len(t, queued, 1)
	_, ok := m.Lookup("list_specifier", "plus")
	assert.False(t, ok, "reload waits for the dispatcher")

	queued[0]()
	_, ok = m.Lookup("list_specifier", "plus")
	assert.True(t, ok)
}

func TestManager_UnknownDomain(t *testing.T) {
	m := NewManager("", WithLogger(testLogger()))
	_, err := m.Registry("nope")
	assert.ErrorIs(t, err, ErrUnknownDomain)
	assert.Empty(t, m.Domains())
}
