package profiles

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(filepath.Join(t.TempDir(), "profiles.json"))
}

func TestSaveAndGet(t *testing.T) {
	m := testManager(t)

	p := Profile{
		Name:        "work",
		Label:       "Work",
		After:       "2024-01-01",
		From:        []string{"boss@corp.com"},
		Consolidate: "thread",
	}
	require.NoError(t, m.Save(p))

	got, err := m.Get("work")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestGetMissing(t *testing.T) {
	m := testManager(t)
	_, err := m.Get("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListSorted(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.Save(Profile{Name: "zeta"}))
	require.NoError(t, m.Save(Profile{Name: "alpha"}))

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)
}

func TestListEmptyStore(t *testing.T) {
	m := testManager(t)
	list, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSaveReplaces(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.Save(Profile{Name: "work", Label: "Old"}))
	require.NoError(t, m.Save(Profile{Name: "work", Label: "New"}))

	got, err := m.Get("work")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Label)
}

func TestSaveRejectsEmptyName(t *testing.T) {
	m := testManager(t)
	assert.Error(t, m.Save(Profile{}))
}

func TestDelete(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.Save(Profile{Name: "work"}))
	require.NoError(t, m.Delete("work"))

	_, err := m.Get("work")
	assert.Error(t, err)

	assert.Error(t, m.Delete("work"), "deleting twice fails")
}

func TestRename(t *testing.T) {
	m := testManager(t)
	require.NoError(t, m.Save(Profile{Name: "work", Label: "Work"}))
	require.NoError(t, m.Save(Profile{Name: "other"}))

	require.NoError(t, m.Rename("work", "job"))

	got, err := m.Get("job")
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Label)
	assert.Equal(t, "job", got.Name)

	_, err = m.Get("work")
	assert.Error(t, err)

	assert.Error(t, m.Rename("job", "other"), "must not clobber an existing profile")
	assert.Error(t, m.Rename("missing", "x"))
}
