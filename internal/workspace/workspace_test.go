package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "s1")
	data := filepath.Join(root, "animals.csv")
	require.NoError(t, os.WriteFile(data, []byte("group_name,animal_name\nA,a1\n"), 0o644))

	w := New("s1", "pilot", dir)
	w.Study.CuratedName = "Pilot Study"
	f, err := w.AddFile(data, RoleAnimals, "seed list")
	require.NoError(t, err)
	f.Rows = 1
	require.NoError(t, w.Save())

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Name)
	assert.Equal(t, "Pilot Study", got.Study.CuratedName)
	assert.Equal(t, dir, got.RootDir())
	files := got.FilesByRole(RoleAnimals)
	require.Len(t, files, 1)
	assert.Equal(t, f.ID, files[0].ID)
	assert.Equal(t, 1, files[0].Rows)
	assert.Empty(t, got.FilesByRole(RoleGroups))

	names, err := List(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, names)
}

func TestAddFileRejectsDuplicatesAndDirs(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "m.csv")
	require.NoError(t, os.WriteFile(data, []byte("x\n"), 0o644))
	w := New("s", "", filepath.Join(root, "s"))

	_, err := w.AddFile(data, RoleMeasurements, "")
	require.NoError(t, err)
	_, err = w.AddFile(data, RoleMeasurements, "")
	assert.Error(t, err)
	_, err = w.AddFile(data, RoleTreatments, "")
	assert.NoError(t, err)
	_, err = w.AddFile(root, RoleGroups, "")
	assert.Error(t, err)
	_, err = w.AddFile(filepath.Join(root, "missing.csv"), RoleGroups, "")
	assert.Error(t, err)

	assert.Len(t, w.SortedFiles(), 2)
	assert.Equal(t, RoleMeasurements, w.SortedFiles()[0].Role)
}

func TestRemoveFile(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "g.yaml")
	require.NoError(t, os.WriteFile(data, []byte("[]"), 0o644))
	w := New("s", "", root)
	f, err := w.AddFile(data, RoleGroups, "")
	require.NoError(t, err)
	require.NoError(t, w.RemoveFile(f.ID))
	assert.Error(t, w.RemoveFile(f.ID))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("Measurements")
	require.NoError(t, err)
	assert.Equal(t, RoleMeasurements, r)
	_, err = ParseRole("images")
	assert.Error(t, err)
}

func TestListMissingRoot(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, names)
}
