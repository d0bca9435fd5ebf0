package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/psantana5/clusterlambda/internal/archivetest"
	"github.com/psantana5/clusterlambda/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryFor(t *testing.T, path string) catalog.ArtifactEntry {
	t.Helper()
	e, err := catalog.NewEntry("app", path)
	require.NoError(t, err)
	return e
}

func localPaths(t *testing.T, entries []catalog.ArtifactEntry) []string {
	t.Helper()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		p, err := e.LocalPath()
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestExpandResolvesAgainstArchiveDirectory(t *testing.T) {
	dir := t.TempDir()
	driver := archivetest.WriteJar(t, filepath.Join(dir, "drivers", "driver.jar"), "libs/extra.jar", "../shared/common.jar")

	out, err := NewExpander(nil).Expand(entryFor(t, driver))
	require.NoError(t, err)

	assert.Equal(t, []string{
		driver,
		filepath.Join(dir, "drivers", "libs", "extra.jar"),
		filepath.Join(dir, "shared", "common.jar"),
	}, localPaths(t, out))

	for _, derived := range out[1:] {
		assert.Equal(t, "app", derived.LoaderIdentity)
		assert.Equal(t, out[0].Location, derived.Origin)
		assert.True(t, derived.IsArchive)
	}
}

func TestExpandWithoutReferences(t *testing.T) {
	app := archivetest.WriteJar(t, filepath.Join(t.TempDir(), "app.jar"))
	entry := entryFor(t, app)

	out, err := NewExpander(nil).Expand(entry)
	require.NoError(t, err)
	assert.Equal(t, []catalog.ArtifactEntry{entry}, out)
}

func TestExpandSkipsDirectoriesAndRemoteEntries(t *testing.T) {
	dir := t.TempDir()
	x := NewExpander(nil)

	out, err := x.Expand(entryFor(t, dir))
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = x.Expand(catalog.ArtifactEntry{LoaderIdentity: "app", Location: "http://repo/lib.jar", IsArchive: true})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExpandIsOneLevelOnly(t *testing.T) {
	dir := t.TempDir()
	outer := archivetest.WriteJar(t, filepath.Join(dir, "outer.jar"), "inner.jar")
	archivetest.WriteJar(t, filepath.Join(dir, "inner.jar"), "deepest.jar")

	out, err := NewExpander(nil).Expand(entryFor(t, outer))
	require.NoError(t, err)
	assert.Equal(t, []string{outer, filepath.Join(dir, "inner.jar")}, localPaths(t, out))
}

func TestExpandKeepsSchemeReferencesVerbatim(t *testing.T) {
	app := archivetest.WriteJar(t, filepath.Join(t.TempDir(), "app.jar"), "http://repo.example.com/lib.jar")

	out, err := NewExpander(nil).Expand(entryFor(t, app))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "http://repo.example.com/lib.jar", out[1].Location)
	assert.False(t, out[1].IsLocal())
}

func TestExpandResolvesRelativeFileReferencesAgainstArchive(t *testing.T) {
	dir := t.TempDir()
	app := archivetest.WriteJar(t, filepath.Join(dir, "app", "app.jar"), "file:lib/x.jar", "file:/opt/abs.jar")

	out, err := NewExpander(nil).Expand(entryFor(t, app))
	require.NoError(t, err)
	assert.Equal(t, []string{
		app,
		filepath.Join(dir, "app", "lib", "x.jar"),
		"/opt/abs.jar",
	}, localPaths(t, out))
}

func TestExpandRejectsMalformedReference(t *testing.T) {
	app := archivetest.WriteJar(t, filepath.Join(t.TempDir(), "app.jar"), "bad%zzname.jar")

	_, err := NewExpander(nil).Expand(entryFor(t, app))
	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "bad%zzname.jar", resErr.Reference)
}

func TestExpandTreatsUnreadableArchiveAsNoReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.jar")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0644))
	entry := entryFor(t, path)

	out, err := NewExpander(nil).Expand(entry)
	require.NoError(t, err)
	assert.Equal(t, []catalog.ArtifactEntry{entry}, out)
}

func TestExpandUsesCustomReader(t *testing.T) {
	calls := 0
	reader := func(path string) (*Manifest, error) {
		calls++
		return nil, errors.New("boom")
	}

	entry := catalog.ArtifactEntry{LoaderIdentity: "app", Location: "file:///opt/app.jar", IsArchive: true}
	out, err := NewExpanderWithReader(reader, nil).Expand(entry)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, out, 1)
}
