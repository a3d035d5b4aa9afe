package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bundlefs.yml")
	require.NoError(t, os.WriteFile(filename, []byte(`archives:
  - id: foo
    path: ./foo.zip
    header: /libs/foo;path:=/SLING-INF/libs/foo;propsJSON:=json
    mappings:
      - root: /libs/foo/test.txt
        path: /SLING-INF/libs/foo/test.txt
        overlay: json
  - path: ./bar.jar
    mappings:
      - root: /apps/bar
`), 0o644))

	f, err := Load(filename)
	require.NoError(t, err)
	require.Len(t, f.Archives, 2)
	assert.Equal(t, "foo", f.Archives[0].ID)
	assert.Equal(t, "./bar.jar", f.Archives[1].ID)

	mappings, err := f.Archives[0].PathMappings()
	require.NoError(t, err)
	require.Len(t, mappings, 2)
	assert.Equal(t, "/libs/foo", mappings[0].ResourceRoot())
	assert.Equal(t, "/SLING-INF/libs/foo", mappings[0].ArchiveRoot())
	assert.Equal(t, "/libs/foo/test.txt", mappings[1].ResourceRoot())
	assert.Equal(t, "json", mappings[1].OverlayExtension())

	mappings, err = f.Archives[1].PathMappings()
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "/apps/bar", mappings[0].ArchiveRoot())
	assert.False(t, mappings[0].HasOverlay())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yml")
	require.NoError(t, os.WriteFile(invalid, []byte("archives: {"), 0o644))
	_, err = Load(invalid)
	assert.Error(t, err)

	nopath := filepath.Join(dir, "nopath.yml")
	require.NoError(t, os.WriteFile(nopath, []byte("archives:\n  - id: foo\n"), 0o644))
	_, err = Load(nopath)
	assert.Error(t, err)

	_, err = Archive{ID: "x", Mappings: []Mapping{{Root: ""}}}.PathMappings()
	assert.Error(t, err)
	_, err = Archive{ID: "x", Header: "/a;bogus:=1"}.PathMappings()
	assert.Error(t, err)
}
