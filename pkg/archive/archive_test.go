package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	assert.Equal(t, "/", Clean(""))
	assert.Equal(t, "/a/b", Clean("a/b/"))
	assert.Equal(t, "/a/b", Clean("/a//b"))
	assert.Equal(t, "/a/b/c.txt", Join("/a", "b", "c.txt"))
	assert.Equal(t, ".", fsName("/"))
	assert.Equal(t, "a/b", fsName("/a/b"))
}

func TestFS(t *testing.T) {
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	src := NewFS("test", fstest.MapFS{
		"libs/foo/test.txt":      {Data: []byte("Hello Text")},
		"libs/foo/test.txt.json": {Data: []byte(`{"test":"foo"}`)},
		"libs/foo/test.json":     {Data: []byte(`{}`)},
	}, modified)

	assert.Equal(t, "test", src.ID())
	assert.Equal(t, modified, src.LastModified())

	loc, ok := src.Stat("/libs/foo/test.txt")
	require.True(t, ok)
	assert.False(t, loc.Dir)
	assert.Equal(t, int64(10), loc.Size)
	assert.Equal(t, "/libs/foo/test.txt", loc.Path)

	loc, ok = src.Stat("/libs/foo")
	require.True(t, ok)
	assert.True(t, loc.Dir)

	loc, ok = src.Stat("/")
	require.True(t, ok)
	assert.True(t, loc.Dir)

	// a sidecar never makes its base name an entry
	assert.False(t, src.EntryExists("/libs/foo/test"))
	assert.False(t, src.EntryExists("/libs/bar"))

	children, err := src.ListChildren("/libs/foo")
	require.NoError(t, err)
	assert.Equal(t, []Child{
		{Name: "test.json"},
		{Name: "test.txt"},
		{Name: "test.txt.json"},
	}, children)

	children, err = src.ListChildren("/nope")
	require.NoError(t, err)
	assert.Empty(t, children)

	rc, err := src.OpenEntry("/libs/foo/test.txt")
	require.NoError(t, err)
	dt, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "Hello Text", string(dt))

	_, err = src.OpenEntry("/libs/foo")
	assert.Error(t, err)
	_, err = src.OpenEntry("/libs/foo/missing")
	assert.Error(t, err)

	src.Replace(fstest.MapFS{"other.txt": {Data: []byte("x")}}, modified.Add(time.Hour))
	assert.Equal(t, modified.Add(time.Hour), src.LastModified())
	assert.False(t, src.EntryExists("/libs/foo/test.txt"))
	assert.True(t, src.EntryExists("/other.txt"))

	src.Touch(modified)
	assert.Equal(t, modified, src.LastModified())
}

func writeZip(t *testing.T, filename string, files map[string]string) {
	t.Helper()
	f, err := os.Create(filename)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "bundle.zip")
	writeZip(t, filename, map[string]string{
		"SLING-INF/":                       "",
		"SLING-INF/libs/":                  "",
		"SLING-INF/libs/foo/":              "",
		"SLING-INF/libs/foo/test.txt":      "Hello Text",
		"SLING-INF/libs/foo/test.txt.json": `{"test":"foo"}`,
	})

	src, err := Open(context.Background(), filename)
	require.NoError(t, err)
	assert.Equal(t, filename, src.Filename())
	assert.Contains(t, src.ID(), "sha256:")

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(src.LastModified()))

	loc, ok := src.Stat("/SLING-INF/libs/foo/test.txt")
	require.True(t, ok)
	assert.False(t, loc.Dir)
	assert.Equal(t, int64(10), loc.Size)

	loc, ok = src.Stat("/SLING-INF/libs/foo")
	require.True(t, ok)
	assert.True(t, loc.Dir)

	assert.False(t, src.EntryExists("/SLING-INF/libs/bar"))

	children, err := src.ListChildren("/SLING-INF/libs/foo")
	require.NoError(t, err)
	var names []string
	for _, c := range children {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"test.txt", "test.txt.json"}, names)

	rc, err := src.OpenEntry("/SLING-INF/libs/foo/test.txt")
	require.NoError(t, err)
	dt, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "Hello Text", string(dt))

	// rewriting the archive is picked up on the next modification check
	id := src.ID()
	writeZip(t, filename, map[string]string{
		"SLING-INF/libs/foo/other.txt": "Other",
	})
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(filename, later, later))
	info, err = os.Stat(filename)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(src.LastModified()))
	assert.NotEqual(t, id, src.ID())
	assert.True(t, src.EntryExists("/SLING-INF/libs/foo/other.txt"))
	assert.False(t, src.EntryExists("/SLING-INF/libs/foo/test.txt"))
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}
