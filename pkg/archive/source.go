package archive

import (
	"io"
	"path"
	"strings"
	"time"
)

// Source is the read-only view of an archive consumed by the entry cache.
// Paths are archive-internal and absolute ("/" is the archive root).
type Source interface {
	ID() string
	EntryExists(p string) bool
	Stat(p string) (Locator, bool)
	OpenEntry(p string) (io.ReadCloser, error)
	ListChildren(p string) ([]Child, error)
	LastModified() time.Time
}

// Locator points at an existing archive entry
type Locator struct {
	Path    string
	Dir     bool
	Size    int64
	ModTime time.Time
}

// Child is a direct descendant of an archive entry
type Child struct {
	Name string
	Dir  bool
}

// Snapshot identifies the cached generation of an archive
type Snapshot struct {
	ID           string
	LastModified time.Time
	Generation   uint64
}

// Clean normalizes an archive path to an absolute, slash separated form
// without trailing separator.
func Clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// Join appends name segments to an archive path.
func Join(p string, elem ...string) string {
	return Clean(path.Join(append([]string{p}, elem...)...))
}

// fsName converts an archive path to an io/fs name.
func fsName(p string) string {
	name := strings.TrimPrefix(Clean(p), "/")
	if name == "" {
		return "."
	}
	return name
}
