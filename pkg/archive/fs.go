package archive

import (
	"io"
	"io/fs"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// FS exposes any fs.FS as an archive source. The modification marker is
// driven by the caller through Touch and Replace.
type FS struct {
	id       string
	mu       sync.RWMutex
	fsys     fs.FS
	modified time.Time
}

// NewFS creates a new archive source backed by fsys
func NewFS(id string, fsys fs.FS, modified time.Time) *FS {
	return &FS{
		id:       id,
		fsys:     fsys,
		modified: modified,
	}
}

// ID returns the archive identifier
func (s *FS) ID() string {
	return s.id
}

// Touch sets a new modification marker
func (s *FS) Touch(modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modified = modified
}

// Replace swaps the archive content and its modification marker at once
func (s *FS) Replace(fsys fs.FS, modified time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fsys = fsys
	s.modified = modified
}

// LastModified returns the current modification marker
func (s *FS) LastModified() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

func (s *FS) current() fs.FS {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fsys
}

// EntryExists reports whether p exists in the archive
func (s *FS) EntryExists(p string) bool {
	_, ok := statEntry(s.current(), p)
	return ok
}

// Stat returns the locator of p
func (s *FS) Stat(p string) (Locator, bool) {
	return statEntry(s.current(), p)
}

// OpenEntry opens the file entry at p
func (s *FS) OpenEntry(p string) (io.ReadCloser, error) {
	return openEntry(s.current(), p)
}

// ListChildren lists the entries directly under p
func (s *FS) ListChildren(p string) ([]Child, error) {
	return listChildren(s.current(), p)
}

// statEntry looks an entry up through its parent listing. Archive backed
// file systems report implicit directories for any name prefix on Stat,
// which would turn "test" into a folder as soon as "test.json" exists.
func statEntry(fsys fs.FS, p string) (Locator, bool) {
	name := fsName(p)
	if name == "." {
		return Locator{Path: "/", Dir: true}, true
	}
	entries, err := fs.ReadDir(fsys, path.Dir(name))
	if err != nil {
		return Locator{}, false
	}
	base := path.Base(name)
	for _, entry := range entries {
		if entry.Name() != base {
			continue
		}
		loc := Locator{
			Path: Clean(p),
			Dir:  entry.IsDir(),
		}
		if info, err := entry.Info(); err == nil {
			loc.ModTime = info.ModTime()
			if !loc.Dir {
				loc.Size = info.Size()
			}
		}
		return loc, true
	}
	return Locator{}, false
}

func openEntry(fsys fs.FS, p string) (io.ReadCloser, error) {
	f, err := fsys.Open(fsName(p))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open entry %s", p)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "cannot stat entry %s", p)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, errors.Errorf("entry %s is a directory", p)
	}
	return f, nil
}

func listChildren(fsys fs.FS, p string) ([]Child, error) {
	entries, err := fs.ReadDir(fsys, fsName(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "cannot list entries of %s", p)
	}
	children := make([]Child, 0, len(entries))
	for _, entry := range entries {
		children = append(children, Child{
			Name: entry.Name(),
			Dir:  entry.IsDir(),
		})
	}
	return children, nil
}
