package archive

import (
	"context"
	"io"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/mholt/archives"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// File is an archive file on disk. Any format recognized by archives
// (zip, tar, tar.gz, 7z, rar, ...) is exposed read-only. A plain directory
// is accepted as an exploded archive.
type File struct {
	ctx      context.Context
	filename string
	logger   zerolog.Logger

	// archives indexes lazily on first listing, without locking
	opMu sync.Mutex

	mu       sync.RWMutex
	fsys     fs.FS
	modified time.Time
	size     int64
	dgst     digest.Digest
}

// Open opens the archive at filename
func Open(ctx context.Context, filename string) (*File, error) {
	f := &File{
		ctx:      ctx,
		filename: filename,
		logger:   log.With().Str("archive", filename).Logger(),
	}
	info, err := os.Stat(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot stat archive %s", filename)
	}
	if err := f.load(info); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load(info os.FileInfo) error {
	fsys, err := archives.FileSystem(f.ctx, f.filename, nil)
	if err != nil {
		return errors.Wrapf(err, "cannot open archive %s", f.filename)
	}

	var dgst digest.Digest
	if !info.IsDir() {
		if dgst, err = fileDigest(f.filename); err != nil {
			return err
		}
	} else {
		dgst = digest.FromString(f.filename)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fsys = fsys
	f.modified = info.ModTime()
	f.size = info.Size()
	f.dgst = dgst
	f.logger.Debug().Str("digest", dgst.String()).Time("modified", f.modified).Msg("Archive loaded")
	return nil
}

func fileDigest(filename string) (digest.Digest, error) {
	r, err := os.Open(filename)
	if err != nil {
		return "", errors.Wrapf(err, "cannot open archive %s", filename)
	}
	defer r.Close()
	dgst, err := digest.Canonical.FromReader(r)
	if err != nil {
		return "", errors.Wrapf(err, "cannot compute digest of archive %s", filename)
	}
	return dgst, nil
}

// Filename returns the path of the archive on disk
func (f *File) Filename() string {
	return f.filename
}

// ID returns the content digest of the loaded archive
func (f *File) ID() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dgst.String()
}

// LastModified returns the archive mtime. The archive is reloaded when the
// file on disk has changed since the last call.
func (f *File) LastModified() time.Time {
	f.mu.RLock()
	modified, size := f.modified, f.size
	f.mu.RUnlock()

	info, err := os.Stat(f.filename)
	if err != nil {
		f.logger.Warn().Err(err).Msg("Cannot stat archive, keeping last known state")
		return modified
	}
	if info.ModTime().Equal(modified) && info.Size() == size {
		return modified
	}
	if err := f.load(info); err != nil {
		f.logger.Error().Err(err).Msg("Cannot reload archive")
		return modified
	}
	return info.ModTime()
}

func (f *File) current() fs.FS {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fsys
}

// EntryExists reports whether p exists in the archive
func (f *File) EntryExists(p string) bool {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	_, ok := statEntry(f.current(), p)
	return ok
}

// Stat returns the locator of p
func (f *File) Stat(p string) (Locator, bool) {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return statEntry(f.current(), p)
}

// OpenEntry opens the file entry at p
func (f *File) OpenEntry(p string) (io.ReadCloser, error) {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return openEntry(f.current(), p)
}

// ListChildren lists the entries directly under p
func (f *File) ListChildren(p string) ([]Child, error) {
	f.opMu.Lock()
	defer f.opMu.Unlock()
	return listChildren(f.current(), p)
}
