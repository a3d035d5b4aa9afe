package cache

import (
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crazy-max/bundlefs/pkg/archive"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrRemoved is returned once the archive has been removed
var ErrRemoved = errors.New("archive removed")

// entry is a cached lookup outcome, a nil locator means absent
type entry struct {
	loc *archive.Locator
}

// snapshot holds everything cached for one archive generation. It is
// never mutated in place on invalidation, a new one is swapped in.
type snapshot struct {
	generation uint64
	modified   time.Time
	entries    sync.Map // string -> entry
	children   sync.Map // string -> []archive.Child
}

// EntryCache resolves archive paths to locators for a single archive
type EntryCache struct {
	src    archive.Source
	logger zerolog.Logger
	snap   atomic.Pointer[snapshot]
	group  singleflight.Group
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Stats holds cache counters
type Stats struct {
	Hits   uint64
	Misses uint64
}

// New creates a new entry cache for src
func New(src archive.Source) *EntryCache {
	c := &EntryCache{
		src:    src,
		logger: log.With().Str("archive", src.ID()).Logger(),
	}
	c.snap.Store(&snapshot{
		generation: 1,
		modified:   src.LastModified(),
	})
	return c
}

// Source returns the underlying archive source
func (c *EntryCache) Source() archive.Source {
	return c.src
}

// current returns the snapshot matching the archive modification marker,
// or nil once the archive is removed.
func (c *EntryCache) current() *snapshot {
	snap := c.snap.Load()
	if snap == nil {
		return nil
	}
	modified := c.src.LastModified()
	if snap.modified.Equal(modified) {
		return snap
	}
	return c.advance(snap, modified)
}

// advance replaces snap by an empty snapshot of the next generation. If
// another caller won the race its snapshot is used instead.
func (c *EntryCache) advance(snap *snapshot, modified time.Time) *snapshot {
	next := &snapshot{
		generation: snap.generation + 1,
		modified:   modified,
	}
	if c.snap.CompareAndSwap(snap, next) {
		c.logger.Debug().
			Uint64("generation", next.generation).
			Time("modified", modified).
			Msg("Archive modified, cache invalidated")
		return next
	}
	return c.snap.Load()
}

// Resolve returns the locator of archivePath, or false if the archive has
// no such entry. Both outcomes are cached until the archive changes.
func (c *EntryCache) Resolve(archivePath string) (archive.Locator, bool) {
	archivePath = archive.Clean(archivePath)
	snap := c.current()
	if snap == nil {
		return archive.Locator{}, false
	}
	if v, ok := snap.entries.Load(archivePath); ok {
		c.hits.Add(1)
		if e := v.(entry); e.loc != nil {
			return *e.loc, true
		}
		return archive.Locator{}, false
	}

	c.misses.Add(1)
	v, _, _ := c.group.Do(c.key(snap, "e", archivePath), func() (any, error) {
		var e entry
		if loc, ok := c.src.Stat(archivePath); ok {
			e.loc = &loc
		}
		snap.entries.Store(archivePath, e)
		return e, nil
	})
	if e := v.(entry); e.loc != nil {
		return *e.loc, true
	}
	return archive.Locator{}, false
}

// Exists reports whether archivePath resolves to an entry
func (c *EntryCache) Exists(archivePath string) bool {
	_, ok := c.Resolve(archivePath)
	return ok
}

// Children lists the entries directly under archivePath in archive order
func (c *EntryCache) Children(archivePath string) []archive.Child {
	archivePath = archive.Clean(archivePath)
	snap := c.current()
	if snap == nil {
		return nil
	}
	if v, ok := snap.children.Load(archivePath); ok {
		c.hits.Add(1)
		return v.([]archive.Child)
	}

	c.misses.Add(1)
	v, _, _ := c.group.Do(c.key(snap, "c", archivePath), func() (any, error) {
		children, err := c.src.ListChildren(archivePath)
		if err != nil {
			c.logger.Debug().Err(err).Str("path", archivePath).Msg("Cannot list entries")
			children = nil
		}
		snap.children.Store(archivePath, children)
		return children, nil
	})
	return v.([]archive.Child)
}

// HasDescendants reports whether at least one entry exists below archivePath
func (c *EntryCache) HasDescendants(archivePath string) bool {
	return len(c.Children(archivePath)) > 0
}

// Open opens the file entry at archivePath. The path is resolved against
// the current generation first, never against a previously held locator.
func (c *EntryCache) Open(archivePath string) (io.ReadCloser, error) {
	if c.Removed() {
		return nil, ErrRemoved
	}
	loc, ok := c.Resolve(archivePath)
	if !ok {
		return nil, errors.Errorf("entry %s not found", archivePath)
	}
	if loc.Dir {
		return nil, errors.Errorf("entry %s is a directory", archivePath)
	}
	return c.src.OpenEntry(loc.Path)
}

// Updated invalidates all cached entries for a new modification marker
func (c *EntryCache) Updated(modified time.Time) {
	snap := c.snap.Load()
	if snap == nil || snap.modified.Equal(modified) {
		return
	}
	c.advance(snap, modified)
}

// Remove clears the cache and marks it unusable
func (c *EntryCache) Remove() {
	if c.snap.Swap(nil) != nil {
		c.logger.Debug().Msg("Archive removed, cache cleared")
	}
}

// Removed reports whether Remove has been called
func (c *EntryCache) Removed() bool {
	return c.snap.Load() == nil
}

// Snapshot describes the currently cached generation
func (c *EntryCache) Snapshot() archive.Snapshot {
	s := archive.Snapshot{ID: c.src.ID()}
	if snap := c.current(); snap != nil {
		s.LastModified = snap.modified
		s.Generation = snap.generation
	}
	return s
}

// Stats returns the cache counters
func (c *EntryCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

func (c *EntryCache) key(snap *snapshot, kind, archivePath string) string {
	return strconv.FormatUint(snap.generation, 10) + ":" + kind + ":" + archivePath
}
