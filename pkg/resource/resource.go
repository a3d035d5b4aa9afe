package resource

import (
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/crazy-max/bundlefs/pkg/archive"
	"github.com/crazy-max/bundlefs/pkg/cache"
	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNotFile is returned when opening the content of a non file resource
var ErrNotFile = errors.New("resource has no content")

// childrenLimit bounds the lookups run in parallel while listing children
const childrenLimit = 8

// Metadata holds archive level information about a resource
type Metadata struct {
	ArchiveID  string
	Generation uint64
	Size       int64
	ModTime    time.Time
}

// overlay is the lazily loaded property slot of a resource
type overlay struct {
	once  sync.Once
	props *PropertyMap
	err   error
}

// Resource is a resolved archive entry exposed in the resource tree. It
// lives as long as the request that resolved it.
type Resource struct {
	mapping     mapping.PathMapping
	cache       *cache.EntryCache
	path        string
	archivePath string
	kind        Kind
	generation  uint64
	exists      bool
	sidecarOnly bool
	loc         archive.Locator
	overlay     overlay
}

// New resolves the resource at resourcePath mapped to archivePath. It does
// not fail on a missing entry; Exists reports whether anything backs it.
func New(m mapping.PathMapping, c *cache.EntryCache, resourcePath, archivePath string) *Resource {
	r := &Resource{
		mapping:     m,
		cache:       c,
		path:        archive.Clean(resourcePath),
		archivePath: archive.Clean(archivePath),
		generation:  c.Snapshot().Generation,
	}
	if loc, ok := c.Resolve(r.archivePath); ok {
		r.loc = loc
		r.exists = true
		if loc.Dir {
			r.kind = KindFolder
		} else {
			r.kind = KindFile
		}
		return r
	}
	if c.HasDescendants(r.archivePath) {
		r.kind = KindSynthetic
		r.exists = true
		return r
	}
	if op, ok := m.OverlayPath(r.archivePath); ok && c.Exists(op) {
		r.kind = KindFile
		r.exists = true
		r.sidecarOnly = true
	}
	return r
}

// Path returns the resource path
func (r *Resource) Path() string {
	return r.path
}

// Name returns the last segment of the resource path
func (r *Resource) Name() string {
	return path.Base(r.path)
}

// ArchivePath returns the archive path backing the resource
func (r *Resource) ArchivePath() string {
	return r.archivePath
}

// Mapping returns the mapping the resource was resolved through
func (r *Resource) Mapping() mapping.PathMapping {
	return r.mapping
}

// Kind returns the resource kind
func (r *Resource) Kind() Kind {
	return r.kind
}

// ResourceType returns the resource type marker derived from the kind. A
// sidecar may override the sling:resourceType property, which only shows in
// Properties.
func (r *Resource) ResourceType() string {
	return r.kind.ResourceType()
}

// Exists reports whether an archive entry, descendant or sidecar backs the resource
func (r *Resource) Exists() bool {
	return r.exists
}

// Metadata returns archive information of the resource. Generation is the
// cache generation the resource was resolved under.
func (r *Resource) Metadata() Metadata {
	return Metadata{
		ArchiveID:  r.cache.Source().ID(),
		Generation: r.generation,
		Size:       r.loc.Size,
		ModTime:    r.loc.ModTime,
	}
}

// Properties returns the resource properties: the resource type default
// overridden by the sidecar entries, if any. The sidecar is loaded once.
func (r *Resource) Properties() *PropertyMap {
	r.overlay.once.Do(r.loadProperties)
	props := NewPropertyMap()
	props.Merge(r.overlay.props)
	return props
}

// OverlayErr returns the error met while loading the sidecar, if any
func (r *Resource) OverlayErr() error {
	r.overlay.once.Do(r.loadProperties)
	return r.overlay.err
}

func (r *Resource) loadProperties() {
	props := NewPropertyMap()
	props.Set(PropResourceType, r.kind.ResourceType())
	r.overlay.props = props

	op, ok := r.mapping.OverlayPath(r.archivePath)
	if !ok || !r.cache.Exists(op) {
		return
	}
	sidecar, err := r.readOverlay(op)
	if err != nil {
		r.overlay.err = &OverlayError{Path: op, Err: err}
		log.Warn().Err(err).Str("path", r.path).Str("sidecar", op).Msg("Cannot load sidecar properties")
		return
	}
	props.Merge(sidecar)
}

func (r *Resource) readOverlay(op string) (*PropertyMap, error) {
	rc, err := r.cache.Open(op)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read sidecar")
	}
	return ParseOverlay(data)
}

// Children returns the resources one segment below, in archive order.
// Sidecar documents are hidden; names only defined by a sidecar are listed.
func (r *Resource) Children() ([]*Resource, error) {
	if r.cache.Removed() {
		return nil, cache.ErrRemoved
	}
	if !r.kind.IsFolder() {
		return nil, nil
	}

	entries := r.cache.Children(r.archivePath)
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Name] = true
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Dir && r.mapping.IsOverlay(e.Name) {
			base := strings.TrimSuffix(e.Name, "."+r.mapping.OverlayExtension())
			if !seen[base] {
				seen[base] = true
				names = append(names, base)
			}
			continue
		}
		names = append(names, e.Name)
	}

	children := make([]*Resource, len(names))
	g := new(errgroup.Group)
	g.SetLimit(childrenLimit)
	for i, name := range names {
		g.Go(func() error {
			children[i] = New(r.mapping, r.cache, path.Join(r.path, name), path.Join(r.archivePath, name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return children, nil
}

// Open opens the resource content
func (r *Resource) Open() (io.ReadCloser, error) {
	if r.kind != KindFile || r.sidecarOnly || !r.exists {
		return nil, errors.Wrap(ErrNotFile, r.path)
	}
	return r.cache.Open(r.archivePath)
}
