package mapping

import (
	"fmt"
	"path"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrNotMapped is returned when no mapping covers a resource path
	ErrNotMapped = errors.New("path is not mapped")
	// ErrDuplicateRoot is returned when a resource root is registered twice
	ErrDuplicateRoot = errors.New("duplicate resource root")
	// ErrEmptyRoot is returned for a mapping without resource root
	ErrEmptyRoot = errors.New("empty resource root")
)

// ConfigError reports an invalid mapping configuration
type ConfigError struct {
	Root string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid mapping %q: %v", e.Root, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// PathMapping binds a resource tree root to an archive entry root
type PathMapping struct {
	resourceRoot string
	archiveRoot  string
	overlayExt   string
}

// New creates a new path mapping. An empty archiveRoot mirrors resourceRoot
// and an empty overlayExt disables sidecar property files.
func New(resourceRoot, archiveRoot, overlayExt string) (PathMapping, error) {
	if strings.TrimSpace(resourceRoot) == "" {
		return PathMapping{}, &ConfigError{Root: resourceRoot, Err: ErrEmptyRoot}
	}
	m := PathMapping{
		resourceRoot: clean(resourceRoot),
		overlayExt:   strings.TrimPrefix(strings.TrimSpace(overlayExt), "."),
	}
	if strings.TrimSpace(archiveRoot) != "" {
		m.archiveRoot = clean(archiveRoot)
	}
	return m, nil
}

// MustNew is like New but panics on error
func MustNew(resourceRoot, archiveRoot, overlayExt string) PathMapping {
	m, err := New(resourceRoot, archiveRoot, overlayExt)
	if err != nil {
		panic(err)
	}
	return m
}

func clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// ResourceRoot returns the resource tree root
func (m PathMapping) ResourceRoot() string {
	return m.resourceRoot
}

// ArchiveRoot returns the effective archive root
func (m PathMapping) ArchiveRoot() string {
	if m.archiveRoot == "" {
		return m.resourceRoot
	}
	return m.archiveRoot
}

// OverlayExtension returns the sidecar extension, without leading dot
func (m PathMapping) OverlayExtension() string {
	return m.overlayExt
}

// HasOverlay reports whether sidecar property files are enabled
func (m PathMapping) HasOverlay() bool {
	return m.overlayExt != ""
}

// ArchivePath returns the archive path for a residual below the resource root
func (m PathMapping) ArchivePath(residual string) string {
	if residual == "" || residual == "/" {
		return m.ArchiveRoot()
	}
	return path.Join(m.ArchiveRoot(), residual)
}

// OverlayPath returns the sidecar location of an archive entry. The sidecar
// always sits next to the archive entry, so a mapped file root gets a
// sibling sidecar and never a nested one.
func (m PathMapping) OverlayPath(archivePath string) (string, bool) {
	if !m.HasOverlay() {
		return "", false
	}
	return archivePath + "." + m.overlayExt, true
}

// IsOverlay reports whether an entry name is a sidecar document
func (m PathMapping) IsOverlay(name string) bool {
	return m.HasOverlay() && strings.HasSuffix(name, "."+m.overlayExt) && len(name) > len(m.overlayExt)+1
}

// Covers reports whether p equals the resource root or lies below it,
// and returns the residual.
func (m PathMapping) Covers(p string) (string, bool) {
	return residual(m.resourceRoot, p)
}

func (m PathMapping) String() string {
	var sb strings.Builder
	sb.WriteString(m.resourceRoot)
	if m.archiveRoot != "" {
		sb.WriteString(";" + attrPath + ":=" + m.archiveRoot)
	}
	if m.overlayExt != "" {
		sb.WriteString(";" + attrOverlay + ":=" + m.overlayExt)
	}
	return sb.String()
}

// residual returns p relative to root on a segment boundary
func residual(root, p string) (string, bool) {
	if root == "/" {
		return strings.TrimPrefix(p, "/"), strings.HasPrefix(p, "/")
	}
	if p == root {
		return "", true
	}
	if strings.HasPrefix(p, root) && p[len(root)] == '/' {
		return p[len(root)+1:], true
	}
	return "", false
}
