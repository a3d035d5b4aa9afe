package provider

import (
	"sync"

	"github.com/crazy-max/bundlefs/pkg/cache"
	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/crazy-max/bundlefs/pkg/resource"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned for unmapped paths and missing entries alike
	ErrNotFound = errors.New("resource not found")
	// ErrIllegalState is returned when registering without registration context
	ErrIllegalState = errors.New("no registration context available")
)

// Registration is the handle of a registered provider root
type Registration interface {
	Unregister()
}

// Registrar is the host side registration context
type Registrar interface {
	Register(root string, p *Provider) (Registration, error)
}

// Provider exposes the mapped content of a single archive
type Provider struct {
	cache    *cache.EntryCache
	mappings *mapping.Set[*cache.EntryCache]
	logger   zerolog.Logger

	mu   sync.Mutex
	regs []Registration
}

// New creates a new provider serving mappings from the archive behind c
func New(c *cache.EntryCache, mappings ...mapping.PathMapping) (*Provider, error) {
	if c == nil {
		return nil, errors.Wrap(ErrIllegalState, "no archive cache")
	}
	p := &Provider{
		cache:    c,
		mappings: mapping.NewSet[*cache.EntryCache](),
		logger:   log.With().Str("archive", c.Source().ID()).Logger(),
	}
	for _, m := range mappings {
		if err := p.mappings.Add(m, c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Cache returns the archive cache of the provider
func (p *Provider) Cache() *cache.EntryCache {
	return p.cache
}

// Mappings returns the mappings served by the provider
func (p *Provider) Mappings() []mapping.PathMapping {
	return p.mappings.Mappings()
}

// Roots returns the resource roots served by the provider
func (p *Provider) Roots() []string {
	mappings := p.mappings.Mappings()
	roots := make([]string, 0, len(mappings))
	for _, m := range mappings {
		roots = append(roots, m.ResourceRoot())
	}
	return roots
}

// Resolve returns the resource at path. Unmapped paths and paths without
// archive entry both fail with ErrNotFound.
func (p *Provider) Resolve(path string) (*resource.Resource, error) {
	match, err := p.mappings.Match(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	res := resource.New(match.Mapping, match.Value, path, match.ArchivePath())
	if !res.Exists() {
		p.logger.Trace().Str("path", path).Str("entry", match.ArchivePath()).Msg("Entry not found")
		return nil, notFound(path, nil)
	}
	return res, nil
}

// Start registers every root of the provider. Without registration context
// it fails with ErrIllegalState and nothing is registered.
func (p *Provider) Start(r Registrar) error {
	if r == nil {
		return ErrIllegalState
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.regs != nil {
		return nil
	}

	regs := make([]Registration, 0, p.mappings.Len())
	for _, root := range p.Roots() {
		reg, err := r.Register(root, p)
		if err != nil {
			for _, reg := range regs {
				reg.Unregister()
			}
			return errors.Wrapf(err, "cannot register provider for %s", root)
		}
		p.logger.Debug().Str("root", root).Msg("Provider registered")
		regs = append(regs, reg)
	}
	p.regs = regs
	return nil
}

// Started reports whether the provider is registered
func (p *Provider) Started() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.regs != nil
}

// Stop unregisters the provider. Calling it again is a no-op.
func (p *Provider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, reg := range p.regs {
		reg.Unregister()
	}
	if p.regs != nil {
		p.logger.Debug().Msg("Provider unregistered")
	}
	p.regs = nil
}
