package provider

import (
	"sort"
	"sync"

	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/crazy-max/bundlefs/pkg/resource"
	"github.com/pkg/errors"
)

// Registry is an in-memory host routing resource paths to the provider
// registered for the longest matching root.
type Registry struct {
	providers *mapping.Set[*Provider]
}

// Info describes a registered provider root
type Info struct {
	Root       string
	ArchiveID  string
	Generation uint64
	Mappings   []string
	Hits       uint64
	Misses     uint64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		providers: mapping.NewSet[*Provider](),
	}
}

// Register implements Registrar. A nil registry is not a valid
// registration context.
func (r *Registry) Register(root string, p *Provider) (Registration, error) {
	if r == nil {
		return nil, ErrIllegalState
	}
	if p == nil {
		return nil, errors.New("no provider")
	}
	m, err := mapping.New(root, "", "")
	if err != nil {
		return nil, err
	}
	if err := r.providers.Add(m, p); err != nil {
		return nil, err
	}
	return &registration{registry: r, root: m.ResourceRoot()}, nil
}

// Resolve returns the resource at path from the provider owning it
func (r *Registry) Resolve(path string) (*resource.Resource, error) {
	match, err := r.providers.Match(path)
	if err != nil {
		return nil, notFound(path, err)
	}
	return match.Value.Resolve(path)
}

// Len returns the number of registered roots
func (r *Registry) Len() int {
	return r.providers.Len()
}

// Providers returns an inventory of the registered roots sorted by root
func (r *Registry) Providers() []Info {
	var infos []Info
	for _, m := range r.providers.Mappings() {
		match, err := r.providers.Match(m.ResourceRoot())
		if err != nil {
			continue
		}
		p := match.Value
		snap := p.Cache().Snapshot()
		stats := p.Cache().Stats()
		info := Info{
			Root:       m.ResourceRoot(),
			ArchiveID:  snap.ID,
			Generation: snap.Generation,
			Hits:       stats.Hits,
			Misses:     stats.Misses,
		}
		for _, pm := range p.Mappings() {
			if pm.ResourceRoot() == m.ResourceRoot() {
				info.Mappings = append(info.Mappings, pm.String())
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Root < infos[j].Root
	})
	return infos
}

type registration struct {
	registry *Registry
	root     string
	once     sync.Once
}

func (r *registration) Unregister() {
	r.once.Do(func() {
		r.registry.providers.Remove(r.root)
	})
}
