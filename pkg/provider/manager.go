package provider

import (
	"sort"
	"sync"
	"time"

	"github.com/crazy-max/bundlefs/pkg/archive"
	"github.com/crazy-max/bundlefs/pkg/cache"
	"github.com/crazy-max/bundlefs/pkg/mapping"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrUnknownArchive is returned for lifecycle signals on archives never installed
var ErrUnknownArchive = errors.New("unknown archive")

// Manager tracks installed archives and keeps their providers registered
type Manager struct {
	registrar Registrar

	mu       sync.Mutex
	archives map[string]*Provider
}

// Installed describes an installed archive
type Installed struct {
	ID       string
	Snapshot archive.Snapshot
	Roots    []string
	Stats    cache.Stats
}

// NewManager creates a new manager registering providers against r
func NewManager(r Registrar) *Manager {
	return &Manager{
		registrar: r,
		archives:  make(map[string]*Provider),
	}
}

// Install exposes the mapped content of src. Nothing is kept when the
// provider cannot be registered.
func (m *Manager) Install(id string, src archive.Source, mappings []mapping.PathMapping) error {
	if m.registrar == nil {
		return ErrIllegalState
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.archives[id]; ok {
		return &mapping.ConfigError{Root: id, Err: errors.New("archive already installed")}
	}

	p, err := New(cache.New(src), mappings...)
	if err != nil {
		return errors.Wrapf(err, "cannot create provider for archive %s", id)
	}
	if err := p.Start(m.registrar); err != nil {
		p.Cache().Remove()
		return err
	}
	m.archives[id] = p
	log.Info().Str("archive", id).Strs("roots", p.Roots()).Msg("Archive installed")
	return nil
}

// Update signals a new modification marker for the archive
func (m *Manager) Update(id string, modified time.Time) error {
	m.mu.Lock()
	p, ok := m.archives[id]
	m.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrUnknownArchive, id)
	}
	p.Cache().Updated(modified)
	return nil
}

// Uninstall unregisters the archive providers and clears its cache
func (m *Manager) Uninstall(id string) error {
	m.mu.Lock()
	p, ok := m.archives[id]
	delete(m.archives, id)
	m.mu.Unlock()
	if !ok {
		return errors.Wrap(ErrUnknownArchive, id)
	}
	p.Stop()
	p.Cache().Remove()
	log.Info().Str("archive", id).Msg("Archive uninstalled")
	return nil
}

// Inventory lists the installed archives sorted by id
func (m *Manager) Inventory() []Installed {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]Installed, 0, len(m.archives))
	for id, p := range m.archives {
		res = append(res, Installed{
			ID:       id,
			Snapshot: p.Cache().Snapshot(),
			Roots:    p.Roots(),
			Stats:    p.Cache().Stats(),
		})
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ID < res[j].ID
	})
	return res
}

// Close uninstalls every archive
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.archives))
	for id := range m.archives {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		_ = m.Uninstall(id)
	}
}
