package registry

import (
	"context"
	"sync"
	"time"

	"github.com/tradiesite/tradiesite/internal/domain"
	"github.com/tradiesite/tradiesite/internal/observability"
)

// MemoryStore keeps sites in process memory. Every access sweeps entries
// older than the TTL, so a caller can never observe an expired site.
type MemoryStore struct {
	mu    sync.RWMutex
	sites map[string]*domain.GeneratedSite
	ttl   time.Duration

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewMemoryStore creates an in-memory store with the given retention window.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sites: make(map[string]*domain.GeneratedSite),
		ttl:   ttl,
		now:   time.Now,
	}
}

// sweep deletes expired entries. Callers hold the write lock.
func (s *MemoryStore) sweep() {
	cutoff := s.now().Add(-s.ttl)
	for id, site := range s.sites {
		if site.CreatedAt.Before(cutoff) {
			delete(s.sites, id)
		}
	}
	observability.SitesStored.Set(float64(len(s.sites)))
}

// Save sweeps, then inserts or overwrites the site by id.
func (s *MemoryStore) Save(ctx context.Context, site *domain.GeneratedSite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	s.sites[site.ID] = site
	observability.SitesStored.Set(float64(len(s.sites)))
	return nil
}

// Get sweeps, then returns the site or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, id string) (*domain.GeneratedSite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep()
	site, ok := s.sites[id]
	if !ok {
		return nil, ErrNotFound
	}
	return site, nil
}

// UpdateStatus mutates the entry in place. A missing id is silently ignored,
// and so is a backwards status transition.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status domain.SiteStatus, deployedURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	site, ok := s.sites[id]
	if !ok {
		return nil
	}
	if site.Status.CanTransitionTo(status) {
		site.Status = status
	}
	if deployedURL != "" {
		site.DeployedURL = deployedURL
	}
	return nil
}
