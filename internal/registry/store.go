// Package registry is the keyed store for generated sites. Entries expire
// after a retention window; nothing here is durable by design.
package registry

import (
	"context"
	"errors"

	"github.com/tradiesite/tradiesite/internal/domain"
)

// ErrNotFound is returned by Get when no live entry exists for the id.
var ErrNotFound = errors.New("site not found")

// Store is the registry capability: save, fetch, and advance status.
type Store interface {
	// Save inserts or overwrites the site by id.
	Save(ctx context.Context, site *domain.GeneratedSite) error

	// Get returns the site or ErrNotFound. Expired entries count as absent.
	Get(ctx context.Context, id string) (*domain.GeneratedSite, error)

	// UpdateStatus advances the site's status and optionally records the
	// deployed URL. A missing id is a silent no-op.
	UpdateStatus(ctx context.Context, id string, status domain.SiteStatus, deployedURL string) error
}
