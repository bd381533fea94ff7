package memory

import (
	"context"
	"sync"

	"github.com/cristianortiz/thriftbid/internal/profile/domain"
	"github.com/google/uuid"
)

// ProfileDirectory is the in-memory counterpart of the postgres profile
// repository, for tests and local development.
type ProfileDirectory struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*domain.Profile
}

func NewProfileDirectory() *ProfileDirectory {
	return &ProfileDirectory{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (d *ProfileDirectory) AddProfile(p *domain.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.profiles[p.ID] = &cp
}

func (d *ProfileDirectory) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.profiles[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}
