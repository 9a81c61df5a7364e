package doctor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepo is the in-memory Repository. Mutations are serialized behind the
// store mutex and reads return copies, so callers only ever see committed
// snapshots.
type memRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Doctor
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Doctor)}
}

func clone(d *Doctor) *Doctor {
	cp := *d
	if d.Bio != nil {
		bio := *d.Bio
		cp.Bio = &bio
	}
	return &cp
}

func (r *memRepo) Create(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	d.ID = uuid.New()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	r.items[d.ID] = clone(d)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("doctor %s: not found", id)
	}
	return clone(d), nil
}

func (r *memRepo) Update(_ context.Context, d *Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[d.ID]; !ok {
		return fmt.Errorf("doctor %s: not found", d.ID)
	}
	d.UpdatedAt = time.Now().UTC()
	r.items[d.ID] = clone(d)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("doctor %s: not found", id)
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) List(_ context.Context, onlyAvailable bool, limit, offset int) ([]*Doctor, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Doctor
	for _, d := range r.items {
		if onlyAvailable && !d.Available {
			continue
		}
		all = append(all, clone(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *memRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[id]
	return ok, nil
}
