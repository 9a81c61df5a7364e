package staff

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Member
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Member)}
}

func clone(m *Member) *Member {
	cp := *m
	return &cp
}

func (r *memRepo) Create(_ context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	r.items[m.ID] = clone(m)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("staff member %s: not found", id)
	}
	return clone(m), nil
}

func (r *memRepo) Update(_ context.Context, m *Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[m.ID]; !ok {
		return fmt.Errorf("staff member %s: not found", m.ID)
	}
	m.UpdatedAt = time.Now().UTC()
	r.items[m.ID] = clone(m)
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("staff member %s: not found", id)
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Member, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Member
	for _, m := range r.items {
		if f.Department != "" && m.Department != f.Department {
			continue
		}
		if f.DutyStatus != "" && m.DutyStatus != f.DutyStatus {
			continue
		}
		all = append(all, clone(m))
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
