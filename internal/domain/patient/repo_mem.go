package patient

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Patient
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Patient)}
}

func clone(p *Patient) *Patient {
	cp := *p
	cp.Email = cloneStr(p.Email)
	cp.Address = cloneStr(p.Address)
	cp.EmergencyContactName = cloneStr(p.EmergencyContactName)
	cp.EmergencyContactPhone = cloneStr(p.EmergencyContactPhone)
	if p.AssignedDoctorID != nil {
		id := *p.AssignedDoctorID
		cp.AssignedDoctorID = &id
	}
	return &cp
}

func cloneStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func (r *memRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.items[p.ID] = clone(p)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("patient %s: not found", id)
	}
	return clone(p), nil
}

func (r *memRepo) Update(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[p.ID]; !ok {
		return fmt.Errorf("patient %s: not found", p.ID)
	}
	p.UpdatedAt = time.Now().UTC()
	r.items[p.ID] = clone(p)
	return nil
}

func (r *memRepo) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	var all []*Patient
	for _, p := range r.items {
		if q != "" {
			name := strings.ToLower(p.FirstName + " " + p.LastName)
			if !strings.Contains(name, q) && !strings.Contains(p.Phone, q) {
				continue
			}
		}
		all = append(all, clone(p))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].LastName != all[j].LastName {
			return all[i].LastName < all[j].LastName
		}
		return all[i].FirstName < all[j].FirstName
	})

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

func (r *memRepo) CountAssignedTo(_ context.Context, doctorID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.items {
		if p.AssignedDoctorID != nil && *p.AssignedDoctorID == doctorID {
			n++
		}
	}
	return n, nil
}
