package billing

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
	items map[uuid.UUID]*Bill
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Bill)}
}

func clone(b *Bill) *Bill {
	cp := *b
	cp.Items = make([]Item, len(b.Items))
	for i, it := range b.Items {
		cp.Items[i] = it
		if it.MedicineID != nil {
			id := *it.MedicineID
			cp.Items[i].MedicineID = &id
		}
	}
	return &cp
}

func (r *memRepo) Create(_ context.Context, b *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	for i := range b.Items {
		b.Items[i].ID = uuid.New()
		b.Items[i].BillID = b.ID
	}
	r.items[b.ID] = clone(b)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("bill %s: not found", id)
	}
	return clone(b), nil
}

func (r *memRepo) UpdateDerived(_ context.Context, b *Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[b.ID]
	if !ok {
		return fmt.Errorf("bill %s: not found", b.ID)
	}
	stored.Paid = b.Paid
	stored.Total = b.Total
	stored.Status = b.Status
	stored.UpdatedAt = time.Now().UTC()
	b.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memRepo) List(_ context.Context, patientID uuid.UUID, status Status, limit, offset int) ([]*Bill, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Bill
	for _, b := range r.items {
		if patientID != uuid.Nil && b.PatientID != patientID {
			continue
		}
		if status != "" && b.Status != status {
			continue
		}
		all = append(all, clone(b))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

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

func (r *memRepo) CountByStatus(_ context.Context, status Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, b := range r.items {
		if b.Status == status {
			n++
		}
	}
	return n, nil
}
