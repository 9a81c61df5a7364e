package pharmacy

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu        sync.RWMutex
	items     map[uuid.UUID]*Medicine
	movements []*StockMovement
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Medicine)}
}

func clone(m *Medicine) *Medicine {
	cp := *m
	return &cp
}

func cloneMovement(mv *StockMovement) *StockMovement {
	cp := *mv
	if mv.BillID != nil {
		id := *mv.BillID
		cp.BillID = &id
	}
	return &cp
}

func (r *memRepo) Create(_ context.Context, m *Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	r.items[m.ID] = clone(m)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Medicine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("medicine %s: not found", id)
	}
	return clone(m), nil
}

func (r *memRepo) Update(_ context.Context, m *Medicine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[m.ID]
	if !ok {
		return fmt.Errorf("medicine %s: not found", m.ID)
	}
	// stock is ledger-owned, catalog updates never touch it
	m.Stock = stored.Stock
	m.UpdatedAt = time.Now().UTC()
	r.items[m.ID] = clone(m)
	return nil
}

func (r *memRepo) List(_ context.Context, lowOnly bool, limit, offset int) ([]*Medicine, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Medicine
	for _, m := range r.items {
		if lowOnly && !m.LowStock() {
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

func (r *memRepo) ApplyDelta(_ context.Context, mv *StockMovement) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[mv.MedicineID]
	if !ok {
		return 0, fmt.Errorf("medicine %s: not found", mv.MedicineID)
	}
	next := m.Stock + mv.Delta
	if next < 0 {
		return 0, ErrStockExhausted
	}

	m.Stock = next
	m.UpdatedAt = time.Now().UTC()

	mv.ID = uuid.New()
	mv.At = time.Now().UTC()
	r.movements = append(r.movements, cloneMovement(mv))
	return next, nil
}

func (r *memRepo) Movements(_ context.Context, medicineID uuid.UUID, limit, offset int) ([]*StockMovement, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// append order is chronological, so walk backwards for newest first
	var all []*StockMovement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if mv := r.movements[i]; mv.MedicineID == medicineID {
			all = append(all, cloneMovement(mv))
		}
	}

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
