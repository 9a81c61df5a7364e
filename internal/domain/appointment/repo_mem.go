package appointment

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
	items map[uuid.UUID]*Appointment
}

func NewMemRepo() Repository {
	return &memRepo{items: make(map[uuid.UUID]*Appointment)}
}

func clone(a *Appointment) *Appointment {
	cp := *a
	if a.Notes != nil {
		n := *a.Notes
		cp.Notes = &n
	}
	return &cp
}

func (r *memRepo) Create(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Same lock as the insert, so a concurrent Create for this doctor sees
	// either nothing or the finished row.
	for _, other := range r.items {
		if other.DoctorID == a.DoctorID && other.Active() && a.Overlaps(other) {
			return &SlotConflictError{Start: other.StartAt, End: other.End()}
		}
	}

	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	r.items[a.ID] = clone(a)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("appointment %s: not found", id)
	}
	return clone(a), nil
}

func (r *memRepo) Update(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[a.ID]; !ok {
		return fmt.Errorf("appointment %s: not found", a.ID)
	}
	a.UpdatedAt = time.Now().UTC()
	r.items[a.ID] = clone(a)
	return nil
}

func (r *memRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Appointment
	for _, a := range r.items {
		if f.DoctorID != uuid.Nil && a.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != uuid.Nil && a.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if !f.Day.IsZero() {
			day := f.Day.UTC().Truncate(24 * time.Hour)
			if a.StartAt.UTC().Truncate(24 * time.Hour) != day {
				continue
			}
		}
		all = append(all, clone(a))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartAt.Before(all[j].StartAt) })

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

func (r *memRepo) CountActiveByDoctor(_ context.Context, doctorID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.items {
		if a.DoctorID == doctorID && a.Active() {
			n++
		}
	}
	return n, nil
}
