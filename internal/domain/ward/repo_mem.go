package ward

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
	rooms map[uuid.UUID]*Room
	beds  map[uuid.UUID]*Bed
}

func NewMemRepo() Repository {
	return &memRepo{
		rooms: make(map[uuid.UUID]*Room),
		beds:  make(map[uuid.UUID]*Bed),
	}
}

func cloneBed(b *Bed) *Bed {
	cp := *b
	if b.PatientID != nil {
		id := *b.PatientID
		cp.PatientID = &id
	}
	if b.OccupiedAt != nil {
		at := *b.OccupiedAt
		cp.OccupiedAt = &at
	}
	return &cp
}

// cloneRoom copies the room and attaches its current bed rows, sorted by
// label so output is stable.
func (r *memRepo) cloneRoom(room *Room) *Room {
	cp := *room
	cp.Beds = nil
	for _, b := range r.beds {
		if b.RoomID == room.ID {
			cp.Beds = append(cp.Beds, *cloneBed(b))
		}
	}
	sort.Slice(cp.Beds, func(i, j int) bool { return cp.Beds[i].Label < cp.Beds[j].Label })
	return &cp
}

func (r *memRepo) CreateRoom(_ context.Context, room *Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room.ID = uuid.New()
	room.CreatedAt = time.Now().UTC()
	room.UpdatedAt = room.CreatedAt
	stored := *room
	stored.Beds = nil
	r.rooms[room.ID] = &stored
	return nil
}

func (r *memRepo) GetRoom(_ context.Context, id uuid.UUID) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: not found", id)
	}
	return r.cloneRoom(room), nil
}

func (r *memRepo) ListRooms(_ context.Context, roomType string, limit, offset int) ([]*Room, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*Room
	for _, room := range r.rooms {
		if roomType != "" && room.Type != roomType {
			continue
		}
		all = append(all, r.cloneRoom(room))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RoomNumber < all[j].RoomNumber })

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

func (r *memRepo) DeleteRoom(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; !ok {
		return fmt.Errorf("room %s: not found", id)
	}
	delete(r.rooms, id)
	for bedID, b := range r.beds {
		if b.RoomID == id {
			delete(r.beds, bedID)
		}
	}
	return nil
}

func (r *memRepo) OccupiedBeds(_ context.Context, roomID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, b := range r.beds {
		if b.RoomID == roomID && b.Occupied {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CreateBed(_ context.Context, b *Bed) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[b.RoomID]; !ok {
		return fmt.Errorf("room %s: not found", b.RoomID)
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now().UTC()
	b.UpdatedAt = b.CreatedAt
	r.beds[b.ID] = cloneBed(b)
	return nil
}

func (r *memRepo) GetBed(_ context.Context, id uuid.UUID) (*Bed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.beds[id]
	if !ok {
		return nil, fmt.Errorf("bed %s: not found", id)
	}
	return cloneBed(b), nil
}

func (r *memRepo) Occupy(_ context.Context, bedID, patientID uuid.UUID) (*Bed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.beds[bedID]
	if !ok {
		return nil, fmt.Errorf("bed %s: not found", bedID)
	}
	if b.Occupied {
		return nil, ErrBedTaken
	}

	now := time.Now().UTC()
	b.Occupied = true
	b.PatientID = &patientID
	b.OccupiedAt = &now
	b.UpdatedAt = now
	return cloneBed(b), nil
}

func (r *memRepo) Release(_ context.Context, bedID uuid.UUID) (*Bed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.beds[bedID]
	if !ok {
		return nil, fmt.Errorf("bed %s: not found", bedID)
	}
	if !b.Occupied {
		return nil, ErrBedFree
	}

	b.Occupied = false
	b.PatientID = nil
	b.OccupiedAt = nil
	b.UpdatedAt = time.Now().UTC()
	return cloneBed(b), nil
}
