package ward

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrBedTaken and ErrBedFree are repository-level signals from the atomic
// occupancy flips; the service maps them onto the caller-facing taxonomy.
var (
	ErrBedTaken = errors.New("bed is occupied")
	ErrBedFree  = errors.New("bed is not occupied")
)

type Repository interface {
	CreateRoom(ctx context.Context, r *Room) error
	// GetRoom returns the room with its bed rows loaded.
	GetRoom(ctx context.Context, id uuid.UUID) (*Room, error)
	ListRooms(ctx context.Context, roomType string, limit, offset int) ([]*Room, int, error)
	// DeleteRoom removes the room and its beds in one statement batch.
	DeleteRoom(ctx context.Context, id uuid.UUID) error
	OccupiedBeds(ctx context.Context, roomID uuid.UUID) (int, error)

	CreateBed(ctx context.Context, b *Bed) error
	GetBed(ctx context.Context, id uuid.UUID) (*Bed, error)
	// Occupy flips a free bed to occupied under the row lock; ErrBedTaken
	// if it already is. Release is the inverse with ErrBedFree.
	Occupy(ctx context.Context, bedID, patientID uuid.UUID) (*Bed, error)
	Release(ctx context.Context, bedID uuid.UUID) (*Bed, error)
}

// PatientDirectory validates the patient a bed is allocated to.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
