package ward

import (
	"time"

	"github.com/google/uuid"
)

// Room types mirror the floor plan categories.
const (
	RoomICU       = "ICU"
	RoomGeneral   = "General"
	RoomPrivate   = "Private"
	RoomEmergency = "Emergency"
)

var validRoomTypes = map[string]bool{
	RoomICU: true, RoomGeneral: true, RoomPrivate: true, RoomEmergency: true,
}

// Room is one physical room. AvailableBeds is recomputed from the bed rows
// on every read, never stored.
type Room struct {
	ID            uuid.UUID `db:"id" json:"id"`
	RoomNumber    string    `db:"room_number" json:"room_number"`
	Type          string    `db:"type" json:"type"`
	Floor         int       `db:"floor" json:"floor"`
	PricePerDay   float64   `db:"price_per_day" json:"price_per_day"`
	Beds          []Bed     `json:"beds"`
	AvailableBeds int       `json:"available_beds"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Bed is one bed inside a room. An occupied bed records who holds it and
// since when.
type Bed struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	RoomID      uuid.UUID  `db:"room_id" json:"room_id"`
	Label       string     `db:"label" json:"label"`
	Occupied    bool       `db:"occupied" json:"occupied"`
	PatientID   *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
	OccupiedAt  *time.Time `db:"occupied_at" json:"occupied_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// RecomputeAvailability rederives the available count from the bed rows.
func (r *Room) RecomputeAvailability() {
	n := 0
	for _, b := range r.Beds {
		if !b.Occupied {
			n++
		}
	}
	r.AvailableBeds = n
}
