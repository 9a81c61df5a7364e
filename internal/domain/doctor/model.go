package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is a practicing clinician in the directory. The identity fields
// (name, email) mirror the linked user account; the rest is practice
// metadata. Doctors are referenced, never owned, by patients and
// appointments.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Email           string    `db:"email" json:"email"`
	Specialization  string    `db:"specialization" json:"specialization"`
	Qualification   string    `db:"qualification" json:"qualification"`
	ConsultationFee float64   `db:"consultation_fee" json:"consultation_fee"`
	Bio             *string   `db:"bio" json:"bio,omitempty"`
	Available       bool      `db:"available" json:"available"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Patch is a partial update. Identity fields are immutable; only practice
// metadata and the availability flag can change.
type Patch struct {
	Specialization  *string  `json:"specialization,omitempty"`
	Qualification   *string  `json:"qualification,omitempty"`
	ConsultationFee *float64 `json:"consultation_fee,omitempty"`
	Bio             *string  `json:"bio,omitempty"`
	Available       *bool    `json:"available,omitempty"`
}
