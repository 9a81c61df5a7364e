package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient record. Identity (name, dob, gender) is
// fixed at registration; contact details and the doctor assignment are the
// only mutable parts. The assigned doctor is a weak reference by id.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	DOB                   time.Time  `db:"dob" json:"dob"`
	Gender                string     `db:"gender" json:"gender"`
	Phone                 string     `db:"phone" json:"phone"`
	Email                 *string    `db:"email" json:"email,omitempty"`
	Address               *string    `db:"address" json:"address,omitempty"`
	EmergencyContactName  *string    `db:"emergency_contact_name" json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `db:"emergency_contact_phone" json:"emergency_contact_phone,omitempty"`
	AssignedDoctorID      *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

// Patch is a partial-field merge over the mutable part of a record.
type Patch struct {
	Phone                 *string    `json:"phone,omitempty"`
	Email                 *string    `json:"email,omitempty"`
	Address               *string    `json:"address,omitempty"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty"`
	AssignedDoctorID      *uuid.UUID `json:"assigned_doctor_id,omitempty"`
}
