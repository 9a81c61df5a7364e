package staff

import (
	"time"

	"github.com/google/uuid"
)

const (
	DutyOn  = "on-duty"
	DutyOff = "off-duty"
)

var validShifts = map[string]bool{
	"morning": true, "evening": true, "night": true,
}

// Member is one staff directory entry.
type Member struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Role       string    `db:"role" json:"role"`
	Department string    `db:"department" json:"department"`
	Shift      string    `db:"shift" json:"shift"`
	Phone      string    `db:"phone" json:"phone"`
	Email      string    `db:"email" json:"email"`
	DutyStatus string    `db:"duty_status" json:"duty_status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

type Patch struct {
	Role       *string `json:"role,omitempty"`
	Department *string `json:"department,omitempty"`
	Shift      *string `json:"shift,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
	DutyStatus *string `json:"duty_status,omitempty"`
}
