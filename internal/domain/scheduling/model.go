// Package scheduling manages appointment bookings.
package scheduling

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/hms/internal/domain/identity"
)

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Appointment maps to the appointment table.
type Appointment struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"fullName"`
	Gender    string    `db:"gender" json:"gender"`
	Email     string    `db:"email" json:"email"`
	Doctor    string    `db:"doctor" json:"doctor"`
	Date      time.Time `db:"date" json:"date"`
	Time      string    `db:"time" json:"time"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Validate checks the booking fields.
func (a *Appointment) Validate() error {
	if a.FullName == "" {
		return fmt.Errorf("fullName is required")
	}
	if a.Email == "" {
		return fmt.Errorf("email is required")
	}
	if a.Doctor == "" {
		return fmt.Errorf("doctor is required")
	}
	if a.Gender != "" && !identity.ValidGender(a.Gender) {
		return fmt.Errorf("gender must be one of %s, %s, %s",
			identity.GenderMale, identity.GenderFemale, identity.GenderOther)
	}
	if a.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if !timePattern.MatchString(a.Time) {
		return fmt.Errorf("time must be in HH:mm format")
	}
	return nil
}
