package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound means no appointment matched the lookup.
var ErrNotFound = errors.New("appointment not found")

// Repository persists appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Appointment, int, error)
}
