package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means no record matched the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail means an account with the same email already exists.
	ErrDuplicateEmail = errors.New("email already registered")
)

// PatientRepository persists patient accounts. Email lookups are performed
// on the normalized (lowercased) address.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiry time.Time) error
	GetByResetHash(ctx context.Context, otpHash string) (*Patient, error)
	UpdateResetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// UserRepository persists staff login accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)

	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetChallenge(ctx context.Context, id uuid.UUID, otpHash string, expiry time.Time) error
	GetByResetHash(ctx context.Context, otpHash string) (*User, error)
	UpdateResetStatus(ctx context.Context, id uuid.UUID, status string) error
}

// StaffRepository persists the staff directory.
type StaffRepository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	GetByEmail(ctx context.Context, email string) (*Staff, error)
	Update(ctx context.Context, s *Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Staff, int, error)
	SearchByRole(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error)
}
