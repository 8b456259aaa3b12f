package reporting

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound means no report matched the lookup.
var ErrNotFound = errors.New("report not found")

// Repository persists reports.
type Repository interface {
	Create(ctx context.Context, rep *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, rep *Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Report, int, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Report, int, error)
}
