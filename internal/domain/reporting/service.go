package reporting

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, rep *Report) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, rep)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, rep *Report) error {
	if err := rep.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, rep)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Report, int, error) {
	return s.repo.ListByEmail(ctx, email, limit, offset)
}
