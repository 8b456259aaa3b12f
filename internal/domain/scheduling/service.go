package scheduling

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare/hms/internal/platform/notification"
)

type Service struct {
	repo   Repository
	mailer *notification.Manager
	logger zerolog.Logger
}

func NewService(repo Repository, mailer *notification.Manager, logger zerolog.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, logger: logger}
}

// Book creates an appointment and sends a confirmation email. The send is
// fire and forget; a mail failure never fails the booking.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return err
	}

	go func() {
		if _, err := s.mailer.SendFromTemplate(context.Background(), "appointment-booked", map[string]string{
			"patient_name": a.FullName,
			"doctor":       a.Doctor,
			"date":         a.Date.Format("2006-01-02"),
			"time":         a.Time,
		}, a.Email); err != nil {
			s.logger.Warn().Err(err).Str("appointment_id", a.ID.String()).Msg("confirmation mail failed")
		}
	}()

	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByEmail(ctx context.Context, email string, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListByEmail(ctx, email, limit, offset)
}
