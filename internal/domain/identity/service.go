package identity

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service holds directory operations over patients, users, and staff.
// Credential flows (signup, login, password reset) live in the account
// package and talk to the repositories directly.
type Service struct {
	patients PatientRepository
	users    UserRepository
	staff    StaffRepository
}

func NewService(patients PatientRepository, users UserRepository, staff StaffRepository) *Service {
	return &Service{patients: patients, users: users, staff: staff}
}

// -- Patient directory --

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) UpdatePatient(ctx context.Context, p *Patient) error {
	if err := validatePatient(p); err != nil {
		return err
	}
	return s.patients.Update(ctx, p)
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.patients.Delete(ctx, id)
}

func validatePatient(p *Patient) error {
	if p.FirstName == "" || p.LastName == "" {
		return fmt.Errorf("firstName and lastName are required")
	}
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	if p.Gender != "" && !ValidGender(p.Gender) {
		return fmt.Errorf("gender must be one of %s, %s, %s", GenderMale, GenderFemale, GenderOther)
	}
	if p.ContactNumber != "" && !ValidContactNumber(p.ContactNumber) {
		return fmt.Errorf("contactNumber must be exactly 10 digits")
	}
	return nil
}

// -- User accounts --

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

func (s *Service) UpdateUser(ctx context.Context, u *User) error {
	if u.FirstName == "" || u.LastName == "" {
		return fmt.Errorf("firstName and lastName are required")
	}
	if !ValidRole(u.Role) {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if u.ContactNumber != "" && !ValidContactNumber(u.ContactNumber) {
		return fmt.Errorf("contactNumber must be exactly 10 digits")
	}
	return s.users.Update(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}

// -- Staff directory --

func (s *Service) CreateStaff(ctx context.Context, st *Staff) error {
	if err := validateStaff(st); err != nil {
		return err
	}
	return s.staff.Create(ctx, st)
}

func (s *Service) GetStaff(ctx context.Context, id uuid.UUID) (*Staff, error) {
	return s.staff.GetByID(ctx, id)
}

func (s *Service) ListStaff(ctx context.Context, limit, offset int) ([]*Staff, int, error) {
	return s.staff.List(ctx, limit, offset)
}

func (s *Service) SearchStaffByRole(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	return s.staff.SearchByRole(ctx, role, limit, offset)
}

func (s *Service) UpdateStaff(ctx context.Context, st *Staff) error {
	if err := validateStaff(st); err != nil {
		return err
	}
	return s.staff.Update(ctx, st)
}

func (s *Service) DeleteStaff(ctx context.Context, id uuid.UUID) error {
	return s.staff.Delete(ctx, id)
}

func validateStaff(st *Staff) error {
	if st.FirstName == "" || st.LastName == "" {
		return fmt.Errorf("firstName and lastName are required")
	}
	if !ValidStaffRole(st.Role) {
		return fmt.Errorf("invalid staff role %q", st.Role)
	}
	if st.Gender != "" && !ValidGender(st.Gender) {
		return fmt.Errorf("gender must be one of %s, %s, %s", GenderMale, GenderFemale, GenderOther)
	}
	if st.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}
