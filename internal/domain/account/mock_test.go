package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicare/hms/internal/domain/identity"
)

type mockPatientRepo struct {
	patients map[uuid.UUID]*identity.Patient
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*identity.Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *identity.Patient) error {
	p.Email = identity.NormalizeEmail(p.Email)
	for _, existing := range m.patients {
		if existing.Email == p.Email {
			return identity.ErrDuplicateEmail
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByEmail(_ context.Context, email string) (*identity.Patient, error) {
	email = identity.NormalizeEmail(email)
	for _, p := range m.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, p *identity.Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return identity.ErrNotFound
	}
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return identity.ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*identity.Patient, int, error) {
	var all []*identity.Patient
	for _, p := range m.patients {
		all = append(all, p)
	}
	return all, len(all), nil
}

func (m *mockPatientRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	p, ok := m.patients[id]
	if !ok {
		return identity.ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *mockPatientRepo) SetResetChallenge(_ context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	p, ok := m.patients[id]
	if !ok {
		return identity.ErrNotFound
	}
	status := identity.ChallengeIssued
	p.OTPHash = &otpHash
	p.OTPExpiry = &expiry
	p.OTPStatus = &status
	return nil
}

func (m *mockPatientRepo) GetByResetHash(_ context.Context, otpHash string) (*identity.Patient, error) {
	for _, p := range m.patients {
		if p.OTPHash != nil && *p.OTPHash == otpHash {
			return p, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *mockPatientRepo) UpdateResetStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := m.patients[id]
	if !ok {
		return identity.ErrNotFound
	}
	p.OTPStatus = &status
	return nil
}

type mockUserRepo struct {
	users map[uuid.UUID]*identity.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*identity.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *identity.User) error {
	u.Email = identity.NormalizeEmail(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return identity.ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	email = identity.NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *identity.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return identity.ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return identity.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*identity.User, int, error) {
	var all []*identity.User
	for _, u := range m.users {
		all = append(all, u)
	}
	return all, len(all), nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) SetResetChallenge(_ context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	status := identity.ChallengeIssued
	u.OTPHash = &otpHash
	u.OTPExpiry = &expiry
	u.OTPStatus = &status
	return nil
}

func (m *mockUserRepo) GetByResetHash(_ context.Context, otpHash string) (*identity.User, error) {
	for _, u := range m.users {
		if u.OTPHash != nil && *u.OTPHash == otpHash {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (m *mockUserRepo) UpdateResetStatus(_ context.Context, id uuid.UUID, status string) error {
	u, ok := m.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	u.OTPStatus = &status
	return nil
}
