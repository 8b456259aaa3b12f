package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// mockPatientRepo is an in-memory PatientRepository.
type mockPatientRepo struct {
	patients map[uuid.UUID]*Patient
	failWith error
}

func newMockPatientRepo() *mockPatientRepo {
	return &mockPatientRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockPatientRepo) Create(_ context.Context, p *Patient) error {
	if m.failWith != nil {
		return m.failWith
	}
	p.Email = NormalizeEmail(p.Email)
	for _, existing := range m.patients {
		if existing.Email == p.Email {
			return ErrDuplicateEmail
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockPatientRepo) GetByEmail(_ context.Context, email string) (*Patient, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	email = NormalizeEmail(email)
	for _, p := range m.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPatientRepo) Update(_ context.Context, p *Patient) error {
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	p.Email = NormalizeEmail(p.Email)
	m.patients[p.ID] = p
	return nil
}

func (m *mockPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.patients[id]; !ok {
		return ErrNotFound
	}
	delete(m.patients, id)
	return nil
}

func (m *mockPatientRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	var all []*Patient
	for _, p := range m.patients {
		all = append(all, p)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockPatientRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.PasswordHash = hash
	return nil
}

func (m *mockPatientRepo) SetResetChallenge(_ context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	status := ChallengeIssued
	p.OTPHash = &otpHash
	p.OTPExpiry = &expiry
	p.OTPStatus = &status
	return nil
}

func (m *mockPatientRepo) GetByResetHash(_ context.Context, otpHash string) (*Patient, error) {
	for _, p := range m.patients {
		if p.OTPHash != nil && *p.OTPHash == otpHash {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockPatientRepo) UpdateResetStatus(_ context.Context, id uuid.UUID, status string) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.OTPStatus = &status
	return nil
}

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	users    map[uuid.UUID]*User
	failWith error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if m.failWith != nil {
		return m.failWith
	}
	u.Email = NormalizeEmail(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	u.Email = NormalizeEmail(u.Email)
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var all []*User
	for _, u := range m.users {
		all = append(all, u)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *mockUserRepo) SetResetChallenge(_ context.Context, id uuid.UUID, otpHash string, expiry time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	status := ChallengeIssued
	u.OTPHash = &otpHash
	u.OTPExpiry = &expiry
	u.OTPStatus = &status
	return nil
}

func (m *mockUserRepo) GetByResetHash(_ context.Context, otpHash string) (*User, error) {
	for _, u := range m.users {
		if u.OTPHash != nil && *u.OTPHash == otpHash {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockUserRepo) UpdateResetStatus(_ context.Context, id uuid.UUID, status string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.OTPStatus = &status
	return nil
}

// mockStaffRepo is an in-memory StaffRepository.
type mockStaffRepo struct {
	staff    map[uuid.UUID]*Staff
	failWith error
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{staff: make(map[uuid.UUID]*Staff)}
}

func (m *mockStaffRepo) Create(_ context.Context, s *Staff) error {
	if m.failWith != nil {
		return m.failWith
	}
	s.Email = NormalizeEmail(s.Email)
	for _, existing := range m.staff {
		if existing.Email == s.Email {
			return ErrDuplicateEmail
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.staff[s.ID] = s
	return nil
}

func (m *mockStaffRepo) GetByID(_ context.Context, id uuid.UUID) (*Staff, error) {
	s, ok := m.staff[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockStaffRepo) GetByEmail(_ context.Context, email string) (*Staff, error) {
	email = NormalizeEmail(email)
	for _, s := range m.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStaffRepo) Update(_ context.Context, s *Staff) error {
	if _, ok := m.staff[s.ID]; !ok {
		return ErrNotFound
	}
	s.Email = NormalizeEmail(s.Email)
	m.staff[s.ID] = s
	return nil
}

func (m *mockStaffRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.staff[id]; !ok {
		return ErrNotFound
	}
	delete(m.staff, id)
	return nil
}

func (m *mockStaffRepo) List(_ context.Context, limit, offset int) ([]*Staff, int, error) {
	var all []*Staff
	for _, s := range m.staff {
		all = append(all, s)
	}
	total := len(all)
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockStaffRepo) SearchByRole(_ context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	var matched []*Staff
	for _, s := range m.staff {
		if strings.EqualFold(s.Role, role) {
			matched = append(matched, s)
		}
	}
	total := len(matched)
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
