// Package account implements credential flows: signup, login, OTP-based
// password reset, and profile access for patient and staff accounts.
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicare/hms/internal/domain/identity"
	"github.com/medicare/hms/internal/platform/auth"
	"github.com/medicare/hms/internal/platform/notification"
)

var (
	// ErrInvalidCredentials is returned for unknown email and wrong
	// password alike, so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrChallengeRequired means reset-password was called without a
	// verified, unexpired OTP challenge on the account.
	ErrChallengeRequired = errors.New("otp verification required")
)

const minPasswordLength = 6

// Service orchestrates the credential lifecycle over the identity
// repositories.
type Service struct {
	patients identity.PatientRepository
	users    identity.UserRepository
	tokens   *auth.TokenIssuer
	otps     *auth.OTPManager
	mailer   *notification.Manager
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(
	patients identity.PatientRepository,
	users identity.UserRepository,
	tokens *auth.TokenIssuer,
	otps *auth.OTPManager,
	mailer *notification.Manager,
	logger zerolog.Logger,
) *Service {
	return &Service{
		patients: patients,
		users:    users,
		tokens:   tokens,
		otps:     otps,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// SignupPatientInput carries the patient self-registration fields.
type SignupPatientInput struct {
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Age           *int               `json:"age"`
	Gender        string             `json:"gender"`
	DOB           *time.Time         `json:"dob"`
	Address       string             `json:"address"`
	ContactNumber string             `json:"contactNumber"`
	Email         string             `json:"email"`
	Password      string             `json:"password"`
	ClosestPerson identity.NextOfKin `json:"closestPerson"`
}

func (in *SignupPatientInput) validate() error {
	if in.FirstName == "" || in.LastName == "" {
		return fmt.Errorf("firstName and lastName are required")
	}
	if in.Email == "" {
		return fmt.Errorf("email is required")
	}
	if len(in.Password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if in.Gender != "" && !identity.ValidGender(in.Gender) {
		return fmt.Errorf("invalid gender %q", in.Gender)
	}
	if in.ContactNumber != "" && !identity.ValidContactNumber(in.ContactNumber) {
		return fmt.Errorf("contactNumber must be exactly 10 digits")
	}
	return nil
}

// SignupPatient registers a new patient account and issues a token. The
// duplicate-email race is closed by the storage unique index, not by a
// prior existence check.
func (s *Service) SignupPatient(ctx context.Context, in *SignupPatientInput) (string, *identity.Patient, error) {
	if err := in.validate(); err != nil {
		return "", nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	p := &identity.Patient{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Age:           in.Age,
		Gender:        in.Gender,
		DOB:           in.DOB,
		Address:       in.Address,
		ContactNumber: in.ContactNumber,
		Email:         identity.NormalizeEmail(in.Email),
		PasswordHash:  hash,
		ClosestPerson: in.ClosestPerson,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(p.ID.String(), identity.RolePatient)
	if err != nil {
		return "", nil, err
	}

	s.sendAsync("welcome-patient", map[string]string{
		"patient_name": p.FirstName + " " + p.LastName,
	}, p.Email)

	return token, p, nil
}

// LoginPatient verifies patient credentials and issues a token.
func (s *Service) LoginPatient(ctx context.Context, email, password string) (string, *identity.Patient, error) {
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !auth.VerifyPassword(password, p.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(p.ID.String(), identity.RolePatient)
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// LoginUser verifies staff-account credentials and issues a token carrying
// the account's role.
func (s *Service) LoginUser(ctx context.Context, email, password string) (string, *identity.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(u.ID.String(), u.Role)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// CreateUserInput carries the admin-created staff account fields.
type CreateUserInput struct {
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Hospital      string     `json:"hospital"`
	DOB           *time.Time `json:"dob"`
	Address       string     `json:"address"`
	ContactNumber string     `json:"contactNumber"`
	Email         string     `json:"email"`
	Password      string     `json:"password"`
	Role          string     `json:"role"`
}

// CreateUser registers a staff login account. Reserved for admins at the
// transport layer.
func (s *Service) CreateUser(ctx context.Context, in *CreateUserInput) (*identity.User, error) {
	if in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("firstName and lastName are required")
	}
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if !identity.ValidRole(in.Role) {
		return nil, fmt.Errorf("invalid role %q", in.Role)
	}
	if in.ContactNumber != "" && !identity.ValidContactNumber(in.ContactNumber) {
		return nil, fmt.Errorf("contactNumber must be exactly 10 digits")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &identity.User{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Hospital:      in.Hospital,
		DOB:           in.DOB,
		Address:       in.Address,
		ContactNumber: in.ContactNumber,
		Email:         identity.NormalizeEmail(in.Email),
		PasswordHash:  hash,
		Role:          in.Role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ForgotPatientPassword starts an OTP reset for a patient account: a fresh
// 6-digit code is generated, only its keyed hash is persisted along with a
// one-hour expiry, and the plaintext code is emailed. The keyed hash is
// returned so the client can round-trip it to verify-otp.
func (s *Service) ForgotPatientPassword(ctx context.Context, email string) (string, error) {
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.issueChallenge(ctx, p.FirstName, p.Email, func(hash string, expiry time.Time) error {
		return s.patients.SetResetChallenge(ctx, p.ID, hash, expiry)
	})
}

// ForgotUserPassword starts an OTP reset for a staff account.
func (s *Service) ForgotUserPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.issueChallenge(ctx, u.FirstName, u.Email, func(hash string, expiry time.Time) error {
		return s.users.SetResetChallenge(ctx, u.ID, hash, expiry)
	})
}

func (s *Service) issueChallenge(ctx context.Context, name, email string, store func(hash string, expiry time.Time) error) (string, error) {
	otp, err := s.otps.Generate()
	if err != nil {
		return "", err
	}
	hash := s.otps.KeyedHash(otp)
	expiry := s.now().Add(auth.OTPTTL)

	if err := store(hash, expiry); err != nil {
		return "", err
	}

	// The mail send is awaited: a reset the account holder never hears
	// about is useless.
	if _, err := s.mailer.SendFromTemplate(ctx, "otp-reset", map[string]string{
		"name": name,
		"otp":  otp,
	}, email); err != nil {
		return "", fmt.Errorf("send otp mail: %w", err)
	}

	return hash, nil
}

// VerifyPatientOTP checks a submitted code against the client-held hash and
// the server-tracked challenge. The challenge must still be in the issued
// state and unexpired; success moves it to verified.
func (s *Service) VerifyPatientOTP(ctx context.Context, hash, otp string) error {
	if !s.otps.VerifyHash(hash, otp) {
		return auth.ErrInvalidOTP
	}
	p, err := s.patients.GetByResetHash(ctx, hash)
	if err != nil {
		return auth.ErrInvalidOTP
	}
	if !p.Usable(identity.ChallengeIssued, s.now()) {
		return auth.ErrInvalidOTP
	}
	return s.patients.UpdateResetStatus(ctx, p.ID, identity.ChallengeVerified)
}

// VerifyUserOTP is VerifyPatientOTP for staff accounts.
func (s *Service) VerifyUserOTP(ctx context.Context, hash, otp string) error {
	if !s.otps.VerifyHash(hash, otp) {
		return auth.ErrInvalidOTP
	}
	u, err := s.users.GetByResetHash(ctx, hash)
	if err != nil {
		return auth.ErrInvalidOTP
	}
	if !u.Usable(identity.ChallengeIssued, s.now()) {
		return auth.ErrInvalidOTP
	}
	return s.users.UpdateResetStatus(ctx, u.ID, identity.ChallengeVerified)
}

// ResetPatientPassword replaces the password of an account holding a
// verified, unexpired challenge and marks the challenge consumed.
func (s *Service) ResetPatientPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	p, err := s.patients.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !p.Usable(identity.ChallengeVerified, s.now()) {
		return ErrChallengeRequired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.patients.UpdatePassword(ctx, p.ID, hash); err != nil {
		return err
	}
	if err := s.patients.UpdateResetStatus(ctx, p.ID, identity.ChallengeConsumed); err != nil {
		return err
	}

	s.sendAsync("password-changed", map[string]string{
		"name": p.FirstName + " " + p.LastName,
	}, p.Email)
	return nil
}

// ResetUserPassword is ResetPatientPassword for staff accounts.
func (s *Service) ResetUserPassword(ctx context.Context, email, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.Usable(identity.ChallengeVerified, s.now()) {
		return ErrChallengeRequired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return err
	}
	if err := s.users.UpdateResetStatus(ctx, u.ID, identity.ChallengeConsumed); err != nil {
		return err
	}

	s.sendAsync("password-changed", map[string]string{
		"name": u.FirstName + " " + u.LastName,
	}, u.Email)
	return nil
}

// PatientProfile loads the patient record behind a token subject.
func (s *Service) PatientProfile(ctx context.Context, accountID string) (*identity.Patient, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, identity.ErrNotFound
	}
	return s.patients.GetByID(ctx, id)
}

// UserProfile loads the staff account behind a token subject.
func (s *Service) UserProfile(ctx context.Context, accountID string) (*identity.User, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, identity.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}

// UpdatePatientProfileInput carries the self-service profile fields. Email,
// password, and role changes go through their dedicated flows.
type UpdatePatientProfileInput struct {
	FirstName     string             `json:"firstName"`
	LastName      string             `json:"lastName"`
	Age           *int               `json:"age"`
	Gender        string             `json:"gender"`
	DOB           *time.Time         `json:"dob"`
	Address       string             `json:"address"`
	ContactNumber string             `json:"contactNumber"`
	ClosestPerson identity.NextOfKin `json:"closestPerson"`
}

// UpdatePatientProfile updates the caller's own patient record.
func (s *Service) UpdatePatientProfile(ctx context.Context, accountID string, in *UpdatePatientProfileInput) (*identity.Patient, error) {
	p, err := s.PatientProfile(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != "" {
		p.FirstName = in.FirstName
	}
	if in.LastName != "" {
		p.LastName = in.LastName
	}
	if in.Age != nil {
		p.Age = in.Age
	}
	if in.Gender != "" {
		if !identity.ValidGender(in.Gender) {
			return nil, fmt.Errorf("invalid gender %q", in.Gender)
		}
		p.Gender = in.Gender
	}
	if in.DOB != nil {
		p.DOB = in.DOB
	}
	if in.Address != "" {
		p.Address = in.Address
	}
	if in.ContactNumber != "" {
		if !identity.ValidContactNumber(in.ContactNumber) {
			return nil, fmt.Errorf("contactNumber must be exactly 10 digits")
		}
		p.ContactNumber = in.ContactNumber
	}
	if in.ClosestPerson != (identity.NextOfKin{}) {
		p.ClosestPerson = in.ClosestPerson
	}

	if err := s.patients.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// sendAsync delivers a courtesy notification without blocking the request.
func (s *Service) sendAsync(templateID string, data map[string]string, recipient string) {
	go func() {
		if _, err := s.mailer.SendFromTemplate(context.Background(), templateID, data, recipient); err != nil {
			s.logger.Warn().Err(err).Str("template", templateID).Msg("notification send failed")
		}
	}()
}
