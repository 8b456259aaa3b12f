package account

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicare/hms/internal/domain/identity"
	"github.com/medicare/hms/internal/platform/auth"
	"github.com/medicare/hms/internal/platform/notification"
)

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

type testEnv struct {
	svc      *Service
	patients *mockPatientRepo
	users    *mockUserRepo
	sender   *notification.MockEmailSender
	tokens   *auth.TokenIssuer
	otps     *auth.OTPManager
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	patients := newMockPatientRepo()
	users := newMockUserRepo()
	sender := &notification.MockEmailSender{}
	mailer := notification.NewManager(sender, notification.NewTemplateEngine())
	tokens := auth.NewTokenIssuer("token-secret")
	otps := auth.NewOTPManager("otp-secret")

	env := &testEnv{
		svc:      NewService(patients, users, tokens, otps, mailer, zerolog.Nop()),
		patients: patients,
		users:    users,
		sender:   sender,
		tokens:   tokens,
		otps:     otps,
		now:      time.Now(),
	}
	env.svc.now = func() time.Time { return env.now }
	return env
}

func signupInput() *SignupPatientInput {
	return &SignupPatientInput{
		FirstName:     "John",
		LastName:      "Doe",
		Gender:        identity.GenderMale,
		Address:       "1 Main St",
		ContactNumber: "0771234567",
		Email:         "a@x.com",
		Password:      "secret123",
	}
}

// sentOTP digs the plaintext code out of the most recent reset email.
func (env *testEnv) sentOTP(t *testing.T) string {
	t.Helper()
	calls := env.sender.Calls()
	for i := len(calls) - 1; i >= 0; i-- {
		if otp := otpPattern.FindString(calls[i].Body); otp != "" {
			return otp
		}
	}
	t.Fatal("no OTP email was sent")
	return ""
}

func TestSignupPatient(t *testing.T) {
	env := newTestEnv(t)

	token, p, err := env.svc.SignupPatient(context.Background(), signupInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if p.PasswordHash == "secret123" {
		t.Error("stored password must not equal the plaintext")
	}
	if !auth.VerifyPassword("secret123", p.PasswordHash) {
		t.Error("stored hash must verify against the plaintext")
	}

	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token must verify: %v", err)
	}
	if claims.Subject != p.ID.String() {
		t.Errorf("token subject = %s, want %s", claims.Subject, p.ID)
	}
	if claims.Role != identity.RolePatient {
		t.Errorf("token role = %s, want %s", claims.Role, identity.RolePatient)
	}
}

func TestSignupPatient_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	if _, _, err := env.svc.SignupPatient(context.Background(), signupInput()); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	in := signupInput()
	in.Email = "A@X.com" // same address after normalization
	_, _, err := env.svc.SignupPatient(context.Background(), in)
	if !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSignupPatient_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		mutate func(*SignupPatientInput)
	}{
		{"missing name", func(in *SignupPatientInput) { in.FirstName = "" }},
		{"missing email", func(in *SignupPatientInput) { in.Email = "" }},
		{"short password", func(in *SignupPatientInput) { in.Password = "abc" }},
		{"bad gender", func(in *SignupPatientInput) { in.Gender = "X" }},
		{"bad contact", func(in *SignupPatientInput) { in.ContactNumber = "123" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := signupInput()
			tt.mutate(in)
			if _, _, err := env.svc.SignupPatient(context.Background(), in); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoginPatient(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())

	token, got, err := env.svc.LoginPatient(context.Background(), "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("logged-in id = %s, want %s", got.ID, p.ID)
	}

	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token must verify: %v", err)
	}
	if claims.Subject != p.ID.String() {
		t.Errorf("token subject = %s, want %s", claims.Subject, p.ID)
	}
}

func TestLoginPatient_UniformFailure(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())

	// Wrong password and unknown email fail identically.
	if _, _, err := env.svc.LoginPatient(context.Background(), "a@x.com", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := env.svc.LoginPatient(context.Background(), "nobody@x.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUser_RoleClaim(t *testing.T) {
	env := newTestEnv(t)
	u, err := env.svc.CreateUser(context.Background(), &CreateUserInput{
		FirstName: "Dana",
		LastName:  "Jay",
		Email:     "dana@hospital.org",
		Password:  "secret123",
		Role:      identity.RoleDoctor,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	token, _, err := env.svc.LoginUser(context.Background(), "dana@hospital.org", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("token must verify: %v", err)
	}
	if claims.Role != identity.RoleDoctor {
		t.Errorf("token role = %s, want %s", claims.Role, identity.RoleDoctor)
	}
	if claims.Subject != u.ID.String() {
		t.Errorf("token subject = %s, want %s", claims.Subject, u.ID)
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ForgotPatientPassword(context.Background(), "nobody@x.com")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(env.sender.Calls()) != 0 {
		t.Error("no email should be sent for an unknown address")
	}
}

func TestForgotPassword_IssuesChallenge(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())

	hash, err := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otp := env.sentOTP(t)
	if env.otps.KeyedHash(otp) != hash {
		t.Error("returned hash must be the keyed hash of the mailed code")
	}

	stored := env.patients.patients[p.ID]
	if stored.OTPHash == nil || *stored.OTPHash != hash {
		t.Error("only the keyed hash must be persisted")
	}
	if stored.OTPHash != nil && *stored.OTPHash == otp {
		t.Error("plaintext OTP must never be persisted")
	}
	if stored.OTPStatus == nil || *stored.OTPStatus != identity.ChallengeIssued {
		t.Error("challenge must start in the issued state")
	}
	if stored.OTPExpiry == nil || !stored.OTPExpiry.After(env.now) {
		t.Error("challenge must carry a future expiry")
	}
}

func TestVerifyOTP(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())
	hash, _ := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)

	if err := env.svc.VerifyPatientOTP(context.Background(), hash, otp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status := env.patients.patients[p.ID].OTPStatus; status == nil || *status != identity.ChallengeVerified {
		t.Error("challenge must move to verified")
	}
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())
	hash, _ := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)

	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}
	if err := env.svc.VerifyPatientOTP(context.Background(), hash, wrong); !errors.Is(err, auth.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestVerifyOTP_Expired(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())
	hash, _ := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)

	// A correct code submitted after the window has closed is rejected
	// even though the keyed hash still matches.
	env.now = env.now.Add(auth.OTPTTL + time.Minute)
	if err := env.svc.VerifyPatientOTP(context.Background(), hash, otp); !errors.Is(err, auth.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP for expired challenge, got %v", err)
	}
}

func TestVerifyOTP_ForgedHash(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())
	_, _ = env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)

	// A hash the server never issued fails even with the right code.
	forged := auth.NewOTPManager("attacker-secret").KeyedHash(otp)
	if err := env.svc.VerifyPatientOTP(context.Background(), forged, otp); !errors.Is(err, auth.ErrInvalidOTP) {
		t.Errorf("expected ErrInvalidOTP for forged hash, got %v", err)
	}
}

func TestResetPassword_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())
	hash, _ := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)

	if err := env.svc.VerifyPatientOTP(context.Background(), hash, otp); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := env.svc.ResetPatientPassword(context.Background(), "a@x.com", "brand-new-pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	stored := env.patients.patients[p.ID]
	if !auth.VerifyPassword("brand-new-pass", stored.PasswordHash) {
		t.Error("new password must verify")
	}
	if auth.VerifyPassword("secret123", stored.PasswordHash) {
		t.Error("old password must no longer verify")
	}
	if status := stored.OTPStatus; status == nil || *status != identity.ChallengeConsumed {
		t.Error("challenge must be consumed after reset")
	}

	// The consumed challenge cannot authorize a second reset.
	if err := env.svc.ResetPatientPassword(context.Background(), "a@x.com", "another-pass"); !errors.Is(err, ErrChallengeRequired) {
		t.Errorf("expected ErrChallengeRequired on reuse, got %v", err)
	}
}

func TestResetPassword_WithoutVerification(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())

	// No challenge at all.
	if err := env.svc.ResetPatientPassword(context.Background(), "a@x.com", "brand-new-pass"); !errors.Is(err, ErrChallengeRequired) {
		t.Errorf("expected ErrChallengeRequired, got %v", err)
	}

	// Issued but never verified.
	_, _ = env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	if err := env.svc.ResetPatientPassword(context.Background(), "a@x.com", "brand-new-pass"); !errors.Is(err, ErrChallengeRequired) {
		t.Errorf("expected ErrChallengeRequired without verify step, got %v", err)
	}
}

func TestResetPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.ResetPatientPassword(context.Background(), "nobody@x.com", "brand-new-pass")
	if !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResetPassword_ExpiredChallenge(t *testing.T) {
	env := newTestEnv(t)
	_, _, _ = env.svc.SignupPatient(context.Background(), signupInput())
	hash, _ := env.svc.ForgotPatientPassword(context.Background(), "a@x.com")
	otp := env.sentOTP(t)
	_ = env.svc.VerifyPatientOTP(context.Background(), hash, otp)

	env.now = env.now.Add(auth.OTPTTL + time.Minute)
	if err := env.svc.ResetPatientPassword(context.Background(), "a@x.com", "brand-new-pass"); !errors.Is(err, ErrChallengeRequired) {
		t.Errorf("expected ErrChallengeRequired for expired challenge, got %v", err)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())

	got, err := env.svc.PatientProfile(context.Background(), p.ID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("unexpected email %s", got.Email)
	}

	if _, err := env.svc.PatientProfile(context.Background(), "not-a-uuid"); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestUpdatePatientProfile(t *testing.T) {
	env := newTestEnv(t)
	_, p, _ := env.svc.SignupPatient(context.Background(), signupInput())

	got, err := env.svc.UpdatePatientProfile(context.Background(), p.ID.String(), &UpdatePatientProfileInput{
		Address:       "99 New Rd",
		ContactNumber: "0719999999",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Address != "99 New Rd" || got.ContactNumber != "0719999999" {
		t.Errorf("profile fields not updated: %+v", got)
	}
	if got.FirstName != "John" {
		t.Error("unset fields must be preserved")
	}

	if _, err := env.svc.UpdatePatientProfile(context.Background(), p.ID.String(), &UpdatePatientProfileInput{
		ContactNumber: "123",
	}); err == nil {
		t.Error("expected contact number validation error")
	}
}
