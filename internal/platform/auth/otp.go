package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrInvalidOTP is returned when a submitted code does not match the
// client-held keyed hash, or when the server-tracked challenge is missing,
// already used, or expired.
var ErrInvalidOTP = errors.New("invalid otp")

// OTPTTL is how long a reset challenge stays valid after issuance.
const OTPTTL = time.Hour

// otpDigits is the length of the numeric code. Leading zeros are allowed,
// so the code space is exactly 10^6.
const otpDigits = 6

// ChallengeStatus tracks the server-side lifecycle of a reset challenge.
type ChallengeStatus string

const (
	ChallengeIssued   ChallengeStatus = "issued"
	ChallengeVerified ChallengeStatus = "verified"
	ChallengeConsumed ChallengeStatus = "consumed"
)

// OTPManager generates one-time codes and verifies them against a keyed
// hash. The hash round-trips through the client between the forgot-password
// and verify-otp calls, so verification needs no per-request session state;
// the persisted challenge record additionally enforces expiry and single
// use.
type OTPManager struct {
	secret []byte
}

func NewOTPManager(secret string) *OTPManager {
	return &OTPManager{secret: []byte(secret)}
}

// Generate returns a uniform-random 6-digit numeric code. The code is drawn
// from crypto/rand; values below 100000 keep their leading zeros.
func (m *OTPManager) Generate() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n), nil
}

// KeyedHash computes the hex-encoded HMAC-SHA256 of the code under the
// server secret. The same function covers both issuance (hash handed to the
// client) and verification (recompute and compare).
func (m *OTPManager) KeyedHash(otp string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(otp))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHash reports whether the submitted code hashes to the supplied
// value. Comparison is constant time.
func (m *OTPManager) VerifyHash(hash, otp string) bool {
	expected := m.KeyedHash(otp)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hash)) == 1
}
