package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account roles for login users.
const (
	RoleAdmin   = "Admin"
	RoleDoctor  = "Doctor"
	RoleNurse   = "Nurse"
	RolePatient = "Patient"
)

// Staff directory roles.
const (
	StaffRoleDoctor         = "Doctor"
	StaffRoleNurse          = "Nurse"
	StaffRoleTechnician     = "Technician"
	StaffRoleAdministrative = "Administrative staff"
)

// Gender values accepted across records.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Reset challenge states. A challenge moves issued -> verified -> consumed
// and is only usable for a password reset while verified and unexpired.
const (
	ChallengeIssued   = "issued"
	ChallengeVerified = "verified"
	ChallengeConsumed = "consumed"
)

// ResetChallenge tracks an in-flight OTP password reset on an account. Only
// the keyed hash of the code is stored, never the code itself.
type ResetChallenge struct {
	OTPHash   *string    `db:"otp_hash" json:"-"`
	OTPExpiry *time.Time `db:"otp_expiry" json:"-"`
	OTPStatus *string    `db:"otp_status" json:"-"`
}

// Usable reports whether the challenge can still move forward: it exists,
// has not expired, and is in the given state.
func (rc ResetChallenge) Usable(state string, now time.Time) bool {
	if rc.OTPHash == nil || rc.OTPExpiry == nil || rc.OTPStatus == nil {
		return false
	}
	return *rc.OTPStatus == state && now.Before(*rc.OTPExpiry)
}

// NextOfKin is the emergency contact embedded in a patient record.
type NextOfKin struct {
	FirstName     string `db:"kin_first_name" json:"firstName"`
	LastName      string `db:"kin_last_name" json:"lastName"`
	Relationship  string `db:"kin_relationship" json:"relationship"`
	ContactNumber string `db:"kin_contact_number" json:"contactNumber"`
}

// Patient maps to the patient table. A patient is both a directory record
// and a login account.
type Patient struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FirstName     string     `db:"first_name" json:"firstName"`
	LastName      string     `db:"last_name" json:"lastName"`
	Age           *int       `db:"age" json:"age,omitempty"`
	Gender        string     `db:"gender" json:"gender"`
	DOB           *time.Time `db:"dob" json:"dob,omitempty"`
	Address       string     `db:"address" json:"address"`
	ContactNumber string     `db:"contact_number" json:"contactNumber"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	ClosestPerson NextOfKin  `db:"-" json:"closestPerson"`
	ResetChallenge
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// User maps to the app_user table: a hospital staff login account.
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	FirstName     string     `db:"first_name" json:"firstName"`
	LastName      string     `db:"last_name" json:"lastName"`
	Hospital      string     `db:"hospital" json:"hospital"`
	DOB           *time.Time `db:"dob" json:"dob,omitempty"`
	Address       string     `db:"address" json:"address"`
	ContactNumber string     `db:"contact_number" json:"contactNumber"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Role          string     `db:"role" json:"role"`
	ResetChallenge
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Staff maps to the staff table: the employee directory.
type Staff struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EmployeeID  string     `db:"employee_id" json:"employeeId"`
	FirstName   string     `db:"first_name" json:"firstName"`
	LastName    string     `db:"last_name" json:"lastName"`
	Gender      string     `db:"gender" json:"gender"`
	Role        string     `db:"role" json:"role"`
	PhoneNumber string     `db:"phone_number" json:"phoneNumber"`
	Address     string     `db:"address" json:"address"`
	DOB         *time.Time `db:"dob" json:"dob,omitempty"`
	NIC         string     `db:"nic" json:"nic"`
	Email       string     `db:"email" json:"email"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidRole reports whether role is a recognized login-account role.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

// ValidStaffRole reports whether role is a recognized staff directory role.
func ValidStaffRole(role string) bool {
	switch role {
	case StaffRoleDoctor, StaffRoleNurse, StaffRoleTechnician, StaffRoleAdministrative:
		return true
	}
	return false
}

// ValidGender reports whether g is a recognized gender value.
func ValidGender(g string) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// ValidContactNumber reports whether n is exactly ten digits.
func ValidContactNumber(n string) bool {
	if len(n) != 10 {
		return false
	}
	for _, r := range n {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
