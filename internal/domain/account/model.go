package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength = 254
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Lockout policy: after MaxFailedLogins consecutive failures the account is
// locked for LockoutDuration.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrInvalidRole      = errors.New("role must be 'admin' or 'member'")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrWrongPassword    = errors.New("incorrect password")
)

// Account links a login identity to a member record.
// MemberID is empty for admin accounts that own no profile.
type Account struct {
	ID           string
	MemberID     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	FailedLogins int
	LockedUntil  time.Time
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, error otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrEmptyEmail
	}
	if len(a.Email) > MaxEmailLength {
		return errors.New("email cannot exceed 254 characters")
	}
	if !strings.Contains(a.Email, "@") {
		return ErrInvalidEmail
	}
	if a.Role != RoleAdmin && a.Role != RoleMember {
		return ErrInvalidRole
	}
	return nil
}

// SetPassword hashes and stores a new password.
// PRE: password meets the length policy
// POST: PasswordHash is replaced with a bcrypt hash
func (a *Account) SetPassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if len(password) < 12 {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares a candidate password with the stored hash.
// POST: Returns nil on match, ErrWrongPassword otherwise
func (a *Account) CheckPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true while the lockout window is open.
// INVARIANT: Account fields are not mutated
func (a *Account) IsLocked() bool {
	return time.Now().Before(a.LockedUntil)
}

// RecordFailedLogin increments the failure counter and locks the account
// once the policy threshold is reached.
// POST: FailedLogins incremented; LockedUntil set when threshold reached
func (a *Account) RecordFailedLogin() {
	a.FailedLogins++
	if a.FailedLogins >= MaxFailedLogins {
		a.LockedUntil = time.Now().Add(LockoutDuration)
		a.FailedLogins = 0
	}
}

// RecordSuccessfulLogin clears failure tracking.
// POST: FailedLogins is zero, LockedUntil cleared
func (a *Account) RecordSuccessfulLogin() {
	a.FailedLogins = 0
	a.LockedUntil = time.Time{}
}
