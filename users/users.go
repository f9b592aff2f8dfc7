package users

import (
	"fmt"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// RoleType represents a user's role within the team. It is used both as
// an authorization key and as a display label, so the set is closed.
type RoleType string

const (
	RoleUser      RoleType = "user"
	RoleDeveloper RoleType = "developer"
	RoleTeamLead  RoleType = "teamLead"
	RoleAdmin     RoleType = "admin"
)

// Valid reports whether the role is one of the recognised values.
func (r RoleType) Valid() bool {
	switch r {
	case RoleUser, RoleDeveloper, RoleTeamLead, RoleAdmin:
		return true
	}
	return false
}

// IsAdminRole reports whether the role itself carries administrative
// capability. Account-level admin status (User.IsAdmin) is checked
// separately by the authorization gate; this predicate exists so role
// comparisons are not string-matched at call sites.
func (r RoleType) IsAdminRole() bool {
	return r == RoleAdmin
}

type User struct {
	ID           string    `json:"_id,omitempty"`       // Unique identifier for the user
	Name         string    `json:"name,omitempty"`      // Display name
	Email        string    `json:"email,omitempty"`     // User's email address
	Title        string    `json:"title,omitempty"`     // Job title shown on the roster
	Role         RoleType  `json:"role,omitempty"`      // Team role
	IsAdmin      bool      `json:"isAdmin"`             // Account-level administrative capability
	IsActive     bool      `json:"isActive"`            // Inactive accounts cannot log in
	PasswordHash string    `json:"-"`                   // Hashed password - never serialize
	CreatedAt    time.Time `json:"createdAt,omitempty"` // When the account was registered
	UpdatedAt    time.Time `json:"updatedAt,omitempty"` // Last profile change
}

// Sanitized returns a copy safe to put on the wire. The hash already has
// a "-" json tag; this additionally guards against accidental reuse of
// the struct after mutation.
func (u User) Sanitized() *User {
	u.PasswordHash = ""
	return &u
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
