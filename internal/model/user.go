package model

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// User represents a registered account.
type User struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// Username and password constraints, mirrored by the users table.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// ValidateUsername checks length and allowed characters.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return ErrInvalidUsername
	}
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. Emails are stored
// and compared in normalized form, so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the basic x@y.z shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// RegisterRequest represents the data needed to register a new account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the data needed to log in.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries optional profile changes. Nil means "leave as is".
type UpdateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// ChangePasswordRequest carries a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
	Token   string `json:"token"`
}

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned when the username is already in use
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrEmailTaken is returned when the email is already in use
	ErrEmailTaken = errors.New("email is already in use")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidUsername is returned when a username fails validation
	ErrInvalidUsername = errors.New("username must be 3-30 characters of letters, numbers, underscores, and hyphens")

	// ErrInvalidEmail is returned when an email fails validation
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrPasswordTooShort is returned when a password is shorter than 6 characters
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")

	// ErrNoFieldsToUpdate is returned when an update request carries no fields
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
