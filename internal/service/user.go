package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"deadpoets/internal/model"
	"deadpoets/internal/repository"
)

// UserService handles business logic for account operations
type UserService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new account.
func (s *UserService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	email := model.NormalizeEmail(req.Email)

	if err := model.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := model.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(req.Password) < model.MinPasswordLength {
		return nil, model.ErrPasswordTooShort
	}

	// Reject duplicates with a field-specific message
	if err := s.checkConflict(ctx, username, email, ""); err != nil {
		return nil, err
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             model.NewID(),
		Username:       username,
		Email:          email,
		PasswordHashed: string(hashedPassword),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user with email and password.
func (s *UserService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.repo.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		// Don't reveal whether the email exists or not
		return nil, model.ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password))
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile applies username/email changes, re-checking uniqueness.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req *model.UpdateProfileRequest) (*model.User, error) {
	if req.Username == nil && req.Email == nil {
		return nil, model.ErrNoFieldsToUpdate
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only changed fields participate in the uniqueness check
	var checkUsername, checkEmail string

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if err := model.ValidateUsername(username); err != nil {
			return nil, err
		}
		if username != user.Username {
			checkUsername = username
		}
		user.Username = username
	}

	if req.Email != nil {
		email := model.NormalizeEmail(*req.Email)
		if err := model.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			checkEmail = email
		}
		user.Email = email
	}

	if checkUsername != "" || checkEmail != "" {
		if err := s.checkConflict(ctx, checkUsername, checkEmail, id); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangePassword verifies the current password and stores a new hash.
// The stored hash is untouched when verification fails.
func (s *UserService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if len(newPassword) < model.MinPasswordLength {
		return model.ErrPasswordTooShort
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(currentPassword))
	if err != nil {
		return model.ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.UpdatePassword(ctx, id, string(hashedPassword))
}

// DeleteAccount removes the account.
func (s *UserService) DeleteAccount(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *UserService) checkConflict(ctx context.Context, username, email, excludeID string) error {
	field, err := s.repo.FindConflict(ctx, username, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check uniqueness: %w", err)
	}

	switch field {
	case "email":
		return model.ErrEmailTaken
	case "username":
		return model.ErrUsernameTaken
	}
	return nil
}
