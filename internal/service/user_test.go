package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"deadpoets/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UserService depends on the UserRepository interface, so tests swap in a
// mock with per-test behavior instead of hitting a real database.

type mockUserRepository struct {
	createFn         func(ctx context.Context, user *model.User) error
	getByIDFn        func(ctx context.Context, id string) (*model.User, error)
	getByEmailFn     func(ctx context.Context, email string) (*model.User, error)
	findConflictFn   func(ctx context.Context, username, email, excludeID string) (string, error)
	updateFn         func(ctx context.Context, user *model.User) error
	updatePasswordFn func(ctx context.Context, id, passwordHashed string) error
	deleteFn         func(ctx context.Context, id string) error

	// Track calls for assertions
	createCalls         []*model.User
	updatePasswordCalls []string
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindConflict(ctx context.Context, username, email, excludeID string) (string, error) {
	if m.findConflictFn != nil {
		return m.findConflictFn(ctx, username, email, excludeID)
	}
	return "", nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHashed string) error {
	m.updatePasswordCalls = append(m.updatePasswordCalls, passwordHashed)
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHashed)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			return nil
		},
	}
	svc := NewUserService(mockRepo)

	req := &model.RegisterRequest{
		Username: "whitman",
		Email:    "walt@deadpoets.io",
		Password: "ocaptain",
	}

	user, err := svc.Register(context.Background(), req)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != req.Username {
		t.Errorf("username = %q, want %q", user.Username, req.Username)
	}
	if !model.IsValidID(user.ID) {
		t.Errorf("ID %q is not a valid post/user ID", user.ID)
	}

	// Password must be hashed, never stored in plain text
	if user.PasswordHashed == req.Password {
		t.Error("password should be hashed, not stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHashed), []byte(req.Password)); err != nil {
		t.Error("password hash should be valid bcrypt hash")
	}

	if len(mockRepo.createCalls) != 1 {
		t.Errorf("Create called %d times, want 1", len(mockRepo.createCalls))
	}
}

func TestUserService_Register_NormalizesEmail(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "whitman",
		Email:    "  Walt@DeadPoets.IO ",
		Password: "ocaptain",
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "walt@deadpoets.io" {
		t.Errorf("email = %q, want lowercased trimmed form", user.Email)
	}
}

func TestUserService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"username too short", "ab", "a@b.io", "password", model.ErrInvalidUsername},
		{"username too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "a@b.io", "password", model.ErrInvalidUsername},
		{"invalid email", "whitman", "not-an-email", "password", model.ErrInvalidEmail},
		{"password too short", "whitman", "a@b.io", "short", model.ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo)

			_, err := svc.Register(context.Background(), &model.RegisterRequest{
				Username: tt.username,
				Email:    tt.email,
				Password: tt.password,
			})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("Create should not be called on validation failure")
			}
		})
	}
}

func TestUserService_Register_Conflicts(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		wantErr error
	}{
		{"email taken", "email", model.ErrEmailTaken},
		{"username taken", "username", model.ErrUsernameTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{
				findConflictFn: func(ctx context.Context, username, email, excludeID string) (string, error) {
					return tt.field, nil
				},
			}
			svc := NewUserService(mockRepo)

			_, err := svc.Register(context.Background(), &model.RegisterRequest{
				Username: "whitman",
				Email:    "walt@deadpoets.io",
				Password: "ocaptain",
			})

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(mockRepo.createCalls) != 0 {
				t.Error("Create should not be called when a field is taken")
			}
		})
	}
}

func TestUserService_Register_CreateError(t *testing.T) {
	dbError := errors.New("insert failed")
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error {
			return dbError
		},
	}
	svc := NewUserService(mockRepo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "whitman",
		Email:    "walt@deadpoets.io",
		Password: "ocaptain",
	})

	if !errors.Is(err, dbError) {
		t.Errorf("error should wrap create error, got %v", err)
	}
}

// =============================================================================
// LOGIN TESTS - Table-Driven
// =============================================================================

func TestUserService_Login(t *testing.T) {
	validPassword := "ocaptain"
	validHash, _ := bcrypt.GenerateFromPassword([]byte(validPassword), bcrypt.MinCost)

	testUser := &model.User{
		ID:             "64f1b2c3d4e5f60718293a4b",
		Username:       "whitman",
		Email:          "walt@deadpoets.io",
		PasswordHashed: string(validHash),
	}

	tests := []struct {
		name        string
		email       string
		password    string
		mockGetFn   func(ctx context.Context, email string) (*model.User, error)
		wantErr     error
		wantUser    bool
		wantQueried string
	}{
		{
			name:     "successful login",
			email:    "walt@deadpoets.io",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:     nil,
			wantUser:    true,
			wantQueried: "walt@deadpoets.io",
		},
		{
			name:     "email lookup is case-insensitive",
			email:    "Walt@DeadPoets.IO",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:     nil,
			wantUser:    true,
			wantQueried: "walt@deadpoets.io",
		},
		{
			name:     "user not found",
			email:    "nobody@deadpoets.io",
			password: "anypassword",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, model.ErrUserNotFound
			},
			// Don't reveal whether the email exists
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
		{
			name:     "wrong password",
			email:    "walt@deadpoets.io",
			password: "wrongpassword",
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return testUser, nil
			},
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
		{
			name:     "database error",
			email:    "walt@deadpoets.io",
			password: validPassword,
			mockGetFn: func(ctx context.Context, email string) (*model.User, error) {
				return nil, errors.New("database error")
			},
			// Don't reveal internal errors either
			wantErr:  model.ErrInvalidCredentials,
			wantUser: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var queriedEmail string
			mockRepo := &mockUserRepository{
				getByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					queriedEmail = email
					return tt.mockGetFn(ctx, email)
				},
			}
			svc := NewUserService(mockRepo)

			user, err := svc.Login(context.Background(), &model.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if tt.wantUser && user == nil {
				t.Error("expected user, got nil")
			}
			if !tt.wantUser && user != nil {
				t.Error("expected nil user")
			}
			if tt.wantQueried != "" && queriedEmail != tt.wantQueried {
				t.Errorf("queried email = %q, want %q", queriedEmail, tt.wantQueried)
			}
		})
	}
}

// =============================================================================
// UPDATE PROFILE TESTS
// =============================================================================

func TestUserService_UpdateProfile(t *testing.T) {
	existing := func() *model.User {
		return &model.User{
			ID:       "64f1b2c3d4e5f60718293a4b",
			Username: "whitman",
			Email:    "walt@deadpoets.io",
		}
	}

	strPtr := func(s string) *string { return &s }

	t.Run("no fields", func(t *testing.T) {
		svc := NewUserService(&mockUserRepository{})

		_, err := svc.UpdateProfile(context.Background(), "64f1b2c3d4e5f60718293a4b", &model.UpdateProfileRequest{})

		if !errors.Is(err, model.ErrNoFieldsToUpdate) {
			t.Errorf("error = %v, want %v", err, model.ErrNoFieldsToUpdate)
		}
	})

	t.Run("updates username", func(t *testing.T) {
		var updated *model.User
		mockRepo := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return existing(), nil
			},
			updateFn: func(ctx context.Context, user *model.User) error {
				updated = user
				return nil
			},
		}
		svc := NewUserService(mockRepo)

		user, err := svc.UpdateProfile(context.Background(), "64f1b2c3d4e5f60718293a4b", &model.UpdateProfileRequest{
			Username: strPtr("keats"),
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if user.Username != "keats" {
			t.Errorf("username = %q, want %q", user.Username, "keats")
		}
		if user.Email != "walt@deadpoets.io" {
			t.Errorf("email changed unexpectedly to %q", user.Email)
		}
		if updated == nil {
			t.Fatal("Update was not called")
		}
	})

	t.Run("unchanged fields skip the conflict check", func(t *testing.T) {
		conflictCalled := false
		mockRepo := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return existing(), nil
			},
			findConflictFn: func(ctx context.Context, username, email, excludeID string) (string, error) {
				conflictCalled = true
				return "", nil
			},
		}
		svc := NewUserService(mockRepo)

		_, err := svc.UpdateProfile(context.Background(), "64f1b2c3d4e5f60718293a4b", &model.UpdateProfileRequest{
			Username: strPtr("whitman"), // same value
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conflictCalled {
			t.Error("conflict check should be skipped when nothing changed")
		}
	})

	t.Run("conflicting email", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return existing(), nil
			},
			findConflictFn: func(ctx context.Context, username, email, excludeID string) (string, error) {
				if excludeID != "64f1b2c3d4e5f60718293a4b" {
					t.Errorf("excludeID = %q, want the caller's own ID", excludeID)
				}
				return "email", nil
			},
		}
		svc := NewUserService(mockRepo)

		_, err := svc.UpdateProfile(context.Background(), "64f1b2c3d4e5f60718293a4b", &model.UpdateProfileRequest{
			Email: strPtr("taken@deadpoets.io"),
		})

		if !errors.Is(err, model.ErrEmailTaken) {
			t.Errorf("error = %v, want %v", err, model.ErrEmailTaken)
		}
	})
}

// =============================================================================
// CHANGE PASSWORD TESTS
// =============================================================================

func TestUserService_ChangePassword(t *testing.T) {
	currentPassword := "ocaptain"
	currentHash, _ := bcrypt.GenerateFromPassword([]byte(currentPassword), bcrypt.MinCost)

	newRepo := func() *mockUserRepository {
		return &mockUserRepository{
			getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
				return &model.User{
					ID:             id,
					Username:       "whitman",
					PasswordHashed: string(currentHash),
				}, nil
			},
		}
	}

	t.Run("success", func(t *testing.T) {
		mockRepo := newRepo()
		svc := NewUserService(mockRepo)

		err := svc.ChangePassword(context.Background(), "64f1b2c3d4e5f60718293a4b", currentPassword, "mycaptain")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(mockRepo.updatePasswordCalls) != 1 {
			t.Fatalf("UpdatePassword called %d times, want 1", len(mockRepo.updatePasswordCalls))
		}

		// The stored value must be a hash of the new password
		stored := mockRepo.updatePasswordCalls[0]
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte("mycaptain")); err != nil {
			t.Error("stored hash should match the new password")
		}
	})

	t.Run("wrong current password leaves hash unchanged", func(t *testing.T) {
		mockRepo := newRepo()
		svc := NewUserService(mockRepo)

		err := svc.ChangePassword(context.Background(), "64f1b2c3d4e5f60718293a4b", "wrong", "mycaptain")

		if !errors.Is(err, model.ErrInvalidCredentials) {
			t.Errorf("error = %v, want %v", err, model.ErrInvalidCredentials)
		}
		if len(mockRepo.updatePasswordCalls) != 0 {
			t.Error("UpdatePassword should not be called on verification failure")
		}
	})

	t.Run("new password too short", func(t *testing.T) {
		mockRepo := newRepo()
		svc := NewUserService(mockRepo)

		err := svc.ChangePassword(context.Background(), "64f1b2c3d4e5f60718293a4b", currentPassword, "short")

		if !errors.Is(err, model.ErrPasswordTooShort) {
			t.Errorf("error = %v, want %v", err, model.ErrPasswordTooShort)
		}
		if len(mockRepo.updatePasswordCalls) != 0 {
			t.Error("UpdatePassword should not be called for a short password")
		}
	})
}
