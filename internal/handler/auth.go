package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"deadpoets/internal/httputil"
	"deadpoets/internal/model"
	"deadpoets/internal/service"
	"deadpoets/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints and their dependencies.
type AuthHandler struct {
	userService  *service.UserService
	tokenService *service.TokenService
}

// NewAuthHandler wires dependencies for authentication endpoints.
func NewAuthHandler(userService *service.UserService, tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
	}
}

// Register handles new account sign-up
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Missing required fields: username, email, password")
		return
	}

	user, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		if isValidationError(err) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		log.Printf("[ERROR] Register handler: %v", err)
		httputil.WriteInternalError(w, "Failed to register user")
		return
	}

	// Auto-login: a fresh session token ships with the 201 response
	token, err := h.tokenService.Issue(user)
	if err != nil {
		log.Printf("[ERROR] Register token issue: %v", err)
		httputil.WriteInternalError(w, "Failed to register user")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, model.AuthResponse{
		Message: "User registered successfully",
		User:    user,
		Token:   token,
	})
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.WriteBadRequest(w, "Missing required fields: email, password")
		return
	}

	user, err := h.userService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid credentials")
			return
		}
		log.Printf("[ERROR] Login handler: %v", err)
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	token, err := h.tokenService.Issue(user)
	if err != nil {
		log.Printf("[ERROR] Login token issue: %v", err)
		httputil.WriteInternalError(w, "Failed to login")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, model.AuthResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// Profile returns the authenticated user's profile
// GET /api/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	user, err := h.userService.GetByID(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Profile handler: user=%s err=%v", claims.ID, err)
		httputil.WriteInternalError(w, "Failed to retrieve profile")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile retrieved successfully",
		"user":    user,
	})
}

// UpdateProfile applies username/email changes
// PATCH /api/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), claims.ID, &req)
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, model.ErrNoFieldsToUpdate):
			httputil.WriteBadRequest(w, err.Error())
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] UpdateProfile handler: user=%s err=%v", claims.ID, err)
			httputil.WriteInternalError(w, "Failed to update profile")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePassword verifies the current password and stores a new one
// PATCH /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	var req model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		httputil.WriteBadRequest(w, "Missing required fields: currentPassword, newPassword")
		return
	}

	err := h.userService.ChangePassword(r.Context(), claims.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPasswordTooShort):
			httputil.WriteBadRequest(w, "New password must be at least 6 characters long")
		case errors.Is(err, model.ErrInvalidCredentials):
			httputil.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			log.Printf("[ERROR] ChangePassword handler: user=%s err=%v", claims.ID, err)
			httputil.WriteInternalError(w, "Failed to change password")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed successfully",
	})
}

// DeleteAccount removes the authenticated user's account
// DELETE /api/auth/profile
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	err := h.userService.DeleteAccount(r.Context(), claims.ID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] DeleteAccount handler: user=%s err=%v", claims.ID, err)
		httputil.WriteInternalError(w, "Failed to delete account")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User account deleted successfully",
	})
}

// Verify confirms the presented token is valid
// GET /api/auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Not authenticated")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Token is valid",
		"valid":   true,
		"user":    claims,
	})
}

// isValidationError reports whether err maps to a 400 response.
func isValidationError(err error) bool {
	return errors.Is(err, model.ErrInvalidUsername) ||
		errors.Is(err, model.ErrInvalidEmail) ||
		errors.Is(err, model.ErrPasswordTooShort) ||
		errors.Is(err, model.ErrUsernameTaken) ||
		errors.Is(err, model.ErrEmailTaken)
}
