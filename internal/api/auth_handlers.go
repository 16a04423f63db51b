package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/role"
)

// AuthHandlers handles registration, login and token refresh.
type AuthHandlers struct {
	users      *repository.Users
	jwtService *auth.JWTService
}

func NewAuthHandlers(users *repository.Users, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{users: users, jwtService: jwtService}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User   domain.User     `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

// Register creates a new Customer account. Roles are never taken from the
// request; promotion happens through the users.role_update operation.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}

	if _, err := h.users.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := h.users.Create(r.Context(), domain.User{
		Email:        req.Email,
		Name:         req.Name,
		Role:         string(role.Customer),
		Phone:        req.Phone,
		Address:      req.Address,
		PasswordHash: hash,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	tokens, err := h.jwtService.IssueTokens(created)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setAccessCookie(w, tokens)
	writeJSON(w, http.StatusCreated, AuthResponse{User: created.Public(), Tokens: tokens})
}

// Login authenticates by email and password.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeDomainError(w, err)
		return
	}

	if !auth.CheckPassword(req.Password, u.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	tokens, err := h.jwtService.IssueTokens(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setAccessCookie(w, tokens)
	writeJSON(w, http.StatusOK, AuthResponse{User: u.Public(), Tokens: tokens})
}

// Refresh exchanges a valid refresh token for a new token pair. The user is
// re-read so a role change invalidates tokens issued before it.
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	u, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	tokens, err := h.jwtService.IssueTokens(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.setAccessCookie(w, tokens)
	writeJSON(w, http.StatusOK, AuthResponse{User: u.Public(), Tokens: tokens})
}

func (h *AuthHandlers) setAccessCookie(w http.ResponseWriter, tokens *auth.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
