package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/voxai/apiserver/internal/auth"
	"github.com/voxai/apiserver/internal/services"
	"github.com/voxai/apiserver/internal/store"
	"github.com/voxai/apiserver/types"
)

// Wire messages preserved for client compatibility.
const (
	msgMissingCredentials = "Email and password are required"
	msgUserExists         = "User already exists with this email"
	msgInvalidLogin       = "Invalid email or password"
	msgNoToken            = "No token provided"
	msgUnauthorized       = "Unauthorized"
	msgInvalidToken       = "Invalid or expired token"
	msgUserNotFound       = "User not found"
)

// AuthHandler provides signup, login, and token verification.
type AuthHandler struct {
	userService *services.UserService
	secret      []byte
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		secret:      []byte(jwtSecret),
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, userService *services.UserService, jwtSecret string) {
	handler := NewAuthHandler(userService, jwtSecret)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/me", handler.Me)
}

// RequireAuth constructs the auth middleware for resource routers.
// Requests without a valid bearer token never reach the store.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	secret := []byte(jwtSecret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}

			userID, err := auth.VerifyToken(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the success payload of signup and login.
type AuthResponse struct {
	User  types.PublicProfile `json:"user"`
	Token string              `json:"token"`
}

// MeResponse is the success payload of /auth/me.
type MeResponse struct {
	User types.PublicProfile `json:"user"`
}

// Signup creates a new account and returns it with a session token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	if _, err := h.userService.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusBadRequest, msgUserExists)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	publicKey, err := auth.NewPublicKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	secretKey, err := auth.NewSecretKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hashed,
		PublicKey:    publicKey,
		SecretKey:    secretKey,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, msgUserExists)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := auth.IssueToken(user.ID, user.Email, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: user.Profile(), Token: token})
}

// Login verifies credentials and returns the account with a session
// token. Unknown email and wrong password produce the same message so
// responses never confirm whether an account exists.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, msgMissingCredentials)
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, msgInvalidLogin)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, msgInvalidLogin)
		return
	}

	// Accounts created before keys existed gain them on first login.
	if err := h.userService.EnsureKeys(r.Context(), &user); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := auth.IssueToken(user.ID, user.Email, h.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: user.Profile(), Token: token})
}

// Me verifies the bearer token and returns the current account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	tokenString, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNoToken)
		return
	}

	userID, err := auth.VerifyToken(tokenString, h.secret)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgInvalidToken)
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, msgUserNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.userService.EnsureKeys(r.Context(), &user); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, MeResponse{User: user.Profile()})
}
