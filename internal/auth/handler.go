package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/toplivedeals/toplivedeals/internal/platform/httpx"
	"github.com/toplivedeals/toplivedeals/internal/shared"
)

const sessionEmailKey = "email"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type authResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    map[string]any `json:"user,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.JSON(w, http.StatusBadRequest, authResponse{Message: "Invalid request payload."})
		return
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := h.validator.Struct(creds); err != nil {
		httpx.JSON(w, http.StatusBadRequest, authResponse{Message: "Email and password are required."})
		return
	}

	user, err := h.service.Authenticate(r.Context(), creds.Email, creds.Password)
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, authResponse{Message: "Invalid email or password."})
		return
	}

	h.establishSession(r, user)
	httpx.JSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Logged in successfully!",
		User:    userPayload(user),
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.JSON(w, http.StatusBadRequest, authResponse{Message: "Invalid request payload."})
		return
	}
	creds.Email = strings.ToLower(strings.TrimSpace(creds.Email))
	if err := h.validator.Struct(creds); err != nil {
		httpx.JSON(w, http.StatusBadRequest, authResponse{Message: "A valid email and a password of at least 8 characters are required."})
		return
	}

	user, err := h.service.Register(r.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, shared.ErrEmailTaken) {
			httpx.JSON(w, http.StatusConflict, authResponse{Message: "Email already in use. Please use a different email or log in."})
			return
		}
		h.logger.Error("register", slog.Any("error", err))
		httpx.JSON(w, http.StatusInternalServerError, authResponse{Message: "Registration failed. Please try again."})
		return
	}

	h.establishSession(r, user)
	httpx.JSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "Registration successful! You are now logged in.",
		User:    userPayload(user),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, authResponse{Success: true, Message: "Logged out successfully."})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.JSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    sess.User(),
			"email": sess.Get(sessionEmailKey),
		},
	})
}

// establishSession binds the session to the user and records it for
// auditing. Session write failures are logged, not surfaced; the login
// itself already succeeded.
func (h *Handler) establishSession(r *http.Request, user *User) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	sess.Set(sessionEmailKey, user.Email)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
}

func userPayload(user *User) map[string]any {
	return map[string]any{
		"id":    user.ID,
		"email": user.Email,
	}
}
